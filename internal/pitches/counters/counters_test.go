package counters

import (
	"context"
	"sync"
	"testing"

	"transferdesk_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type recordingSink struct {
	mu     sync.Mutex
	deltas map[uuid.UUID]map[string]int64
	fail   bool
}

func (r *recordingSink) ApplyCounterDeltas(_ context.Context, id uuid.UUID, deltas map[string]int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return context.DeadlineExceeded
	}
	if r.deltas == nil {
		r.deltas = make(map[uuid.UUID]map[string]int64)
	}
	merged := r.deltas[id]
	if merged == nil {
		merged = make(map[string]int64)
		r.deltas[id] = merged
	}
	for field, n := range deltas {
		merged[field] += n
	}
	return nil
}

func newTestService(t *testing.T, sink DeltaSink) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, sink, logger.New("development")), mr
}

func TestBumpAndFlushAppliesDeltas(t *testing.T) {
	sink := &recordingSink{}
	svc, _ := newTestService(t, sink)
	ctx := context.Background()
	pitchID := uuid.New()

	svc.Bump(ctx, pitchID, FieldViews, 3)
	svc.Bump(ctx, pitchID, FieldInterest, 1)
	svc.Bump(ctx, pitchID, FieldInterest, -1)

	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	got := sink.deltas[pitchID]
	if got[FieldViews] != 3 {
		t.Fatalf("expected views delta 3, got %d", got[FieldViews])
	}
	if got[FieldInterest] != 0 {
		t.Fatalf("expected interest delta 0, got %d", got[FieldInterest])
	}
}

func TestFlushIsIdempotentWhenClean(t *testing.T) {
	sink := &recordingSink{}
	svc, _ := newTestService(t, sink)
	ctx := context.Background()

	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("flush on empty store failed: %v", err)
	}

	pitchID := uuid.New()
	svc.Bump(ctx, pitchID, FieldShortlists, 2)
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("second flush failed: %v", err)
	}

	if got := sink.deltas[pitchID][FieldShortlists]; got != 2 {
		t.Fatalf("expected shortlists delta applied exactly once, got %d", got)
	}
}

func TestFlushRequeuesDeltasWhenSinkFails(t *testing.T) {
	sink := &recordingSink{fail: true}
	svc, _ := newTestService(t, sink)
	ctx := context.Background()
	pitchID := uuid.New()

	svc.Bump(ctx, pitchID, FieldMessages, 5)
	if err := svc.Flush(ctx); err == nil {
		t.Fatal("expected flush to report sink failure")
	}

	sink.mu.Lock()
	sink.fail = false
	sink.mu.Unlock()

	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("retry flush failed: %v", err)
	}
	if got := sink.deltas[pitchID][FieldMessages]; got != 5 {
		t.Fatalf("expected messages delta 5 after retry, got %d", got)
	}
}

func TestDisabledServiceDropsBumps(t *testing.T) {
	svc := New(nil, &recordingSink{}, logger.New("development"))
	svc.Bump(context.Background(), uuid.New(), FieldViews, 1)
	if err := svc.Flush(context.Background()); err != nil {
		t.Fatalf("flush on disabled service failed: %v", err)
	}
}
