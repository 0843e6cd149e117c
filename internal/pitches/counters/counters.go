// Package counters maintains the denormalized pitch counters (views,
// messages, shortlists, interest) in Redis and flushes accumulated deltas to
// Postgres in the background. Counters are eventually consistent by design
// and must never gate a workflow transition; a Redis outage degrades counting,
// not the negotiation workflow.
package counters

import (
	"context"
	"strconv"

	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	// FieldViews through FieldInterest name the counter hash fields; they
	// match the whitelist in the pitches repository.
	FieldViews      = "views"
	FieldMessages   = "messages"
	FieldShortlists = "shortlists"
	FieldInterest   = "interest"

	dirtySetKey    = "pitch_counters:dirty"
	hashKeyPrefix  = "pitch_counters:"
	flushParallism = 4
)

// DeltaSink applies accumulated counter deltas to durable storage.
type DeltaSink interface {
	ApplyCounterDeltas(ctx context.Context, id uuid.UUID, deltas map[string]int64) error
}

// Service accumulates counter deltas in Redis.
type Service struct {
	rdb  *redis.Client
	sink DeltaSink
	log  *logger.Logger
}

// New creates a counter service. rdb may be nil, in which case all bumps are
// silently dropped (counting disabled, workflow unaffected).
func New(rdb *redis.Client, sink DeltaSink, log *logger.Logger) *Service {
	return &Service{rdb: rdb, sink: sink, log: log}
}

// Enabled reports whether a Redis backend is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.rdb != nil
}

// Bump accumulates a delta for one counter field of a pitch. Best-effort:
// failures are logged, never propagated to the caller.
func (s *Service) Bump(ctx context.Context, pitchID uuid.UUID, field string, delta int64) {
	if !s.Enabled() || delta == 0 {
		return
	}

	key := hashKeyPrefix + pitchID.String()
	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, field, delta)
	pipe.SAdd(ctx, dirtySetKey, pitchID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn("counter bump failed", "pitchId", pitchID, "field", field, "error", err)
	}
}

// Flush drains all dirty pitch counters into the sink. Deltas for a pitch are
// read-and-deleted atomically; a failed sink write re-bumps the deltas so no
// count is lost, only delayed.
func (s *Service) Flush(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}

	ids, err := s.rdb.SMembers(ctx, dirtySetKey).Result()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(flushParallism)
	for _, raw := range ids {
		raw := raw
		g.Go(func() error {
			pitchID, err := uuid.Parse(raw)
			if err != nil {
				// Garbage member; drop it so it cannot wedge the flush.
				s.rdb.SRem(gctx, dirtySetKey, raw)
				return nil
			}
			return s.flushOne(gctx, pitchID)
		})
	}
	return g.Wait()
}

func (s *Service) flushOne(ctx context.Context, pitchID uuid.UUID) error {
	key := hashKeyPrefix + pitchID.String()

	pipe := s.rdb.TxPipeline()
	getAll := pipe.HGetAll(ctx, key)
	pipe.Del(ctx, key)
	pipe.SRem(ctx, dirtySetKey, pitchID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	raw := getAll.Val()
	if len(raw) == 0 {
		return nil
	}

	deltas := make(map[string]int64, len(raw))
	for field, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		deltas[field] = n
	}

	if err := s.sink.ApplyCounterDeltas(ctx, pitchID, deltas); err != nil {
		// Put the deltas back; the next flush retries them.
		for field, n := range deltas {
			s.Bump(ctx, pitchID, field, n)
		}
		return err
	}
	return nil
}
