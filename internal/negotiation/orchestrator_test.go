package negotiation

import (
	"context"
	"sync"
	"testing"
	"time"

	"transferdesk_backend/internal/events"
	"transferdesk_backend/internal/pitches/domain"
	"transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/platform/apperr"
	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// fakePitchRepo is a minimal in-memory pitch store with conditional updates.
type fakePitchRepo struct {
	mu      sync.Mutex
	pitches map[uuid.UUID]*repository.Pitch
	// interceptAdvance, when set, runs before each conditional update so
	// tests can interleave a concurrent writer.
	interceptAdvance func()
}

func newFakePitchRepo() *fakePitchRepo {
	return &fakePitchRepo{pitches: make(map[uuid.UUID]*repository.Pitch)}
}

func (f *fakePitchRepo) add(p *repository.Pitch) {
	f.pitches[p.ID] = p
}

func (f *fakePitchRepo) Create(_ context.Context, p *repository.Pitch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pitches[p.ID] = p
	return nil
}

func (f *fakePitchRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.Pitch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pitches[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, apperr.NotFound("pitch not found")
}

func (f *fakePitchRepo) List(context.Context, repository.ListParams) (*repository.ListResult, error) {
	return &repository.ListResult{}, nil
}

func (f *fakePitchRepo) AdvanceDealStage(_ context.Context, id uuid.UUID, from, to string) (bool, error) {
	if f.interceptAdvance != nil {
		f.interceptAdvance()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pitches[id]
	if !ok || p.DealStage != from {
		return false, nil
	}
	p.DealStage = to
	return true, nil
}

func (f *fakePitchRepo) SetCompleted(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pitches[id]
	if !ok {
		return apperr.NotFound("pitch not found")
	}
	p.Status = domain.StatusCompleted
	p.DealStage = domain.DealStageCompleted
	return nil
}

func (f *fakePitchRepo) Withdraw(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (f *fakePitchRepo) MarkExpired(context.Context, time.Time) ([]repository.ExpiredPitch, error) {
	return nil, nil
}

func (f *fakePitchRepo) ApplyCounterDeltas(context.Context, uuid.UUID, map[string]int64) error {
	return nil
}

func (f *fakePitchRepo) AddShortlist(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

func (f *fakePitchRepo) RemoveShortlist(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

var _ repository.PitchesRepository = (*fakePitchRepo)(nil)

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) stageChanges() []events.DealStageChanged {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.DealStageChanged
	for _, e := range b.events {
		if sc, ok := e.(events.DealStageChanged); ok {
			out = append(out, sc)
		}
	}
	return out
}

func newTestOrchestrator(pitches ...*repository.Pitch) (*Orchestrator, *fakePitchRepo, *recordingBus) {
	repo := newFakePitchRepo()
	for _, p := range pitches {
		repo.add(p)
	}
	bus := &recordingBus{}
	o := NewOrchestrator(repo, bus, logger.New("development"))
	return o, repo, bus
}

func stagedPitch(stage string) *repository.Pitch {
	return &repository.Pitch{
		ID:        uuid.New(),
		TeamID:    uuid.New(),
		Status:    domain.StatusActive,
		DealStage: stage,
	}
}

func TestAdvanceToAtLeastMovesForward(t *testing.T) {
	pitch := stagedPitch(domain.DealStagePitch)
	o, repo, bus := newTestOrchestrator(pitch)

	if err := o.AdvanceToAtLeast(context.Background(), pitch.ID, domain.DealStageInterest); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	if got := repo.pitches[pitch.ID].DealStage; got != domain.DealStageInterest {
		t.Fatalf("expected interest, got %q", got)
	}
	changes := bus.stageChanges()
	if len(changes) != 1 || changes[0].NewStage != domain.DealStageInterest {
		t.Fatalf("unexpected stage change events: %+v", changes)
	}
}

func TestAdvanceNeverRegresses(t *testing.T) {
	pitch := stagedPitch(domain.DealStageContractNegotiation)
	o, repo, bus := newTestOrchestrator(pitch)

	if err := o.AdvanceToAtLeast(context.Background(), pitch.ID, domain.DealStageInterest); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	if got := repo.pitches[pitch.ID].DealStage; got != domain.DealStageContractNegotiation {
		t.Fatalf("stage regressed to %q", got)
	}
	if len(bus.stageChanges()) != 0 {
		t.Fatal("expected no stage change events")
	}
}

func TestAdvanceSkipsTerminalStages(t *testing.T) {
	for _, stage := range []string{domain.DealStageCompleted, domain.DealStageExpired} {
		pitch := stagedPitch(stage)
		o, repo, _ := newTestOrchestrator(pitch)

		if err := o.AdvanceToAtLeast(context.Background(), pitch.ID, domain.DealStageDiscussion); err != nil {
			t.Fatalf("advance on %q failed: %v", stage, err)
		}
		if got := repo.pitches[pitch.ID].DealStage; got != stage {
			t.Fatalf("terminal stage %q was overwritten with %q", stage, got)
		}
	}
}

func TestAdvanceLostRaceAgainstHigherStageIsSatisfied(t *testing.T) {
	pitch := stagedPitch(domain.DealStagePitch)
	o, repo, bus := newTestOrchestrator(pitch)

	// A concurrent writer pushes the pitch to discussion between our read
	// and our conditional write.
	fired := false
	repo.interceptAdvance = func() {
		if fired {
			return
		}
		fired = true
		repo.mu.Lock()
		repo.pitches[pitch.ID].DealStage = domain.DealStageDiscussion
		repo.mu.Unlock()
	}

	if err := o.AdvanceToAtLeast(context.Background(), pitch.ID, domain.DealStageInterest); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	if got := repo.pitches[pitch.ID].DealStage; got != domain.DealStageDiscussion {
		t.Fatalf("expected discussion to survive, got %q", got)
	}
	if len(bus.stageChanges()) != 0 {
		t.Fatal("expected no stage change event after losing to a higher stage")
	}
}

func TestAdvanceLostRaceAgainstLowerStageRetriesOnce(t *testing.T) {
	pitch := stagedPitch(domain.DealStagePitch)
	o, repo, _ := newTestOrchestrator(pitch)

	fired := false
	repo.interceptAdvance = func() {
		if fired {
			return
		}
		fired = true
		repo.mu.Lock()
		repo.pitches[pitch.ID].DealStage = domain.DealStageInterest
		repo.mu.Unlock()
	}

	if err := o.AdvanceToAtLeast(context.Background(), pitch.ID, domain.DealStageDiscussion); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if got := repo.pitches[pitch.ID].DealStage; got != domain.DealStageDiscussion {
		t.Fatalf("expected retry to land discussion, got %q", got)
	}
}

func TestInterestEventsDriveStageDerivation(t *testing.T) {
	pitch := stagedPitch(domain.DealStagePitch)
	o, repo, _ := newTestOrchestrator(pitch)
	ctx := context.Background()

	err := o.onInterestEvent(ctx, events.InterestCreated{
		BaseEvent: events.NewBaseEvent(),
		PitchID:   pitch.ID,
		Status:    domain.InterestStatusRequested,
	})
	if err != nil {
		t.Fatalf("interest event failed: %v", err)
	}
	if got := repo.pitches[pitch.ID].DealStage; got != domain.DealStageInterest {
		t.Fatalf("expected interest, got %q", got)
	}

	err = o.onInterestEvent(ctx, events.InterestUpdated{
		BaseEvent: events.NewBaseEvent(),
		PitchID:   pitch.ID,
		Status:    domain.InterestStatusNegotiating,
	})
	if err != nil {
		t.Fatalf("interest update failed: %v", err)
	}
	if got := repo.pitches[pitch.ID].DealStage; got != domain.DealStageDiscussion {
		t.Fatalf("expected discussion, got %q", got)
	}
}

func TestContractCreatedDominatesStage(t *testing.T) {
	pitch := stagedPitch(domain.DealStageInterest)
	o, repo, _ := newTestOrchestrator(pitch)

	err := o.onContractCreated(context.Background(), events.ContractCreated{
		BaseEvent: events.NewBaseEvent(),
		PitchID:   pitch.ID,
	})
	if err != nil {
		t.Fatalf("contract created event failed: %v", err)
	}
	if got := repo.pitches[pitch.ID].DealStage; got != domain.DealStageContractNegotiation {
		t.Fatalf("expected contract_negotiation, got %q", got)
	}
}

func TestContractCompletedClosesPitch(t *testing.T) {
	pitch := stagedPitch(domain.DealStageContractNegotiation)
	o, repo, bus := newTestOrchestrator(pitch)
	ctx := context.Background()

	evt := events.ContractCompleted{BaseEvent: events.NewBaseEvent(), PitchID: pitch.ID, TeamID: pitch.TeamID}
	if err := o.onContractCompleted(ctx, evt); err != nil {
		t.Fatalf("contract completed event failed: %v", err)
	}

	p := repo.pitches[pitch.ID]
	if p.Status != domain.StatusCompleted || p.DealStage != domain.DealStageCompleted {
		t.Fatalf("expected completed pitch, got status=%q stage=%q", p.Status, p.DealStage)
	}

	// Replaying the event must be a no-op.
	if err := o.onContractCompleted(ctx, evt); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if got := len(bus.stageChanges()); got != 1 {
		t.Fatalf("expected one stage change event, got %d", got)
	}
}
