package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"transferdesk_backend/internal/events"
	"transferdesk_backend/internal/pitches/counters"
	"transferdesk_backend/internal/pitches/domain"
	"transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/internal/pitches/transport"
	"transferdesk_backend/internal/profiles"
	"transferdesk_backend/platform/apperr"
	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type shortlistKey struct {
	agentID uuid.UUID
	pitchID uuid.UUID
}

type fakePitchRepo struct {
	mu         sync.Mutex
	pitches    map[uuid.UUID]*repository.Pitch
	shortlists map[shortlistKey]bool
}

func newFakePitchRepo() *fakePitchRepo {
	return &fakePitchRepo{
		pitches:    make(map[uuid.UUID]*repository.Pitch),
		shortlists: make(map[shortlistKey]bool),
	}
}

func (f *fakePitchRepo) Create(_ context.Context, p *repository.Pitch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.pitches[p.ID] = &cp
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

func (f *fakePitchRepo) List(_ context.Context, params repository.ListParams) (*repository.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []repository.Pitch
	for _, p := range f.pitches {
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		items = append(items, *p)
	}
	return &repository.ListResult{Items: items, Total: len(items), Page: 1, PageSize: 20, TotalPages: 1}, nil
}

func (f *fakePitchRepo) AdvanceDealStage(_ context.Context, id uuid.UUID, from, to string) (bool, error) {
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

func (f *fakePitchRepo) Withdraw(_ context.Context, id, teamID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pitches[id]
	if !ok || p.TeamID != teamID || p.Status != domain.StatusActive {
		return apperr.Conflict("pitch is not active or not owned by this team")
	}
	p.Status = domain.StatusWithdrawn
	return nil
}

func (f *fakePitchRepo) MarkExpired(_ context.Context, now time.Time) ([]repository.ExpiredPitch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var expired []repository.ExpiredPitch
	for _, p := range f.pitches {
		if p.Status == domain.StatusActive && p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
			p.Status = domain.StatusExpired
			p.DealStage = domain.DealStageExpired
			expired = append(expired, repository.ExpiredPitch{ID: p.ID, TeamID: p.TeamID})
		}
	}
	return expired, nil
}

func (f *fakePitchRepo) ApplyCounterDeltas(_ context.Context, id uuid.UUID, deltas map[string]int64) error {
	return nil
}

func (f *fakePitchRepo) AddShortlist(_ context.Context, agentID, pitchID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := shortlistKey{agentID, pitchID}
	if f.shortlists[key] {
		return false, nil
	}
	f.shortlists[key] = true
	return true, nil
}

func (f *fakePitchRepo) RemoveShortlist(_ context.Context, agentID, pitchID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := shortlistKey{agentID, pitchID}
	if !f.shortlists[key] {
		return false, nil
	}
	delete(f.shortlists, key)
	return true, nil
}

var _ repository.PitchesRepository = (*fakePitchRepo)(nil)

type fakeProfileStore struct {
	mu     sync.Mutex
	agents map[uuid.UUID]*profiles.AgentProfile
	teams  map[uuid.UUID]*profiles.TeamProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		agents: make(map[uuid.UUID]*profiles.AgentProfile),
		teams:  make(map[uuid.UUID]*profiles.TeamProfile),
	}
}

func (f *fakeProfileStore) GetAgent(_ context.Context, id uuid.UUID) (*profiles.AgentProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.agents[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("agent profile not found")
}

func (f *fakeProfileStore) GetTeam(_ context.Context, id uuid.UUID) (*profiles.TeamProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.teams[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("team profile not found")
}

func (f *fakeProfileStore) InsertAgent(_ context.Context, p *profiles.AgentProfile) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.agents[p.ID]; ok {
		return false, nil
	}
	f.agents[p.ID] = p
	return true, nil
}

func (f *fakeProfileStore) InsertTeam(_ context.Context, p *profiles.TeamProfile) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[p.ID]; ok {
		return false, nil
	}
	f.teams[p.ID] = p
	return true, nil
}

func (f *fakeProfileStore) UpdateAgent(_ context.Context, p *profiles.AgentProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents[p.ID] = p
	return nil
}

func (f *fakeProfileStore) UpdateTeam(_ context.Context, p *profiles.TeamProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teams[p.ID] = p
	return nil
}

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

// ── Fixtures ──────────────────────────────────────────────────────────────────

func newTestService() (*Service, *fakePitchRepo, *fakeProfileStore, *recordingBus) {
	repo := newFakePitchRepo()
	store := newFakeProfileStore()
	bus := &recordingBus{}
	log := logger.New("development")
	svc := New(repo, profiles.NewService(store, log), counters.New(nil, repo, log), bus, log)
	return svc, repo, store, bus
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreateStartsAtBaseStage(t *testing.T) {
	svc, _, store, _ := newTestService()
	teamID := uuid.New()

	pitch, err := svc.Create(context.Background(), teamID, transport.CreatePitchRequest{
		PlayerID:         uuid.New(),
		AskingPriceCents: 5_000_000_00,
		Currency:         "EUR",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if pitch.Status != domain.StatusActive {
		t.Fatalf("status = %q, want active", pitch.Status)
	}
	if pitch.DealStage != domain.DealStagePitch {
		t.Fatalf("deal stage = %q, want pitch", pitch.DealStage)
	}
	if _, ok := store.teams[teamID]; !ok {
		t.Fatal("team profile was not provisioned")
	}
}

func TestCreateRejectsPastExpiry(t *testing.T) {
	svc, _, _, _ := newTestService()
	past := time.Now().Add(-time.Hour)

	_, err := svc.Create(context.Background(), uuid.New(), transport.CreatePitchRequest{
		PlayerID:         uuid.New(),
		AskingPriceCents: 100,
		Currency:         "EUR",
		ExpiresAt:        &past,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestWithdrawRequiresOwnership(t *testing.T) {
	svc, _, _, _ := newTestService()
	teamID := uuid.New()
	ctx := context.Background()

	pitch, err := svc.Create(ctx, teamID, transport.CreatePitchRequest{
		PlayerID:         uuid.New(),
		AskingPriceCents: 100,
		Currency:         "EUR",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Withdraw(ctx, pitch.ID, uuid.New()); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("foreign withdraw err = %v, want conflict", err)
	}
	if err := svc.Withdraw(ctx, pitch.ID, teamID); err != nil {
		t.Fatalf("owner withdraw failed: %v", err)
	}
	if err := svc.Withdraw(ctx, pitch.ID, teamID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("repeat withdraw err = %v, want conflict", err)
	}
}

func TestShortlistIsIdempotent(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	pitch, err := svc.Create(ctx, uuid.New(), transport.CreatePitchRequest{
		PlayerID:         uuid.New(),
		AskingPriceCents: 100,
		Currency:         "EUR",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	agentID := uuid.New()

	for i := 0; i < 3; i++ {
		if err := svc.Shortlist(ctx, agentID, pitch.ID); err != nil {
			t.Fatalf("shortlist attempt %d failed: %v", i+1, err)
		}
	}
	if got := len(repo.shortlists); got != 1 {
		t.Fatalf("shortlist entries = %d, want 1", got)
	}

	if err := svc.Unshortlist(ctx, agentID, pitch.ID); err != nil {
		t.Fatalf("unshortlist failed: %v", err)
	}
	if err := svc.Unshortlist(ctx, agentID, pitch.ID); err != nil {
		t.Fatalf("repeat unshortlist failed: %v", err)
	}
	if got := len(repo.shortlists); got != 0 {
		t.Fatalf("shortlist entries = %d, want 0", got)
	}
}

func TestSweepExpiredPublishesPerPitch(t *testing.T) {
	svc, repo, _, bus := newTestService()
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	stale := &repository.Pitch{ID: uuid.New(), TeamID: uuid.New(), Status: domain.StatusActive, DealStage: domain.DealStageInterest, ExpiresAt: &past}
	fresh := &repository.Pitch{ID: uuid.New(), TeamID: uuid.New(), Status: domain.StatusActive, DealStage: domain.DealStagePitch, ExpiresAt: &future}
	open := &repository.Pitch{ID: uuid.New(), TeamID: uuid.New(), Status: domain.StatusActive, DealStage: domain.DealStagePitch}
	for _, p := range []*repository.Pitch{stale, fresh, open} {
		repo.pitches[p.ID] = p
	}

	count, err := svc.SweepExpired(ctx, now)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expired count = %d, want 1", count)
	}
	if got := repo.pitches[stale.ID]; got.Status != domain.StatusExpired || got.DealStage != domain.DealStageExpired {
		t.Fatalf("stale pitch = %q/%q, want expired/expired", got.Status, got.DealStage)
	}
	if got := repo.pitches[fresh.ID]; got.Status != domain.StatusActive {
		t.Fatalf("fresh pitch status = %q, want active", got.Status)
	}

	if len(bus.events) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.events))
	}
	expired, ok := bus.events[0].(events.PitchExpired)
	if !ok {
		t.Fatalf("event = %T, want PitchExpired", bus.events[0])
	}
	if expired.PitchID != stale.ID || expired.TeamID != stale.TeamID {
		t.Fatal("expiry event carries wrong pitch or team")
	}

	// Re-running the sweep finds nothing: expiry is terminal.
	count, err = svc.SweepExpired(ctx, now)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("second sweep count = %d, want 0", count)
	}
}
