package profiles

import (
	"context"
	"testing"

	"transferdesk_backend/platform/apperr"
	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	agents map[uuid.UUID]*AgentProfile
	teams  map[uuid.UUID]*TeamProfile
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		agents: make(map[uuid.UUID]*AgentProfile),
		teams:  make(map[uuid.UUID]*TeamProfile),
	}
}

func (f *fakeStore) GetAgent(_ context.Context, id uuid.UUID) (*AgentProfile, error) {
	if p, ok := f.agents[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("agent profile not found")
}

func (f *fakeStore) GetTeam(_ context.Context, id uuid.UUID) (*TeamProfile, error) {
	if p, ok := f.teams[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("team profile not found")
}

func (f *fakeStore) InsertAgent(_ context.Context, p *AgentProfile) (bool, error) {
	if _, ok := f.agents[p.ID]; ok {
		return false, nil
	}
	f.agents[p.ID] = p
	return true, nil
}

func (f *fakeStore) InsertTeam(_ context.Context, p *TeamProfile) (bool, error) {
	if _, ok := f.teams[p.ID]; ok {
		return false, nil
	}
	f.teams[p.ID] = p
	return true, nil
}

func (f *fakeStore) UpdateAgent(_ context.Context, p *AgentProfile) error {
	if _, ok := f.agents[p.ID]; !ok {
		return apperr.NotFound("agent profile not found")
	}
	f.agents[p.ID] = p
	return nil
}

func (f *fakeStore) UpdateTeam(_ context.Context, p *TeamProfile) error {
	if _, ok := f.teams[p.ID]; !ok {
		return apperr.NotFound("team profile not found")
	}
	f.teams[p.ID] = p
	return nil
}

func TestEnsureAgentProvisionsPlaceholder(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, logger.New("development"))
	id := uuid.New()

	p, err := svc.EnsureAgent(context.Background(), id)
	if err != nil {
		t.Fatalf("EnsureAgent failed: %v", err)
	}
	if p.ID != id {
		t.Fatalf("expected placeholder with id %s, got %s", id, p.ID)
	}
	if _, ok := store.agents[id]; !ok {
		t.Fatal("expected placeholder row to be persisted")
	}
}

func TestEnsureAgentReturnsExistingProfile(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, logger.New("development"))
	id := uuid.New()
	store.agents[id] = &AgentProfile{ID: id, DisplayName: "Jo Carter"}

	p, err := svc.EnsureAgent(context.Background(), id)
	if err != nil {
		t.Fatalf("EnsureAgent failed: %v", err)
	}
	if p.DisplayName != "Jo Carter" {
		t.Fatalf("expected existing profile, got %q", p.DisplayName)
	}
}

func TestEnsureTeamIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, logger.New("development"))
	id := uuid.New()

	first, err := svc.EnsureTeam(context.Background(), id)
	if err != nil {
		t.Fatalf("first EnsureTeam failed: %v", err)
	}
	second, err := svc.EnsureTeam(context.Background(), id)
	if err != nil {
		t.Fatalf("second EnsureTeam failed: %v", err)
	}
	if first.ID != second.ID || len(store.teams) != 1 {
		t.Fatal("expected a single team profile row")
	}
}
