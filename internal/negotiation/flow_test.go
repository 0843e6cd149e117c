package negotiation

// These tests wire the real in-memory bus between the services and the
// orchestrator to verify that stage transitions land before the triggering
// call returns, not on a detached goroutine afterwards.

import (
	"context"
	"sync"
	"testing"
	"time"

	contractdomain "transferdesk_backend/internal/contracts/domain"
	contractrepo "transferdesk_backend/internal/contracts/repository"
	contractservice "transferdesk_backend/internal/contracts/service"
	"transferdesk_backend/internal/events"
	interestrepo "transferdesk_backend/internal/interest/repository"
	interestservice "transferdesk_backend/internal/interest/service"
	"transferdesk_backend/internal/pitches/domain"
	"transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/internal/profiles"
	"transferdesk_backend/platform/apperr"
	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type flowContractRepo struct {
	mu        sync.Mutex
	contracts map[uuid.UUID]*contractrepo.Contract
}

func newFlowContractRepo() *flowContractRepo {
	return &flowContractRepo{contracts: make(map[uuid.UUID]*contractrepo.Contract)}
}

func (f *flowContractRepo) Create(_ context.Context, c *contractrepo.Contract) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.contracts[c.ID] = &cp
	return nil
}

func (f *flowContractRepo) GetByID(_ context.Context, id uuid.UUID) (*contractrepo.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.contracts[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, apperr.NotFound("contract not found")
}

func (f *flowContractRepo) GetActiveByPitch(_ context.Context, pitchID uuid.UUID) (*contractrepo.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contracts {
		if c.PitchID == pitchID && !contractdomain.IsTerminal(c.Status) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("no active contract for this pitch")
}

func (f *flowContractRepo) AdvanceStatus(_ context.Context, id uuid.UUID, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (f *flowContractRepo) UpdateTerms(_ context.Context, id uuid.UUID, terms string, feeCents int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.contracts[id]; ok {
		c.Terms = terms
		c.FeeCents = feeCents
	}
	return nil
}

func (f *flowContractRepo) ListForPitch(context.Context, uuid.UUID) ([]contractrepo.Contract, error) {
	return nil, nil
}

func (f *flowContractRepo) ListForAgent(context.Context, uuid.UUID) ([]contractrepo.Contract, error) {
	return nil, nil
}

func (f *flowContractRepo) ListForTeam(context.Context, uuid.UUID) ([]contractrepo.Contract, error) {
	return nil, nil
}

var _ contractrepo.ContractsRepository = (*flowContractRepo)(nil)

type flowInterestRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*interestrepo.Interest
}

func newFlowInterestRepo() *flowInterestRepo {
	return &flowInterestRepo{rows: make(map[uuid.UUID]*interestrepo.Interest)}
}

func (f *flowInterestRepo) Create(_ context.Context, i *interestrepo.Interest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *i
	f.rows[i.ID] = &cp
	return nil
}

func (f *flowInterestRepo) GetByID(_ context.Context, id uuid.UUID) (*interestrepo.Interest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[id]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, apperr.NotFound("interest not found")
}

func (f *flowInterestRepo) GetByPitchAndAgent(_ context.Context, pitchID, agentID uuid.UUID) (*interestrepo.Interest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.PitchID == pitchID && row.AgentID == agentID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("interest not found")
}

func (f *flowInterestRepo) UpdateStatus(_ context.Context, id uuid.UUID, status, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[id]; ok {
		row.Status = status
		row.Message = message
		row.UpdatedAt = time.Now()
	}
	return nil
}

func (f *flowInterestRepo) SetNegotiating(_ context.Context, pitchID, agentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.PitchID == pitchID && row.AgentID == agentID {
			row.Status = domain.InterestStatusNegotiating
			return nil
		}
	}
	id := uuid.New()
	f.rows[id] = &interestrepo.Interest{ID: id, PitchID: pitchID, AgentID: agentID, Status: domain.InterestStatusNegotiating}
	return nil
}

func (f *flowInterestRepo) ListForPitch(context.Context, uuid.UUID) ([]interestrepo.Interest, error) {
	return nil, nil
}

func (f *flowInterestRepo) ListForAgent(context.Context, uuid.UUID) ([]interestrepo.Interest, error) {
	return nil, nil
}

var _ interestrepo.InterestRepository = (*flowInterestRepo)(nil)

type flowProvisioner struct{}

func (flowProvisioner) EnsureAgent(_ context.Context, id uuid.UUID) (*profiles.AgentProfile, error) {
	return &profiles.AgentProfile{ID: id}, nil
}

type flowMarker struct{}

func (flowMarker) MarkNegotiating(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type flowBumper struct{}

func (flowBumper) Bump(context.Context, uuid.UUID, string, int64) {}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestExpressAdvancesStageBeforeReturning(t *testing.T) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	repo := newFakePitchRepo()
	NewOrchestrator(repo, bus, log).Register()

	pitch := &repository.Pitch{
		ID:        uuid.New(),
		TeamID:    uuid.New(),
		Status:    domain.StatusActive,
		DealStage: domain.DealStagePitch,
	}
	repo.add(pitch)

	svc := interestservice.New(newFlowInterestRepo(), repo, flowProvisioner{}, flowBumper{}, bus, log)
	if _, err := svc.Express(context.Background(), uuid.New(), interestservice.ExpressParams{PitchID: pitch.ID}); err != nil {
		t.Fatalf("express failed: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), pitch.ID)
	if got.DealStage != domain.DealStageInterest {
		t.Fatalf("stage = %q immediately after express, want interest", got.DealStage)
	}
}

func TestContractCreationAdvancesStageBeforeReturning(t *testing.T) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	repo := newFakePitchRepo()
	NewOrchestrator(repo, bus, log).Register()

	pitch := &repository.Pitch{
		ID:        uuid.New(),
		TeamID:    uuid.New(),
		Status:    domain.StatusActive,
		DealStage: domain.DealStageDiscussion,
	}
	repo.add(pitch)

	svc := contractservice.New(newFlowContractRepo(), repo, flowMarker{}, bus, log)
	if _, err := svc.Create(context.Background(), pitch.TeamID, contractservice.CreateParams{
		PitchID: pitch.ID,
		AgentID: uuid.New(),
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), pitch.ID)
	if got.DealStage != domain.DealStageContractNegotiation {
		t.Fatalf("stage = %q immediately after create, want contract_negotiation", got.DealStage)
	}
}

func TestCompleteClosesPitchBeforeReturning(t *testing.T) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	repo := newFakePitchRepo()
	NewOrchestrator(repo, bus, log).Register()

	teamID := uuid.New()
	pitch := &repository.Pitch{
		ID:        uuid.New(),
		TeamID:    teamID,
		Status:    domain.StatusActive,
		DealStage: domain.DealStageContractNegotiation,
	}
	repo.add(pitch)

	crepo := newFlowContractRepo()
	contract := &contractrepo.Contract{
		ID:      uuid.New(),
		PitchID: pitch.ID,
		AgentID: uuid.New(),
		TeamID:  teamID,
		Status:  contractdomain.StatusSigned,
	}
	if err := crepo.Create(context.Background(), contract); err != nil {
		t.Fatalf("seed contract failed: %v", err)
	}

	svc := contractservice.New(crepo, repo, flowMarker{}, bus, log)
	if _, err := svc.Advance(context.Background(), teamID, contractdomain.ActorTeam, contract.ID, contractdomain.ActionComplete); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	// No sleep, no polling: the close must already be visible.
	got, _ := repo.GetByID(context.Background(), pitch.ID)
	if got.Status != domain.StatusCompleted || got.DealStage != domain.DealStageCompleted {
		t.Fatalf("pitch = %q/%q immediately after complete, want completed/completed", got.Status, got.DealStage)
	}
}
