// Package service implements the contract lifecycle: generation, the review
// ping-pong between team and agent, and completion.
package service

import (
	"context"
	"time"

	"transferdesk_backend/internal/contracts/domain"
	"transferdesk_backend/internal/contracts/repository"
	"transferdesk_backend/internal/events"
	pitchdomain "transferdesk_backend/internal/pitches/domain"
	pitchrepo "transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/platform/apperr"
	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
)

const retryDelay = 200 * time.Millisecond

// PitchReader provides read access to pitches.
type PitchReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*pitchrepo.Pitch, error)
}

// InterestMarker flips the counterpart interest row into negotiating when a
// contract is generated.
type InterestMarker interface {
	MarkNegotiating(ctx context.Context, pitchID, agentID uuid.UUID) error
}

// Service provides contract business operations.
type Service struct {
	repo     repository.ContractsRepository
	pitches  PitchReader
	interest InterestMarker
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new contracts service.
func New(repo repository.ContractsRepository, pitches PitchReader, interest InterestMarker, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, pitches: pitches, interest: interest, bus: bus, log: log}
}

// CreateParams carries the contract generation request.
type CreateParams struct {
	PitchID  uuid.UUID
	AgentID  uuid.UUID
	Terms    string
	FeeCents int64
}

// Create generates a draft contract for a negotiating pair. Only the owning
// team may generate, the pitch must be in an advanced-enough stage, and at
// most one non-terminal contract may exist per pitch.
func (s *Service) Create(ctx context.Context, teamID uuid.UUID, params CreateParams) (*repository.Contract, error) {
	pitch, err := s.pitches.GetByID(ctx, params.PitchID)
	if err != nil {
		return nil, err
	}
	if pitch.TeamID != teamID {
		return nil, apperr.Forbidden("pitch belongs to another team")
	}
	if pitchdomain.IsClosed(pitch.Status) {
		return nil, apperr.Gone("pitch is closed")
	}
	if pitchdomain.IsTerminalStatus(pitch.Status) {
		return nil, apperr.Gone("pitch is no longer available")
	}
	if pitch.DealStage != pitchdomain.DealStageDiscussion && pitch.DealStage != pitchdomain.DealStageContractNegotiation {
		return nil, apperr.Conflict("pitch has not reached the discussion stage")
	}

	// Pre-check for a friendlier error; the partial unique index is the
	// actual guard against racing creations.
	if existing, err := s.repo.GetActiveByPitch(ctx, params.PitchID); err == nil && existing != nil {
		return nil, apperr.Conflict("an active contract already exists for this pitch")
	} else if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	now := time.Now()
	contract := &repository.Contract{
		ID:        uuid.New(),
		PitchID:   params.PitchID,
		AgentID:   params.AgentID,
		TeamID:    teamID,
		Status:    domain.StatusDraft,
		Terms:     params.Terms,
		FeeCents:  params.FeeCents,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := retryOnce(ctx, func() error { return s.repo.Create(ctx, contract) }); err != nil {
		return nil, err
	}

	// The pair is negotiating by definition now; the interest ledger must
	// reflect it even when the agent never formally expressed interest.
	if err := s.interest.MarkNegotiating(ctx, params.PitchID, params.AgentID); err != nil {
		s.log.Error("failed to mark interest negotiating", "error", err, "pitchId", params.PitchID, "agentId", params.AgentID)
	}

	// Synchronous publish: the orchestrator must move the pitch into
	// contract_negotiation before this call returns.
	if err := s.bus.PublishSync(ctx, events.ContractCreated{
		BaseEvent:  events.NewBaseEvent(),
		ContractID: contract.ID,
		PitchID:    params.PitchID,
		AgentID:    params.AgentID,
		TeamID:     teamID,
	}); err != nil {
		return nil, err
	}
	return contract, nil
}

// Advance applies one lifecycle action to a contract on behalf of a party.
// The status write is conditional on the status the actor saw; losing the
// race surfaces as Conflict rather than silently double-applying.
func (s *Service) Advance(ctx context.Context, actorID uuid.UUID, actorType string, contractID uuid.UUID, action string) (*repository.Contract, error) {
	contract, err := s.repo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParty(contract, actorID, actorType); err != nil {
		return nil, err
	}

	next, err := domain.Next(contract.Status, action, actorType)
	if err != nil {
		return nil, err
	}

	var applied bool
	if err := retryOnce(ctx, func() error {
		var innerErr error
		applied, innerErr = s.repo.AdvanceStatus(ctx, contract.ID, contract.Status, next)
		return innerErr
	}); err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperr.Conflict("contract was modified concurrently, reload and retry")
	}

	oldStatus := contract.Status
	contract.Status = next
	contract.UpdatedAt = time.Now()

	s.bus.Publish(ctx, events.ContractAdvanced{
		BaseEvent:  events.NewBaseEvent(),
		ContractID: contract.ID,
		PitchID:    contract.PitchID,
		AgentID:    contract.AgentID,
		TeamID:     contract.TeamID,
		ActorID:    actorID,
		ActorType:  actorType,
		Action:     action,
		OldStatus:  oldStatus,
		NewStatus:  next,
	})
	if next == domain.StatusCompleted {
		// Completion closes the owning pitch, and nothing ever republishes
		// this event, so the close must happen before the response leaves.
		if err := s.bus.PublishSync(ctx, events.ContractCompleted{
			BaseEvent:  events.NewBaseEvent(),
			ContractID: contract.ID,
			PitchID:    contract.PitchID,
			AgentID:    contract.AgentID,
			TeamID:     contract.TeamID,
		}); err != nil {
			return nil, err
		}
	}
	return contract, nil
}

// UpdateTerms edits the terms of a draft contract. Team only.
func (s *Service) UpdateTerms(ctx context.Context, teamID, contractID uuid.UUID, terms string, feeCents int64) (*repository.Contract, error) {
	contract, err := s.repo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.TeamID != teamID {
		return nil, apperr.Forbidden("contract belongs to another team")
	}
	if err := retryOnce(ctx, func() error {
		return s.repo.UpdateTerms(ctx, contractID, terms, feeCents)
	}); err != nil {
		return nil, err
	}
	contract.Terms = terms
	contract.FeeCents = feeCents
	contract.UpdatedAt = time.Now()
	return contract, nil
}

// GetByID retrieves a contract, restricted to its two parties.
func (s *Service) GetByID(ctx context.Context, actorID uuid.UUID, actorType string, contractID uuid.UUID) (*repository.Contract, error) {
	contract, err := s.repo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParty(contract, actorID, actorType); err != nil {
		return nil, err
	}
	return contract, nil
}

// ListForOwner lists the contracts the caller is party to.
func (s *Service) ListForOwner(ctx context.Context, actorID uuid.UUID, actorType string) ([]repository.Contract, error) {
	if actorType == domain.ActorAgent {
		return s.repo.ListForAgent(ctx, actorID)
	}
	return s.repo.ListForTeam(ctx, actorID)
}

// ListForPitch lists all contracts for a pitch. Only the owning team.
func (s *Service) ListForPitch(ctx context.Context, teamID, pitchID uuid.UUID) ([]repository.Contract, error) {
	pitch, err := s.pitches.GetByID(ctx, pitchID)
	if err != nil {
		return nil, err
	}
	if pitch.TeamID != teamID {
		return nil, apperr.Forbidden("pitch belongs to another team")
	}
	return s.repo.ListForPitch(ctx, pitchID)
}

func (s *Service) authorizeParty(contract *repository.Contract, actorID uuid.UUID, actorType string) error {
	switch actorType {
	case domain.ActorTeam:
		if contract.TeamID != actorID {
			return apperr.Forbidden("contract belongs to another team")
		}
	case domain.ActorAgent:
		if contract.AgentID != actorID {
			return apperr.Forbidden("contract belongs to another agent")
		}
	default:
		return apperr.Forbidden("unknown party type")
	}
	return nil
}

func retryOnce(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !apperr.Is(err, apperr.KindUnavailable) {
		return err
	}
	select {
	case <-ctx.Done():
		return err
	case <-time.After(retryDelay):
	}
	return fn()
}
