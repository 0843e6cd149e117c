// Package service implements the agent interest ledger: expressing,
// updating, reactivating and cancelling interest in pitches.
package service

import (
	"context"
	"time"

	"transferdesk_backend/internal/events"
	"transferdesk_backend/internal/interest/repository"
	"transferdesk_backend/internal/pitches/counters"
	"transferdesk_backend/internal/pitches/domain"
	pitchrepo "transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/internal/profiles"
	"transferdesk_backend/platform/apperr"
	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// retryDelay is the pause before the single retry of a failed storage call.
const retryDelay = 200 * time.Millisecond

// PitchReader provides read access to pitches.
type PitchReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*pitchrepo.Pitch, error)
}

// ProfileProvisioner ensures the agent profile row exists before writes
// reference it.
type ProfileProvisioner interface {
	EnsureAgent(ctx context.Context, id uuid.UUID) (*profiles.AgentProfile, error)
}

// CounterBumper accumulates pitch counter deltas. Best-effort.
type CounterBumper interface {
	Bump(ctx context.Context, pitchID uuid.UUID, field string, delta int64)
}

// Service provides interest business operations.
type Service struct {
	repo     repository.InterestRepository
	pitches  PitchReader
	profiles ProfileProvisioner
	counters CounterBumper
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new interest service.
func New(repo repository.InterestRepository, pitches PitchReader, profilesSvc ProfileProvisioner, countersSvc CounterBumper, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, pitches: pitches, profiles: profilesSvc, counters: countersSvc, bus: bus, log: log}
}

// ExpressParams carries the agent's stance on a pitch.
type ExpressParams struct {
	PitchID uuid.UUID
	Status  string
	Message string
}

// Express records or updates the agent's stance on a pitch. The (pitch,
// agent) pair holds at most one row: a first expression inserts, a repeat
// updates in place, and a repeat after withdrawal or rejection reactivates.
// Reactivation may only land on interested or requested.
func (s *Service) Express(ctx context.Context, agentID uuid.UUID, params ExpressParams) (*repository.Interest, error) {
	status := params.Status
	if status == "" {
		status = domain.InterestStatusInterested
	}
	if !domain.IsActiveInterestStatus(status) {
		return nil, apperr.Validation("status must be interested, requested or negotiating")
	}

	pitch, err := s.pitches.GetByID(ctx, params.PitchID)
	if err != nil {
		return nil, err
	}
	if domain.IsClosed(pitch.Status) {
		return nil, apperr.Gone("pitch is closed")
	}
	if !pitch.IsAvailable(time.Now()) {
		return nil, apperr.Gone("pitch is no longer available")
	}

	if _, err := s.profiles.EnsureAgent(ctx, agentID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByPitchAndAgent(ctx, params.PitchID, agentID)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		return s.create(ctx, pitch, agentID, status, params.Message)
	}
	return s.update(ctx, pitch, existing, status, params.Message)
}

func (s *Service) create(ctx context.Context, pitch *pitchrepo.Pitch, agentID uuid.UUID, status, message string) (*repository.Interest, error) {
	now := time.Now()
	row := &repository.Interest{
		ID:        uuid.New(),
		PitchID:   pitch.ID,
		AgentID:   agentID,
		Status:    status,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := retryOnce(ctx, func() error { return s.repo.Create(ctx, row) })
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			// Lost the insert race against a concurrent expression from the
			// same agent; fall back to the update path.
			existing, readErr := s.repo.GetByPitchAndAgent(ctx, pitch.ID, agentID)
			if readErr != nil {
				return nil, readErr
			}
			return s.update(ctx, pitch, existing, status, message)
		}
		return nil, err
	}

	s.counters.Bump(ctx, pitch.ID, counters.FieldInterest, 1)
	// Synchronous publish: the orchestrator must advance the deal stage
	// before this call returns.
	if err := s.bus.PublishSync(ctx, events.InterestCreated{
		BaseEvent:  events.NewBaseEvent(),
		InterestID: row.ID,
		PitchID:    pitch.ID,
		AgentID:    agentID,
		TeamID:     pitch.TeamID,
		Status:     status,
		Message:    message,
	}); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) update(ctx context.Context, pitch *pitchrepo.Pitch, existing *repository.Interest, status, message string) (*repository.Interest, error) {
	if existing.Status == status && existing.Message == message {
		// Idempotent repeat; nothing to write, nothing to notify.
		return existing, nil
	}

	reactivating := domain.IsTerminalInterestStatus(existing.Status)
	if reactivating && status == domain.InterestStatusNegotiating {
		return nil, apperr.InvalidTransition(existing.Status, "express negotiating")
	}

	if err := retryOnce(ctx, func() error {
		return s.repo.UpdateStatus(ctx, existing.ID, status, message)
	}); err != nil {
		return nil, err
	}

	oldStatus := existing.Status
	existing.Status = status
	existing.Message = message
	existing.UpdatedAt = time.Now()

	// Synchronous publish either way: both events can move the deal stage.
	if reactivating {
		s.counters.Bump(ctx, pitch.ID, counters.FieldInterest, 1)
		if err := s.bus.PublishSync(ctx, events.InterestReactivated{
			BaseEvent:      events.NewBaseEvent(),
			InterestID:     existing.ID,
			PitchID:        pitch.ID,
			AgentID:        existing.AgentID,
			TeamID:         pitch.TeamID,
			PreviousStatus: oldStatus,
			Status:         status,
			Message:        message,
		}); err != nil {
			return nil, err
		}
	} else {
		if err := s.bus.PublishSync(ctx, events.InterestUpdated{
			BaseEvent:  events.NewBaseEvent(),
			InterestID: existing.ID,
			PitchID:    pitch.ID,
			AgentID:    existing.AgentID,
			TeamID:     pitch.TeamID,
			OldStatus:  oldStatus,
			Status:     status,
			Message:    message,
		}); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

// Cancel withdraws the agent's interest. Cancelling an already-terminal
// interest is a no-op, not an error. The optional note replaces the message
// as a withdrawal audit trail.
func (s *Service) Cancel(ctx context.Context, agentID, interestID uuid.UUID, note string) error {
	row, err := s.repo.GetByID(ctx, interestID)
	if err != nil {
		return err
	}
	if row.AgentID != agentID {
		return apperr.Forbidden("interest belongs to another agent")
	}
	if domain.IsTerminalInterestStatus(row.Status) {
		return nil
	}

	pitch, err := s.pitches.GetByID(ctx, row.PitchID)
	if err != nil {
		return err
	}
	if domain.IsClosed(pitch.Status) {
		return apperr.Gone("pitch is closed")
	}

	message := row.Message
	if note != "" {
		message = note
	}
	if err := retryOnce(ctx, func() error {
		return s.repo.UpdateStatus(ctx, row.ID, domain.InterestStatusWithdrawn, message)
	}); err != nil {
		return err
	}

	s.counters.Bump(ctx, pitch.ID, counters.FieldInterest, -1)
	s.bus.Publish(ctx, events.InterestWithdrawn{
		BaseEvent:  events.NewBaseEvent(),
		InterestID: row.ID,
		PitchID:    pitch.ID,
		AgentID:    agentID,
		TeamID:     pitch.TeamID,
	})
	return nil
}

// MarkNegotiating upserts the pair into negotiating status. Called when a
// contract is generated for the pair.
func (s *Service) MarkNegotiating(ctx context.Context, pitchID, agentID uuid.UUID) error {
	return retryOnce(ctx, func() error { return s.repo.SetNegotiating(ctx, pitchID, agentID) })
}

// GetByID retrieves an interest row.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*repository.Interest, error) {
	return s.repo.GetByID(ctx, id)
}

// ListForPitch lists interest on a pitch. Only the owning team may see it.
// Withdrawn and rejected rows are hidden unless includeTerminal is set.
func (s *Service) ListForPitch(ctx context.Context, teamID, pitchID uuid.UUID, includeTerminal bool) ([]repository.Interest, error) {
	pitch, err := s.pitches.GetByID(ctx, pitchID)
	if err != nil {
		return nil, err
	}
	if pitch.TeamID != teamID {
		return nil, apperr.Forbidden("pitch belongs to another team")
	}
	items, err := s.repo.ListForPitch(ctx, pitchID)
	if err != nil {
		return nil, err
	}
	return filterTerminal(items, includeTerminal), nil
}

// ListForAgent lists the calling agent's interest rows. Withdrawn and
// rejected rows are hidden unless includeTerminal is set.
func (s *Service) ListForAgent(ctx context.Context, agentID uuid.UUID, includeTerminal bool) ([]repository.Interest, error) {
	items, err := s.repo.ListForAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return filterTerminal(items, includeTerminal), nil
}

func filterTerminal(items []repository.Interest, includeTerminal bool) []repository.Interest {
	if includeTerminal {
		return items
	}
	out := items[:0]
	for _, i := range items {
		if !domain.IsTerminalInterestStatus(i.Status) {
			out = append(out, i)
		}
	}
	return out
}

// retryOnce retries a storage call a single time when it failed with a
// retryable unavailability. Conflicts and domain errors pass through.
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
