// Package service implements pitch lifecycle operations: publishing,
// listing, withdrawal, shortlisting and the expiry sweep.
package service

import (
	"context"
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

// Service provides pitch business operations.
type Service struct {
	repo     repository.PitchesRepository
	profiles *profiles.Service
	counters *counters.Service
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new pitches service.
func New(repo repository.PitchesRepository, profilesSvc *profiles.Service, countersSvc *counters.Service, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, profiles: profilesSvc, counters: countersSvc, bus: bus, log: log}
}

// Create publishes a new pitch for the calling team. The pitch starts in the
// base deal stage and, when an expiry is set, it must lie in the future.
func (s *Service) Create(ctx context.Context, teamID uuid.UUID, req transport.CreatePitchRequest) (*repository.Pitch, error) {
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now()) {
		return nil, apperr.Validation("expiresAt must be in the future")
	}

	if _, err := s.profiles.EnsureTeam(ctx, teamID); err != nil {
		return nil, err
	}

	now := time.Now()
	pitch := &repository.Pitch{
		ID:               uuid.New(),
		TeamID:           teamID,
		PlayerID:         req.PlayerID,
		Status:           domain.StatusActive,
		DealStage:        domain.DealStagePitch,
		AskingPriceCents: req.AskingPriceCents,
		Currency:         req.Currency,
		ExpiresAt:        req.ExpiresAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, pitch); err != nil {
		return nil, err
	}
	return pitch, nil
}

// GetByID retrieves a pitch.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*repository.Pitch, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves pitches with filtering and pagination.
func (s *Service) List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error) {
	return s.repo.List(ctx, params)
}

// RecordView bumps the view counter for a pitch. Best-effort; never blocks
// the read path on the counter store.
func (s *Service) RecordView(ctx context.Context, id uuid.UUID) {
	s.counters.Bump(ctx, id, counters.FieldViews, 1)
}

// Withdraw takes an active pitch off the market. Only the owning team may
// withdraw it.
func (s *Service) Withdraw(ctx context.Context, id, teamID uuid.UUID) error {
	return s.repo.Withdraw(ctx, id, teamID)
}

// Shortlist records the agent's shortlist entry for a pitch. Repeated calls
// are no-ops and do not inflate the counter.
func (s *Service) Shortlist(ctx context.Context, agentID, pitchID uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, pitchID); err != nil {
		return err
	}
	if _, err := s.profiles.EnsureAgent(ctx, agentID); err != nil {
		return err
	}

	added, err := s.repo.AddShortlist(ctx, agentID, pitchID)
	if err != nil {
		return err
	}
	if added {
		s.counters.Bump(ctx, pitchID, counters.FieldShortlists, 1)
	}
	return nil
}

// Unshortlist removes the agent's shortlist entry for a pitch.
func (s *Service) Unshortlist(ctx context.Context, agentID, pitchID uuid.UUID) error {
	removed, err := s.repo.RemoveShortlist(ctx, agentID, pitchID)
	if err != nil {
		return err
	}
	if removed {
		s.counters.Bump(ctx, pitchID, counters.FieldShortlists, -1)
	}
	return nil
}

// SweepExpired flips active pitches past their expiry and publishes a
// PitchExpired event per pitch. Returns the number of pitches expired.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.MarkExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	for _, e := range expired {
		s.bus.Publish(ctx, events.PitchExpired{
			BaseEvent: events.NewBaseEvent(),
			PitchID:   e.ID,
			TeamID:    e.TeamID,
		})
	}
	if len(expired) > 0 {
		s.log.Info("expiry sweep flipped pitches", "count", len(expired))
	}
	return len(expired), nil
}
