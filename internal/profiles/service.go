package profiles

import (
	"context"
	"time"

	"transferdesk_backend/platform/apperr"
	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// Store abstracts profile storage for the service.
type Store interface {
	GetAgent(ctx context.Context, id uuid.UUID) (*AgentProfile, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*TeamProfile, error)
	InsertAgent(ctx context.Context, p *AgentProfile) (bool, error)
	InsertTeam(ctx context.Context, p *TeamProfile) (bool, error)
	UpdateAgent(ctx context.Context, p *AgentProfile) error
	UpdateTeam(ctx context.Context, p *TeamProfile) error
}

var _ Store = (*Repository)(nil)

// Service provides profile lookup and tolerant auto-provisioning. A valid
// access token is proof enough of existence: a caller whose profile row is
// missing gets a placeholder row instead of an error, so workflow writes
// never fail on a profile sync gap. Every auto-provisioned profile is logged.
type Service struct {
	store Store
	log   *logger.Logger
}

// NewService creates a profiles service.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// EnsureAgent returns the agent profile, creating a placeholder if missing.
func (s *Service) EnsureAgent(ctx context.Context, id uuid.UUID) (*AgentProfile, error) {
	p, err := s.store.GetAgent(ctx, id)
	if err == nil {
		return p, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	now := time.Now()
	placeholder := &AgentProfile{ID: id, DisplayName: "Agent " + shortID(id), CreatedAt: now, UpdatedAt: now}
	created, err := s.store.InsertAgent(ctx, placeholder)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("auto-provisioned agent profile", "agentId", id)
		return placeholder, nil
	}
	// Lost the insert race; the row exists now.
	return s.store.GetAgent(ctx, id)
}

// EnsureTeam returns the team profile, creating a placeholder if missing.
func (s *Service) EnsureTeam(ctx context.Context, id uuid.UUID) (*TeamProfile, error) {
	p, err := s.store.GetTeam(ctx, id)
	if err == nil {
		return p, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	now := time.Now()
	placeholder := &TeamProfile{ID: id, DisplayName: "Team " + shortID(id), CreatedAt: now, UpdatedAt: now}
	created, err := s.store.InsertTeam(ctx, placeholder)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("auto-provisioned team profile", "teamId", id)
		return placeholder, nil
	}
	return s.store.GetTeam(ctx, id)
}

// GetAgent returns the agent profile without provisioning.
func (s *Service) GetAgent(ctx context.Context, id uuid.UUID) (*AgentProfile, error) {
	return s.store.GetAgent(ctx, id)
}

// GetTeam returns the team profile without provisioning.
func (s *Service) GetTeam(ctx context.Context, id uuid.UUID) (*TeamProfile, error) {
	return s.store.GetTeam(ctx, id)
}

// UpdateAgent updates an agent profile's display fields.
func (s *Service) UpdateAgent(ctx context.Context, p *AgentProfile) error {
	return s.store.UpdateAgent(ctx, p)
}

// UpdateTeam updates a team profile's display fields.
func (s *Service) UpdateTeam(ctx context.Context, p *TeamProfile) error {
	return s.store.UpdateTeam(ctx, p)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
