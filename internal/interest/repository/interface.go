package repository

import (
	"context"

	"github.com/google/uuid"
)

// InterestRepository abstracts interest storage so the service can be tested
// against in-memory fakes.
type InterestRepository interface {
	Create(ctx context.Context, i *Interest) error
	GetByID(ctx context.Context, id uuid.UUID) (*Interest, error)
	GetByPitchAndAgent(ctx context.Context, pitchID, agentID uuid.UUID) (*Interest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, message string) error
	SetNegotiating(ctx context.Context, pitchID, agentID uuid.UUID) error
	ListForPitch(ctx context.Context, pitchID uuid.UUID) ([]Interest, error)
	ListForAgent(ctx context.Context, agentID uuid.UUID) ([]Interest, error)
}

// Compile-time check that Repository implements InterestRepository.
var _ InterestRepository = (*Repository)(nil)
