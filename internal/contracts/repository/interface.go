package repository

import (
	"context"

	"github.com/google/uuid"
)

// ContractsRepository abstracts contract storage so the service can be
// tested against in-memory fakes.
type ContractsRepository interface {
	Create(ctx context.Context, c *Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	GetActiveByPitch(ctx context.Context, pitchID uuid.UUID) (*Contract, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	UpdateTerms(ctx context.Context, id uuid.UUID, terms string, feeCents int64) error
	ListForPitch(ctx context.Context, pitchID uuid.UUID) ([]Contract, error)
	ListForAgent(ctx context.Context, agentID uuid.UUID) ([]Contract, error)
	ListForTeam(ctx context.Context, teamID uuid.UUID) ([]Contract, error)
}

// Compile-time check that Repository implements ContractsRepository.
var _ ContractsRepository = (*Repository)(nil)
