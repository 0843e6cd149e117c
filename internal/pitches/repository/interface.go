package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PitchesRepository abstracts pitch storage so services and the negotiation
// orchestrator can be tested against in-memory fakes.
type PitchesRepository interface {
	Create(ctx context.Context, p *Pitch) error
	GetByID(ctx context.Context, id uuid.UUID) (*Pitch, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	AdvanceDealStage(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	SetCompleted(ctx context.Context, id uuid.UUID) error
	Withdraw(ctx context.Context, id, teamID uuid.UUID) error
	MarkExpired(ctx context.Context, now time.Time) ([]ExpiredPitch, error)
	ApplyCounterDeltas(ctx context.Context, id uuid.UUID, deltas map[string]int64) error
	AddShortlist(ctx context.Context, agentID, pitchID uuid.UUID) (bool, error)
	RemoveShortlist(ctx context.Context, agentID, pitchID uuid.UUID) (bool, error)
}

// Compile-time check that Repository implements PitchesRepository.
var _ PitchesRepository = (*Repository)(nil)
