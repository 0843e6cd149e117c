package repository

import (
	"context"

	"github.com/google/uuid"
)

// MessagesRepository abstracts message storage so the dispatcher can be
// tested against in-memory fakes.
type MessagesRepository interface {
	Create(ctx context.Context, m *Message) error
	CreateFirstTouch(ctx context.Context, m *Message) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)
	ListForPitch(ctx context.Context, pitchID, profileID uuid.UUID) ([]Message, error)
	ListInbox(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Message, error)
}

// Compile-time check that Repository implements MessagesRepository.
var _ MessagesRepository = (*Repository)(nil)
