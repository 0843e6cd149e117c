// Package repository provides storage for pitch-scoped messages. Workflow
// kinds (interest, negotiation) are first-touch deduplicated per
// (sender, receiver, pitch, kind) by a partial unique index; general chat
// messages always insert.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transferdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Message kinds.
const (
	KindInterest    = "interest"
	KindNegotiation = "negotiation"
	KindGeneral     = "general"
)

// Message is the database model for a pitch-scoped message.
type Message struct {
	ID           uuid.UUID `db:"id"`
	PitchID      uuid.UUID `db:"pitch_id"`
	SenderID     uuid.UUID `db:"sender_id"`
	SenderType   string    `db:"sender_type"`
	ReceiverID   uuid.UUID `db:"receiver_id"`
	ReceiverType string    `db:"receiver_type"`
	Kind         string    `db:"kind"`
	Body         string    `db:"body"`
	CreatedAt    time.Time `db:"created_at"`
}

const messageColumns = `id, pitch_id, sender_id, sender_type, receiver_id, receiver_type, kind, body, created_at`

// Repository provides database operations for messages.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new messages repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a general message unconditionally.
func (r *Repository) Create(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO TM_messages (id, pitch_id, sender_id, sender_type, receiver_id, receiver_type, kind, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.PitchID, m.SenderID, m.SenderType, m.ReceiverID, m.ReceiverType, m.Kind, m.Body, m.CreatedAt,
	)
	if err != nil {
		return apperr.Unavailable("failed to insert message", err)
	}
	return nil
}

// CreateFirstTouch inserts a workflow message unless the same
// (sender, receiver, pitch, kind) tuple already has one. Returns false when
// the message was deduplicated. The existence check is an optimization; the
// partial unique index settles races, and a unique violation counts as dedup,
// not failure.
func (r *Repository) CreateFirstTouch(ctx context.Context, m *Message) (bool, error) {
	var exists bool
	checkQuery := `SELECT EXISTS (
		SELECT 1 FROM TM_messages
		WHERE sender_id = $1 AND receiver_id = $2 AND pitch_id = $3 AND kind = $4
	)`
	if err := r.pool.QueryRow(ctx, checkQuery, m.SenderID, m.ReceiverID, m.PitchID, m.Kind).Scan(&exists); err != nil {
		return false, apperr.Unavailable("failed to check for existing message", err)
	}
	if exists {
		return false, nil
	}

	query := `
		INSERT INTO TM_messages (id, pitch_id, sender_id, sender_type, receiver_id, receiver_type, kind, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.PitchID, m.SenderID, m.SenderType, m.ReceiverID, m.ReceiverType, m.Kind, m.Body, m.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		return false, apperr.Unavailable("failed to insert message", err)
	}
	return true, nil
}

// ListForPitch retrieves the messages on a pitch visible to a participant,
// oldest first.
func (r *Repository) ListForPitch(ctx context.Context, pitchID, profileID uuid.UUID) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM TM_messages
		WHERE pitch_id = $1 AND (sender_id = $2 OR receiver_id = $2)
		ORDER BY created_at ASC`
	return r.list(ctx, query, pitchID, profileID)
}

// ListInbox retrieves the messages addressed to a profile, newest first.
func (r *Repository) ListInbox(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Message, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	query := `SELECT ` + messageColumns + ` FROM TM_messages
		WHERE receiver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, profileID, limit, offset)
}

// GetByID retrieves a single message.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	var m Message
	query := `SELECT ` + messageColumns + ` FROM TM_messages WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.PitchID, &m.SenderID, &m.SenderType, &m.ReceiverID, &m.ReceiverType, &m.Kind, &m.Body, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Unavailable("failed to get message", err)
	}
	return &m, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]Message, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Unavailable("failed to list messages", err)
	}
	defer rows.Close()

	var items []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.PitchID, &m.SenderID, &m.SenderType, &m.ReceiverID, &m.ReceiverType, &m.Kind, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return items, nil
}
