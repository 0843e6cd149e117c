// Package repository provides storage for the agent interest ledger.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transferdesk_backend/internal/pitches/domain"
	"transferdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Interest is the database model for an agent's stance on a pitch.
// At most one row exists per (pitch, agent) pair; withdrawn and rejected rows
// are retained for audit and flipped back on reactivation.
type Interest struct {
	ID        uuid.UUID `db:"id"`
	PitchID   uuid.UUID `db:"pitch_id"`
	AgentID   uuid.UUID `db:"agent_id"`
	Status    string    `db:"status"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const interestNotFoundMsg = "interest not found"

const interestColumns = `id, pitch_id, agent_id, status, message, created_at, updated_at`

// Repository provides database operations for agent interest.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new interest repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new interest row. A unique violation on (pitch_id,
// agent_id) maps to Conflict so the service can fall back to the update path
// when two expressions race.
func (r *Repository) Create(ctx context.Context, i *Interest) error {
	query := `
		INSERT INTO TM_agent_interest (id, pitch_id, agent_id, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query, i.ID, i.PitchID, i.AgentID, i.Status, i.Message, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("interest already exists for this agent and pitch")
		}
		return apperr.Unavailable("failed to insert interest", err)
	}
	return nil
}

// GetByID retrieves an interest row by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Interest, error) {
	var i Interest
	query := `SELECT ` + interestColumns + ` FROM TM_agent_interest WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&i.ID, &i.PitchID, &i.AgentID, &i.Status, &i.Message, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(interestNotFoundMsg)
		}
		return nil, apperr.Unavailable("failed to get interest", err)
	}
	return &i, nil
}

// GetByPitchAndAgent retrieves the single interest row for a pair.
func (r *Repository) GetByPitchAndAgent(ctx context.Context, pitchID, agentID uuid.UUID) (*Interest, error) {
	var i Interest
	query := `SELECT ` + interestColumns + ` FROM TM_agent_interest WHERE pitch_id = $1 AND agent_id = $2`
	err := r.pool.QueryRow(ctx, query, pitchID, agentID).Scan(
		&i.ID, &i.PitchID, &i.AgentID, &i.Status, &i.Message, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(interestNotFoundMsg)
		}
		return nil, apperr.Unavailable("failed to get interest", err)
	}
	return &i, nil
}

// UpdateStatus updates the status and message of an interest row in place.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status, message string) error {
	query := `UPDATE TM_agent_interest SET status = $2, message = $3, updated_at = $4 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, status, message, time.Now())
	if err != nil {
		return apperr.Unavailable("failed to update interest", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(interestNotFoundMsg)
	}
	return nil
}

// SetNegotiating upserts the pair into negotiating status. Used when a
// contract is generated: the counterpart interest row must exist and reflect
// the negotiation.
func (r *Repository) SetNegotiating(ctx context.Context, pitchID, agentID uuid.UUID) error {
	now := time.Now()
	query := `
		INSERT INTO TM_agent_interest (id, pitch_id, agent_id, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '', $5, $5)
		ON CONFLICT (pitch_id, agent_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`

	if _, err := r.pool.Exec(ctx, query, uuid.New(), pitchID, agentID, domain.InterestStatusNegotiating, now); err != nil {
		return apperr.Unavailable("failed to mark interest negotiating", err)
	}
	return nil
}

// ListForPitch retrieves all interest rows for a pitch, newest first.
func (r *Repository) ListForPitch(ctx context.Context, pitchID uuid.UUID) ([]Interest, error) {
	query := `SELECT ` + interestColumns + ` FROM TM_agent_interest WHERE pitch_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, pitchID)
}

// ListForAgent retrieves all interest rows an agent holds, newest first.
func (r *Repository) ListForAgent(ctx context.Context, agentID uuid.UUID) ([]Interest, error) {
	query := `SELECT ` + interestColumns + ` FROM TM_agent_interest WHERE agent_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, agentID)
}

func (r *Repository) list(ctx context.Context, query string, arg interface{}) ([]Interest, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, apperr.Unavailable("failed to list interest", err)
	}
	defer rows.Close()

	var items []Interest
	for rows.Next() {
		var i Interest
		if err := rows.Scan(&i.ID, &i.PitchID, &i.AgentID, &i.Status, &i.Message, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interest: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interest: %w", err)
	}
	return items, nil
}
