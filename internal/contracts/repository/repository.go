// Package repository provides storage for contracts. A partial unique index
// on TM_contracts(pitch_id) over non-terminal statuses enforces the
// one-active-contract rule at the database level; unique violations surface
// as Conflict.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transferdesk_backend/internal/contracts/domain"
	"transferdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Contract is the database model for a transfer contract.
type Contract struct {
	ID        uuid.UUID `db:"id"`
	PitchID   uuid.UUID `db:"pitch_id"`
	AgentID   uuid.UUID `db:"agent_id"`
	TeamID    uuid.UUID `db:"team_id"`
	Status    string    `db:"status"`
	Terms     string    `db:"terms"`
	FeeCents  int64     `db:"fee_cents"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const (
	contractNotFoundMsg  = "contract not found"
	duplicateContractMsg = "an active contract already exists for this pitch"
)

const contractColumns = `id, pitch_id, agent_id, team_id, status, terms, fee_cents, created_at, updated_at`

// Repository provides database operations for contracts.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new contracts repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new contract. A unique violation on the active-contract
// index maps to Conflict.
func (r *Repository) Create(ctx context.Context, c *Contract) error {
	query := `
		INSERT INTO TM_contracts (id, pitch_id, agent_id, team_id, status, terms, fee_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.PitchID, c.AgentID, c.TeamID, c.Status, c.Terms, c.FeeCents, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict(duplicateContractMsg)
		}
		return apperr.Unavailable("failed to insert contract", err)
	}
	return nil
}

// GetByID retrieves a contract by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Contract, error) {
	var c Contract
	query := `SELECT ` + contractColumns + ` FROM TM_contracts WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.PitchID, &c.AgentID, &c.TeamID, &c.Status, &c.Terms, &c.FeeCents, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(contractNotFoundMsg)
		}
		return nil, apperr.Unavailable("failed to get contract", err)
	}
	return &c, nil
}

// GetActiveByPitch retrieves the single non-terminal contract for a pitch,
// if any.
func (r *Repository) GetActiveByPitch(ctx context.Context, pitchID uuid.UUID) (*Contract, error) {
	var c Contract
	query := `SELECT ` + contractColumns + ` FROM TM_contracts
		WHERE pitch_id = $1 AND status NOT IN ($2, $3)`
	err := r.pool.QueryRow(ctx, query, pitchID, domain.StatusRejected, domain.StatusCompleted).Scan(
		&c.ID, &c.PitchID, &c.AgentID, &c.TeamID, &c.Status, &c.Terms, &c.FeeCents, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(contractNotFoundMsg)
		}
		return nil, apperr.Unavailable("failed to get active contract", err)
	}
	return &c, nil
}

// AdvanceStatus performs a conditional status update: the status is set to
// `to` only when it still equals `from`. Returns false when a concurrent
// writer moved the contract first. A unique violation means the transition
// would re-enter the active set while another active contract exists.
func (r *Repository) AdvanceStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	query := `UPDATE TM_contracts SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	result, err := r.pool.Exec(ctx, query, id, from, to, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, apperr.Conflict(duplicateContractMsg)
		}
		return false, apperr.Unavailable("failed to advance contract status", err)
	}
	return result.RowsAffected() > 0, nil
}

// UpdateTerms updates the terms and fee of a draft contract.
func (r *Repository) UpdateTerms(ctx context.Context, id uuid.UUID, terms string, feeCents int64) error {
	query := `UPDATE TM_contracts SET terms = $2, fee_cents = $3, updated_at = $4 WHERE id = $1 AND status = $5`
	result, err := r.pool.Exec(ctx, query, id, terms, feeCents, time.Now(), domain.StatusDraft)
	if err != nil {
		return apperr.Unavailable("failed to update contract terms", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Conflict("contract terms can only be edited in draft")
	}
	return nil
}

// ListForPitch retrieves all contracts for a pitch, newest first.
func (r *Repository) ListForPitch(ctx context.Context, pitchID uuid.UUID) ([]Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM TM_contracts WHERE pitch_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, pitchID)
}

// ListForAgent retrieves all contracts involving an agent, newest first.
func (r *Repository) ListForAgent(ctx context.Context, agentID uuid.UUID) ([]Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM TM_contracts WHERE agent_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, agentID)
}

// ListForTeam retrieves all contracts a team issued, newest first.
func (r *Repository) ListForTeam(ctx context.Context, teamID uuid.UUID) ([]Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM TM_contracts WHERE team_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, teamID)
}

func (r *Repository) list(ctx context.Context, query string, arg interface{}) ([]Contract, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, apperr.Unavailable("failed to list contracts", err)
	}
	defer rows.Close()

	var items []Contract
	for rows.Next() {
		var c Contract
		if err := rows.Scan(&c.ID, &c.PitchID, &c.AgentID, &c.TeamID, &c.Status, &c.Terms, &c.FeeCents, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contracts: %w", err)
	}
	return items, nil
}
