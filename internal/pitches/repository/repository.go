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
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Pitch is the database model for a team's transfer pitch.
type Pitch struct {
	ID               uuid.UUID  `db:"id"`
	TeamID           uuid.UUID  `db:"team_id"`
	PlayerID         uuid.UUID  `db:"player_id"`
	Status           string     `db:"status"`
	DealStage        string     `db:"deal_stage"`
	AskingPriceCents int64      `db:"asking_price_cents"`
	Currency         string     `db:"currency"`
	ExpiresAt        *time.Time `db:"expires_at"`
	ViewCount        int64      `db:"view_count"`
	MessageCount     int64      `db:"message_count"`
	ShortlistCount   int64      `db:"shortlist_count"`
	InterestCount    int64      `db:"interest_count"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// IsAvailable reports whether the pitch can still receive interest.
func (p *Pitch) IsAvailable(now time.Time) bool {
	if p.Status != domain.StatusActive {
		return false
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return false
	}
	return true
}

// ExpiredPitch identifies a pitch flipped to expired by the sweep.
type ExpiredPitch struct {
	ID     uuid.UUID
	TeamID uuid.UUID
}

// ListParams contains parameters for listing pitches.
type ListParams struct {
	TeamID    *uuid.UUID
	Status    *string
	DealStage *string
	Page      int
	PageSize  int
}

// ListResult contains the paginated result of listing pitches.
type ListResult struct {
	Items      []Pitch
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// ── Repository ────────────────────────────────────────────────────────────────

const pitchNotFoundMsg = "pitch not found"

const pitchColumns = `id, team_id, player_id, status, deal_stage, asking_price_cents, currency,
		expires_at, view_count, message_count, shortlist_count, interest_count, created_at, updated_at`

// Repository provides database operations for pitches.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new pitches repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new pitch.
func (r *Repository) Create(ctx context.Context, p *Pitch) error {
	query := `
		INSERT INTO TM_pitches (
			id, team_id, player_id, status, deal_stage, asking_price_cents, currency,
			expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := r.pool.Exec(ctx, query,
		p.ID, p.TeamID, p.PlayerID, p.Status, p.DealStage, p.AskingPriceCents, p.Currency,
		p.ExpiresAt, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return apperr.Unavailable("failed to insert pitch", err)
	}
	return nil
}

// GetByID retrieves a pitch by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Pitch, error) {
	var p Pitch
	query := `SELECT ` + pitchColumns + ` FROM TM_pitches WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.TeamID, &p.PlayerID, &p.Status, &p.DealStage, &p.AskingPriceCents, &p.Currency,
		&p.ExpiresAt, &p.ViewCount, &p.MessageCount, &p.ShortlistCount, &p.InterestCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(pitchNotFoundMsg)
		}
		return nil, apperr.Unavailable("failed to get pitch", err)
	}
	return &p, nil
}

// AdvanceDealStage performs a conditional stage update: the stage is set to
// `to` only when it still equals `from`. Returns false (not an error) when a
// concurrent writer won the race, so callers can re-read and decide.
func (r *Repository) AdvanceDealStage(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	query := `UPDATE TM_pitches SET deal_stage = $3, updated_at = $4 WHERE id = $1 AND deal_stage = $2`
	result, err := r.pool.Exec(ctx, query, id, from, to, time.Now())
	if err != nil {
		return false, apperr.Unavailable("failed to advance deal stage", err)
	}
	return result.RowsAffected() > 0, nil
}

// SetCompleted closes a pitch terminally: both status and deal stage become
// completed. Idempotent.
func (r *Repository) SetCompleted(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE TM_pitches SET status = $2, deal_stage = $3, updated_at = $4 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, domain.StatusCompleted, domain.DealStageCompleted, time.Now())
	if err != nil {
		return apperr.Unavailable("failed to complete pitch", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(pitchNotFoundMsg)
	}
	return nil
}

// Withdraw marks a pitch withdrawn. Only the owning team may withdraw, and
// only while the pitch is still active.
func (r *Repository) Withdraw(ctx context.Context, id, teamID uuid.UUID) error {
	query := `UPDATE TM_pitches SET status = $3, updated_at = $4
		WHERE id = $1 AND team_id = $2 AND status = $5`
	result, err := r.pool.Exec(ctx, query, id, teamID, domain.StatusWithdrawn, time.Now(), domain.StatusActive)
	if err != nil {
		return apperr.Unavailable("failed to withdraw pitch", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Conflict("pitch is not active or not owned by this team")
	}
	return nil
}

// MarkExpired flips active pitches past their expiry to expired status and
// stage, returning the affected pitches so expiry events can be published.
func (r *Repository) MarkExpired(ctx context.Context, now time.Time) ([]ExpiredPitch, error) {
	query := `
		UPDATE TM_pitches SET status = $2, deal_stage = $3, updated_at = $1
		WHERE status = $4 AND expires_at IS NOT NULL AND expires_at <= $1
		RETURNING id, team_id`

	rows, err := r.pool.Query(ctx, query, now, domain.StatusExpired, domain.DealStageExpired, domain.StatusActive)
	if err != nil {
		return nil, apperr.Unavailable("failed to mark expired pitches", err)
	}
	defer rows.Close()

	var expired []ExpiredPitch
	for rows.Next() {
		var e ExpiredPitch
		if err := rows.Scan(&e.ID, &e.TeamID); err != nil {
			return nil, fmt.Errorf("failed to scan expired pitch: %w", err)
		}
		expired = append(expired, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expired pitches: %w", err)
	}
	return expired, nil
}

// counterColumns whitelists the denormalized counter fields.
var counterColumns = map[string]string{
	"views":      "view_count",
	"messages":   "message_count",
	"shortlists": "shortlist_count",
	"interest":   "interest_count",
}

// ApplyCounterDeltas applies accumulated counter deltas to a pitch. Counters
// are eventually consistent and clamped at zero; they never gate a state
// transition.
func (r *Repository) ApplyCounterDeltas(ctx context.Context, id uuid.UUID, deltas map[string]int64) error {
	for field, delta := range deltas {
		column, ok := counterColumns[field]
		if !ok || delta == 0 {
			continue
		}
		query := fmt.Sprintf(`UPDATE TM_pitches SET %s = GREATEST(0, %s + $2) WHERE id = $1`, column, column)
		if _, err := r.pool.Exec(ctx, query, id, delta); err != nil {
			return apperr.Unavailable("failed to apply counter delta", err)
		}
	}
	return nil
}

// AddShortlist records a shortlist entry. Returns false when the entry
// already existed (repeated clicks are no-ops).
func (r *Repository) AddShortlist(ctx context.Context, agentID, pitchID uuid.UUID) (bool, error) {
	query := `INSERT INTO TM_shortlists (agent_id, pitch_id, created_at)
		VALUES ($1, $2, $3) ON CONFLICT (agent_id, pitch_id) DO NOTHING`
	result, err := r.pool.Exec(ctx, query, agentID, pitchID, time.Now())
	if err != nil {
		return false, apperr.Unavailable("failed to add shortlist entry", err)
	}
	return result.RowsAffected() > 0, nil
}

// RemoveShortlist deletes a shortlist entry. Returns false when no entry existed.
func (r *Repository) RemoveShortlist(ctx context.Context, agentID, pitchID uuid.UUID) (bool, error) {
	query := `DELETE FROM TM_shortlists WHERE agent_id = $1 AND pitch_id = $2`
	result, err := r.pool.Exec(ctx, query, agentID, pitchID)
	if err != nil {
		return false, apperr.Unavailable("failed to remove shortlist entry", err)
	}
	return result.RowsAffected() > 0, nil
}

// List retrieves pitches with filtering and pagination.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	var teamParam interface{}
	if params.TeamID != nil {
		teamParam = *params.TeamID
	}
	var statusParam interface{}
	if params.Status != nil {
		statusParam = *params.Status
	}
	var stageParam interface{}
	if params.DealStage != nil {
		stageParam = *params.DealStage
	}

	baseQuery := `
		FROM TM_pitches
		WHERE ($1::uuid IS NULL OR team_id = $1)
			AND ($2::text IS NULL OR status = $2)
			AND ($3::text IS NULL OR deal_stage = $3)
	`
	args := []interface{}{teamParam, statusParam, stageParam}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, apperr.Unavailable("failed to count pitches", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	offset := (params.Page - 1) * params.PageSize

	selectQuery := `SELECT ` + pitchColumns + baseQuery + `
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, apperr.Unavailable("failed to list pitches", err)
	}
	defer rows.Close()

	var items []Pitch
	for rows.Next() {
		var p Pitch
		if err := rows.Scan(
			&p.ID, &p.TeamID, &p.PlayerID, &p.Status, &p.DealStage, &p.AskingPriceCents, &p.Currency,
			&p.ExpiresAt, &p.ViewCount, &p.MessageCount, &p.ShortlistCount, &p.InterestCount,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pitch: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pitches: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}
