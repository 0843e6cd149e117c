// Package profiles stores the thin agent and team profile records the
// marketplace keys its foreign keys on. Identity lives in an external auth
// provider; profiles only mirror the IDs the access token asserts.
package profiles

import (
	"context"
	"errors"
	"time"

	"transferdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AgentProfile is the database model for an agent profile.
type AgentProfile struct {
	ID          uuid.UUID `db:"id"`
	DisplayName string    `db:"display_name"`
	Agency      string    `db:"agency"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// TeamProfile is the database model for a team profile.
type TeamProfile struct {
	ID          uuid.UUID `db:"id"`
	DisplayName string    `db:"display_name"`
	League      string    `db:"league"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Repository provides database operations for profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new profiles repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetAgent retrieves an agent profile by ID.
func (r *Repository) GetAgent(ctx context.Context, id uuid.UUID) (*AgentProfile, error) {
	var p AgentProfile
	query := `SELECT id, display_name, agency, created_at, updated_at FROM TM_agent_profiles WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.DisplayName, &p.Agency, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("agent profile not found")
		}
		return nil, apperr.Unavailable("failed to get agent profile", err)
	}
	return &p, nil
}

// GetTeam retrieves a team profile by ID.
func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*TeamProfile, error) {
	var p TeamProfile
	query := `SELECT id, display_name, league, created_at, updated_at FROM TM_team_profiles WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.DisplayName, &p.League, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("team profile not found")
		}
		return nil, apperr.Unavailable("failed to get team profile", err)
	}
	return &p, nil
}

// InsertAgent inserts an agent profile if none exists. Returns true when a
// row was created.
func (r *Repository) InsertAgent(ctx context.Context, p *AgentProfile) (bool, error) {
	query := `INSERT INTO TM_agent_profiles (id, display_name, agency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`
	result, err := r.pool.Exec(ctx, query, p.ID, p.DisplayName, p.Agency, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return false, apperr.Unavailable("failed to insert agent profile", err)
	}
	return result.RowsAffected() > 0, nil
}

// InsertTeam inserts a team profile if none exists. Returns true when a row
// was created.
func (r *Repository) InsertTeam(ctx context.Context, p *TeamProfile) (bool, error) {
	query := `INSERT INTO TM_team_profiles (id, display_name, league, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`
	result, err := r.pool.Exec(ctx, query, p.ID, p.DisplayName, p.League, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return false, apperr.Unavailable("failed to insert team profile", err)
	}
	return result.RowsAffected() > 0, nil
}

// UpdateAgent updates the mutable fields of an agent profile.
func (r *Repository) UpdateAgent(ctx context.Context, p *AgentProfile) error {
	query := `UPDATE TM_agent_profiles SET display_name = $2, agency = $3, updated_at = $4 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, p.ID, p.DisplayName, p.Agency, time.Now())
	if err != nil {
		return apperr.Unavailable("failed to update agent profile", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("agent profile not found")
	}
	return nil
}

// UpdateTeam updates the mutable fields of a team profile.
func (r *Repository) UpdateTeam(ctx context.Context, p *TeamProfile) error {
	query := `UPDATE TM_team_profiles SET display_name = $2, league = $3, updated_at = $4 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, p.ID, p.DisplayName, p.League, time.Now())
	if err != nil {
		return apperr.Unavailable("failed to update team profile", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("team profile not found")
	}
	return nil
}
