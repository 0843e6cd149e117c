// Package inapp stores and serves in-app notifications, the only
// notification sink the marketplace ships.
package inapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transferdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate      = "messaging.inapp.repository.create"
	opList        = "messaging.inapp.repository.list"
	opCountUnread = "messaging.inapp.repository.count_unread"
	opMarkRead    = "messaging.inapp.repository.mark_read"
	opMarkAllRead = "messaging.inapp.repository.mark_all_read"

	errProfileIDRequired = "profileId is required"
)

type Notification struct {
	ID           uuid.UUID  `json:"id"`
	ProfileID    uuid.UUID  `json:"profileId"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	ResourceID   *uuid.UUID `json:"resourceId,omitempty"`
	ResourceType *string    `json:"resourceType,omitempty"`
	Category     string     `json:"category"`
	IsRead       bool       `json:"isRead"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type CreateParams struct {
	ProfileID    uuid.UUID
	Title        string
	Content      string
	ResourceID   *uuid.UUID
	ResourceType *string
	Category     string
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if p.ProfileID == uuid.Nil {
		return Notification{}, apperr.Validation(errProfileIDRequired).WithOp(opCreate)
	}
	if p.Title == "" || p.Content == "" {
		return Notification{}, apperr.Validation("title and content are required").WithOp(opCreate)
	}

	category := p.Category
	if category == "" {
		category = "info"
	}

	var n Notification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO TM_notifications
		(profile_id, title, content, resource_id, resource_type, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, profile_id, title, content, resource_id, resource_type, category, is_read, created_at
	`, p.ProfileID, p.Title, p.Content, p.ResourceID, p.ResourceType, category).Scan(
		&n.ID, &n.ProfileID, &n.Title, &n.Content, &n.ResourceID, &n.ResourceType, &n.Category, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Notification{}, apperr.Validation("invalid profileId").WithOp(opCreate)
		}
		return Notification{}, apperr.Internal(fmt.Sprintf("create notification failed: %v", err)).WithOp(opCreate)
	}
	return n, nil
}

func (r *Repository) List(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	if profileID == uuid.Nil {
		return nil, 0, apperr.Validation(errProfileIDRequired).WithOp(opList)
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM TM_notifications WHERE profile_id = $1`, profileID).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("count notifications failed: %v", err)).WithOp(opList)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, profile_id, title, content, resource_id, resource_type, category, is_read, created_at
		FROM TM_notifications
		WHERE profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, profileID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("list notifications failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.ProfileID, &n.Title, &n.Content, &n.ResourceID, &n.ResourceType, &n.Category, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, apperr.Internal(fmt.Sprintf("scan notification failed: %v", err)).WithOp(opList)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("iterate notifications failed: %v", err)).WithOp(opList)
	}
	return items, total, nil
}

func (r *Repository) CountUnread(ctx context.Context, profileID uuid.UUID) (int, error) {
	if profileID == uuid.Nil {
		return 0, apperr.Validation(errProfileIDRequired).WithOp(opCountUnread)
	}
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM TM_notifications WHERE profile_id = $1 AND is_read = FALSE`, profileID).Scan(&count)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("count unread failed: %v", err)).WithOp(opCountUnread)
	}
	return count, nil
}

func (r *Repository) MarkRead(ctx context.Context, profileID, notificationID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE TM_notifications SET is_read = TRUE WHERE id = $1 AND profile_id = $2
	`, notificationID, profileID)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark read failed: %v", err)).WithOp(opMarkRead)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("notification not found").WithOp(opMarkRead)
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, profileID uuid.UUID) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE TM_notifications SET is_read = TRUE WHERE profile_id = $1 AND is_read = FALSE
	`, profileID)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("mark all read failed: %v", err)).WithOp(opMarkAllRead)
	}
	return result.RowsAffected(), nil
}
