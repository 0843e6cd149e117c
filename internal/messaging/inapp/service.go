package inapp

import (
	"context"

	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// Store abstracts notification storage for the service and the dispatcher.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
	List(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, profileID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, profileID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, profileID uuid.UUID) (int64, error)
}

var _ Store = (*Repository)(nil)

// Service wraps notification storage. Notify is best-effort: a failed
// notification write is logged, never propagated, so the workflow that
// triggered it cannot fail on the notification path.
type Service struct {
	store Store
	log   *logger.Logger
}

// NewService creates an in-app notification service.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Notify writes a notification, swallowing errors after logging them.
func (s *Service) Notify(ctx context.Context, p CreateParams) {
	if _, err := s.store.Create(ctx, p); err != nil {
		s.log.Error("failed to create notification", "error", err, "profileId", p.ProfileID, "category", p.Category)
	}
}

// List returns a profile's notifications with the total count.
func (s *Service) List(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	return s.store.List(ctx, profileID, limit, offset)
}

// CountUnread returns how many notifications are unread.
func (s *Service) CountUnread(ctx context.Context, profileID uuid.UUID) (int, error) {
	return s.store.CountUnread(ctx, profileID)
}

// MarkRead marks one notification read.
func (s *Service) MarkRead(ctx context.Context, profileID, notificationID uuid.UUID) error {
	return s.store.MarkRead(ctx, profileID, notificationID)
}

// MarkAllRead marks all of a profile's notifications read.
func (s *Service) MarkAllRead(ctx context.Context, profileID uuid.UUID) (int64, error) {
	return s.store.MarkAllRead(ctx, profileID)
}
