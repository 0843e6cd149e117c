// Package messages implements the user-facing message thread on a pitch.
package messages

import (
	"context"
	"time"

	"transferdesk_backend/internal/messaging/inapp"
	"transferdesk_backend/internal/messaging/repository"
	"transferdesk_backend/internal/pitches/counters"
	"transferdesk_backend/internal/pitches/domain"
	pitchrepo "transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/platform/apperr"
	"transferdesk_backend/platform/httpkit"
	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// PitchReader provides read access to pitches.
type PitchReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*pitchrepo.Pitch, error)
}

// CounterBumper accumulates pitch counter deltas. Best-effort.
type CounterBumper interface {
	Bump(ctx context.Context, pitchID uuid.UUID, field string, delta int64)
}

// Service provides message operations.
type Service struct {
	repo          repository.MessagesRepository
	pitches       PitchReader
	notifications *inapp.Service
	counters      CounterBumper
	log           *logger.Logger
}

// New creates a messages service.
func New(repo repository.MessagesRepository, pitches PitchReader, notifications *inapp.Service, countersSvc CounterBumper, log *logger.Logger) *Service {
	return &Service{repo: repo, pitches: pitches, notifications: notifications, counters: countersSvc, log: log}
}

// SendParams carries a general message.
type SendParams struct {
	PitchID    uuid.UUID
	ReceiverID uuid.UUID
	Body       string
}

// Send posts a general message on a pitch thread. General messages are never
// deduplicated. The receiver gets an in-app notification.
func (s *Service) Send(ctx context.Context, senderID uuid.UUID, senderType string, params SendParams) (*repository.Message, error) {
	pitch, err := s.pitches.GetByID(ctx, params.PitchID)
	if err != nil {
		return nil, err
	}
	if domain.IsClosed(pitch.Status) {
		return nil, apperr.Gone("pitch is closed")
	}

	receiverType := httpkit.UserTypeTeam
	if senderType == httpkit.UserTypeTeam {
		receiverType = httpkit.UserTypeAgent
	}

	msg := &repository.Message{
		ID:           uuid.New(),
		PitchID:      params.PitchID,
		SenderID:     senderID,
		SenderType:   senderType,
		ReceiverID:   params.ReceiverID,
		ReceiverType: receiverType,
		Kind:         repository.KindGeneral,
		Body:         params.Body,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.counters.Bump(ctx, params.PitchID, counters.FieldMessages, 1)
	s.notifications.Notify(ctx, inapp.CreateParams{
		ProfileID:    params.ReceiverID,
		Title:        "New message",
		Content:      params.Body,
		ResourceID:   &msg.PitchID,
		ResourceType: strPtr("pitch"),
		Category:     "message",
	})
	return msg, nil
}

// ListForPitch lists the pitch thread visible to the caller.
func (s *Service) ListForPitch(ctx context.Context, pitchID, profileID uuid.UUID) ([]repository.Message, error) {
	return s.repo.ListForPitch(ctx, pitchID, profileID)
}

// ListInbox lists messages addressed to the caller.
func (s *Service) ListInbox(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]repository.Message, error) {
	return s.repo.ListInbox(ctx, profileID, limit, offset)
}

func strPtr(s string) *string { return &s }
