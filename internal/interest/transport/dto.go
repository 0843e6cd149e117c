// Package transport defines request and response DTOs for the interest API.
package transport

import (
	"time"

	"transferdesk_backend/internal/interest/repository"

	"github.com/google/uuid"
)

// Request DTOs

type ExpressInterestRequest struct {
	PitchID uuid.UUID `json:"pitchId" validate:"required"`
	Status  string    `json:"status,omitempty" validate:"omitempty,oneof=interested requested negotiating"`
	Message string    `json:"message,omitempty" validate:"max=2000"`
}

type CancelInterestRequest struct {
	Note string `json:"note,omitempty" validate:"max=500"`
}

// Response DTOs

type InterestResponse struct {
	ID        uuid.UUID `json:"id"`
	PitchID   uuid.UUID `json:"pitchId"`
	AgentID   uuid.UUID `json:"agentId"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToInterestResponse maps a database model to the API representation.
func ToInterestResponse(i *repository.Interest) InterestResponse {
	return InterestResponse{
		ID:        i.ID,
		PitchID:   i.PitchID,
		AgentID:   i.AgentID,
		Status:    i.Status,
		Message:   i.Message,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// ToInterestResponses maps a slice of database models.
func ToInterestResponses(items []repository.Interest) []InterestResponse {
	out := make([]InterestResponse, 0, len(items))
	for i := range items {
		out = append(out, ToInterestResponse(&items[i]))
	}
	return out
}
