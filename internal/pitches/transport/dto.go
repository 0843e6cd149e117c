// Package transport defines request and response DTOs for the pitches API.
package transport

import (
	"time"

	"transferdesk_backend/internal/pitches/repository"

	"github.com/google/uuid"
)

// Request DTOs

type CreatePitchRequest struct {
	PlayerID         uuid.UUID  `json:"playerId" validate:"required"`
	AskingPriceCents int64      `json:"askingPriceCents" validate:"required,gt=0"`
	Currency         string     `json:"currency" validate:"required,len=3,uppercase"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
}

type ListPitchesRequest struct {
	TeamID    *uuid.UUID `form:"teamId"`
	Status    *string    `form:"status" validate:"omitempty,oneof=active expired completed withdrawn"`
	DealStage *string    `form:"dealStage" validate:"omitempty,oneof=pitch interest discussion contract_negotiation completed expired"`
	Page      int        `form:"page"`
	PageSize  int        `form:"pageSize"`
}

// Response DTOs

type PitchResponse struct {
	ID               uuid.UUID  `json:"id"`
	TeamID           uuid.UUID  `json:"teamId"`
	PlayerID         uuid.UUID  `json:"playerId"`
	Status           string     `json:"status"`
	DealStage        string     `json:"dealStage"`
	AskingPriceCents int64      `json:"askingPriceCents"`
	Currency         string     `json:"currency"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	ViewCount        int64      `json:"viewCount"`
	MessageCount     int64      `json:"messageCount"`
	ShortlistCount   int64      `json:"shortlistCount"`
	InterestCount    int64      `json:"interestCount"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type ListPitchesResponse struct {
	Items      []PitchResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// ToPitchResponse maps a database model to the API representation.
func ToPitchResponse(p *repository.Pitch) PitchResponse {
	return PitchResponse{
		ID:               p.ID,
		TeamID:           p.TeamID,
		PlayerID:         p.PlayerID,
		Status:           p.Status,
		DealStage:        p.DealStage,
		AskingPriceCents: p.AskingPriceCents,
		Currency:         p.Currency,
		ExpiresAt:        p.ExpiresAt,
		ViewCount:        p.ViewCount,
		MessageCount:     p.MessageCount,
		ShortlistCount:   p.ShortlistCount,
		InterestCount:    p.InterestCount,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ToListPitchesResponse maps a paginated repository result.
func ToListPitchesResponse(r *repository.ListResult) ListPitchesResponse {
	items := make([]PitchResponse, 0, len(r.Items))
	for i := range r.Items {
		items = append(items, ToPitchResponse(&r.Items[i]))
	}
	return ListPitchesResponse{
		Items:      items,
		Total:      r.Total,
		Page:       r.Page,
		PageSize:   r.PageSize,
		TotalPages: r.TotalPages,
	}
}
