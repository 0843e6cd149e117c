// Package transport defines request and response DTOs for the contracts API.
package transport

import (
	"time"

	"transferdesk_backend/internal/contracts/repository"

	"github.com/google/uuid"
)

// Request DTOs

type CreateContractRequest struct {
	PitchID  uuid.UUID `json:"pitchId" validate:"required"`
	AgentID  uuid.UUID `json:"agentId" validate:"required"`
	Terms    string    `json:"terms" validate:"required,min=1,max=20000"`
	FeeCents int64     `json:"feeCents" validate:"gte=0"`
}

type AdvanceContractRequest struct {
	Action string `json:"action" validate:"required,oneof=send approve finalize request_changes reject complete revise"`
}

type UpdateTermsRequest struct {
	Terms    string `json:"terms" validate:"required,min=1,max=20000"`
	FeeCents int64  `json:"feeCents" validate:"gte=0"`
}

// Response DTOs

type ContractResponse struct {
	ID        uuid.UUID `json:"id"`
	PitchID   uuid.UUID `json:"pitchId"`
	AgentID   uuid.UUID `json:"agentId"`
	TeamID    uuid.UUID `json:"teamId"`
	Status    string    `json:"status"`
	Terms     string    `json:"terms"`
	FeeCents  int64     `json:"feeCents"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToContractResponse maps a database model to the API representation.
func ToContractResponse(c *repository.Contract) ContractResponse {
	return ContractResponse{
		ID:        c.ID,
		PitchID:   c.PitchID,
		AgentID:   c.AgentID,
		TeamID:    c.TeamID,
		Status:    c.Status,
		Terms:     c.Terms,
		FeeCents:  c.FeeCents,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToContractResponses maps a slice of database models.
func ToContractResponses(items []repository.Contract) []ContractResponse {
	out := make([]ContractResponse, 0, len(items))
	for i := range items {
		out = append(out, ToContractResponse(&items[i]))
	}
	return out
}
