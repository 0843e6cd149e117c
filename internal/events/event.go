// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"transferdesk_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Interest Domain Events
// =============================================================================

// InterestCreated is published the first time an agent expresses interest
// in a pitch.
type InterestCreated struct {
	BaseEvent
	InterestID uuid.UUID `json:"interestId"`
	PitchID    uuid.UUID `json:"pitchId"`
	AgentID    uuid.UUID `json:"agentId"`
	TeamID     uuid.UUID `json:"teamId"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
}

func (e InterestCreated) EventName() string { return "interest.created" }

// InterestUpdated is published when an existing active interest record is
// updated in place. Downstream notifications for this event are best-effort:
// a standing negotiation thread usually already exists.
type InterestUpdated struct {
	BaseEvent
	InterestID uuid.UUID `json:"interestId"`
	PitchID    uuid.UUID `json:"pitchId"`
	AgentID    uuid.UUID `json:"agentId"`
	TeamID     uuid.UUID `json:"teamId"`
	OldStatus  string    `json:"oldStatus"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
}

func (e InterestUpdated) EventName() string { return "interest.updated" }

// InterestReactivated is published when a withdrawn or rejected interest is
// flipped back to an active status. Distinct from InterestUpdated because the
// team must receive a fresh notification.
type InterestReactivated struct {
	BaseEvent
	InterestID     uuid.UUID `json:"interestId"`
	PitchID        uuid.UUID `json:"pitchId"`
	AgentID        uuid.UUID `json:"agentId"`
	TeamID         uuid.UUID `json:"teamId"`
	PreviousStatus string    `json:"previousStatus"`
	Status         string    `json:"status"`
	Message        string    `json:"message,omitempty"`
}

func (e InterestReactivated) EventName() string { return "interest.reactivated" }

// InterestWithdrawn is published when an agent cancels their interest.
type InterestWithdrawn struct {
	BaseEvent
	InterestID uuid.UUID `json:"interestId"`
	PitchID    uuid.UUID `json:"pitchId"`
	AgentID    uuid.UUID `json:"agentId"`
	TeamID     uuid.UUID `json:"teamId"`
}

func (e InterestWithdrawn) EventName() string { return "interest.withdrawn" }

// =============================================================================
// Pitch Domain Events
// =============================================================================

// DealStageChanged is published when a pitch's deal stage advances.
type DealStageChanged struct {
	BaseEvent
	PitchID  uuid.UUID `json:"pitchId"`
	TeamID   uuid.UUID `json:"teamId"`
	OldStage string    `json:"oldStage"`
	NewStage string    `json:"newStage"`
}

func (e DealStageChanged) EventName() string { return "pitches.deal_stage.changed" }

// PitchExpired is published by the expiry sweep when a pitch passes its
// expires_at without completing.
type PitchExpired struct {
	BaseEvent
	PitchID uuid.UUID `json:"pitchId"`
	TeamID  uuid.UUID `json:"teamId"`
}

func (e PitchExpired) EventName() string { return "pitches.expired" }

// =============================================================================
// Contract Domain Events
// =============================================================================

// ContractCreated is published when the team generates a contract for a
// negotiating interest. The orchestrator reacts by advancing the pitch to
// contract_negotiation; this transition dominates interest-driven ones.
type ContractCreated struct {
	BaseEvent
	ContractID uuid.UUID `json:"contractId"`
	PitchID    uuid.UUID `json:"pitchId"`
	AgentID    uuid.UUID `json:"agentId"`
	TeamID     uuid.UUID `json:"teamId"`
}

func (e ContractCreated) EventName() string { return "contracts.created" }

// ContractAdvanced is published on every non-terminal contract lifecycle
// transition.
type ContractAdvanced struct {
	BaseEvent
	ContractID uuid.UUID `json:"contractId"`
	PitchID    uuid.UUID `json:"pitchId"`
	AgentID    uuid.UUID `json:"agentId"`
	TeamID     uuid.UUID `json:"teamId"`
	ActorID    uuid.UUID `json:"actorId"`
	ActorType  string    `json:"actorType"`
	Action     string    `json:"action"`
	OldStatus  string    `json:"oldStatus"`
	NewStatus  string    `json:"newStatus"`
}

func (e ContractAdvanced) EventName() string { return "contracts.advanced" }

// ContractCompleted is published when a signed contract is completed,
// closing the owning pitch for good.
type ContractCompleted struct {
	BaseEvent
	ContractID uuid.UUID `json:"contractId"`
	PitchID    uuid.UUID `json:"pitchId"`
	AgentID    uuid.UUID `json:"agentId"`
	TeamID     uuid.UUID `json:"teamId"`
}

func (e ContractCompleted) EventName() string { return "contracts.completed" }
