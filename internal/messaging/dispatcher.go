// Package messaging provides the message and notification bounded context:
// the pitch message threads, the in-app notification feed and the event
// dispatcher that fans workflow events out into both.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"transferdesk_backend/internal/events"
	"transferdesk_backend/internal/messaging/inapp"
	"transferdesk_backend/internal/messaging/outbox"
	"transferdesk_backend/internal/messaging/repository"
	"transferdesk_backend/internal/pitches/counters"
	"transferdesk_backend/platform/httpkit"
	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// CounterBumper accumulates pitch counter deltas. Best-effort.
type CounterBumper interface {
	Bump(ctx context.Context, pitchID uuid.UUID, field string, delta int64)
}

// OutboxStore durably parks events whose fan-out failed so the scheduler can
// redrive them.
type OutboxStore interface {
	Insert(ctx context.Context, eventName string, payload any) (uuid.UUID, error)
	ClaimPending(ctx context.Context, limit int) ([]outbox.Record, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkPending(ctx context.Context, id uuid.UUID, retryAfter time.Duration, lastError string) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

// Dispatcher turns workflow events into messages and notifications. First
// contact between a pair on a pitch produces exactly one workflow message per
// kind; replays and retries deduplicate instead of spamming the thread.
// Failed fan-outs land in the outbox and are redriven, so delivery is
// at-least-once rather than lost to a log line.
type Dispatcher struct {
	messages      repository.MessagesRepository
	notifications *inapp.Service
	counters      CounterBumper
	outbox        OutboxStore
	log           *logger.Logger
}

// NewDispatcher creates a messaging dispatcher. A nil outbox disables
// durable redelivery; handler errors then surface to the bus.
func NewDispatcher(messages repository.MessagesRepository, notifications *inapp.Service, countersSvc CounterBumper, outboxStore OutboxStore, log *logger.Logger) *Dispatcher {
	return &Dispatcher{messages: messages, notifications: notifications, counters: countersSvc, outbox: outboxStore, log: log}
}

// Register subscribes the dispatcher to all workflow events it renders.
func (d *Dispatcher) Register(bus events.Bus) {
	handler := events.HandlerFunc(d.dispatch)
	for _, name := range []string{
		events.InterestCreated{}.EventName(),
		events.InterestUpdated{}.EventName(),
		events.InterestReactivated{}.EventName(),
		events.InterestWithdrawn{}.EventName(),
		events.ContractCreated{}.EventName(),
		events.ContractAdvanced{}.EventName(),
		events.ContractCompleted{}.EventName(),
		events.PitchExpired{}.EventName(),
	} {
		bus.Subscribe(name, handler)
	}
}

// dispatch runs Handle and, when it fails, parks the event in the outbox
// instead of dropping it. The stage-driving publishers run handlers
// synchronously, so an absorbed failure here never blocks a workflow write.
func (d *Dispatcher) dispatch(ctx context.Context, event events.Event) error {
	err := d.Handle(ctx, event)
	if err == nil || d.outbox == nil {
		return err
	}
	if _, insErr := d.outbox.Insert(ctx, event.EventName(), event); insErr != nil {
		d.log.Error("dispatcher: outbox enqueue failed", "event", event.EventName(), "error", insErr)
		return err
	}
	d.log.Warn("dispatcher: fan-out parked in outbox", "event", event.EventName(), "error", err)
	return nil
}

// Handle routes one event. Errors are returned for the caller to park or
// log; every branch is safe to replay.
func (d *Dispatcher) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.InterestCreated:
		return d.onInterestOpened(ctx, e.PitchID, e.AgentID, e.TeamID, e.Message)
	case events.InterestReactivated:
		return d.onInterestOpened(ctx, e.PitchID, e.AgentID, e.TeamID, e.Message)
	case events.InterestUpdated:
		// A standing thread exists; only backfill the first-touch message if
		// it is somehow missing. No fresh notification.
		_, err := d.firstTouch(ctx, e.PitchID, e.AgentID, httpkit.UserTypeAgent, e.TeamID, httpkit.UserTypeTeam, repository.KindInterest, e.Message)
		return err
	case events.InterestWithdrawn:
		d.notifications.Notify(ctx, inapp.CreateParams{
			ProfileID:    e.TeamID,
			Title:        "Interest withdrawn",
			Content:      "An agent has withdrawn their interest in your pitch.",
			ResourceID:   ptr(e.PitchID),
			ResourceType: strPtr("pitch"),
			Category:     "interest",
		})
		return nil
	case events.ContractCreated:
		return d.onContractCreated(ctx, e)
	case events.ContractAdvanced:
		return d.onContractAdvanced(ctx, e)
	case events.ContractCompleted:
		for _, profileID := range []uuid.UUID{e.TeamID, e.AgentID} {
			d.notifications.Notify(ctx, inapp.CreateParams{
				ProfileID:    profileID,
				Title:        "Transfer completed",
				Content:      "The contract has been completed and the transfer is done.",
				ResourceID:   ptr(e.ContractID),
				ResourceType: strPtr("contract"),
				Category:     "contract",
			})
		}
		return nil
	case events.PitchExpired:
		d.notifications.Notify(ctx, inapp.CreateParams{
			ProfileID:    e.TeamID,
			Title:        "Pitch expired",
			Content:      "Your pitch passed its expiry date and is no longer visible to agents.",
			ResourceID:   ptr(e.PitchID),
			ResourceType: strPtr("pitch"),
			Category:     "pitch",
		})
		return nil
	}
	return nil
}

func (d *Dispatcher) onInterestOpened(ctx context.Context, pitchID, agentID, teamID uuid.UUID, message string) error {
	created, err := d.firstTouch(ctx, pitchID, agentID, httpkit.UserTypeAgent, teamID, httpkit.UserTypeTeam, repository.KindInterest, message)
	if err != nil {
		return err
	}
	if created {
		d.notifications.Notify(ctx, inapp.CreateParams{
			ProfileID:    teamID,
			Title:        "New interest in your pitch",
			Content:      firstTouchContent(message, "An agent has expressed interest in your pitch."),
			ResourceID:   ptr(pitchID),
			ResourceType: strPtr("pitch"),
			Category:     "interest",
		})
	}
	return nil
}

func (d *Dispatcher) onContractCreated(ctx context.Context, e events.ContractCreated) error {
	_, err := d.firstTouch(ctx, e.PitchID, e.TeamID, httpkit.UserTypeTeam, e.AgentID, httpkit.UserTypeAgent, repository.KindNegotiation,
		"A contract has been drafted for this transfer.")
	if err != nil {
		return err
	}
	d.notifications.Notify(ctx, inapp.CreateParams{
		ProfileID:    e.AgentID,
		Title:        "Contract drafted",
		Content:      "The team has drafted a contract for a pitch you are negotiating.",
		ResourceID:   ptr(e.ContractID),
		ResourceType: strPtr("contract"),
		Category:     "contract",
	})
	return nil
}

func (d *Dispatcher) onContractAdvanced(ctx context.Context, e events.ContractAdvanced) error {
	// The acting party knows what they did; the counterparty gets notified.
	counterparty := e.TeamID
	if e.ActorType == httpkit.UserTypeTeam {
		counterparty = e.AgentID
	}
	d.notifications.Notify(ctx, inapp.CreateParams{
		ProfileID:    counterparty,
		Title:        "Contract updated",
		Content:      "The contract moved from " + e.OldStatus + " to " + e.NewStatus + ".",
		ResourceID:   ptr(e.ContractID),
		ResourceType: strPtr("contract"),
		Category:     "contract",
	})
	return nil
}

func (d *Dispatcher) firstTouch(ctx context.Context, pitchID, senderID uuid.UUID, senderType string, receiverID uuid.UUID, receiverType, kind, body string) (bool, error) {
	if body == "" {
		body = defaultBody(kind)
	}
	created, err := d.messages.CreateFirstTouch(ctx, &repository.Message{
		ID:           uuid.New(),
		PitchID:      pitchID,
		SenderID:     senderID,
		SenderType:   senderType,
		ReceiverID:   receiverID,
		ReceiverType: receiverType,
		Kind:         kind,
		Body:         body,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		d.log.Error("dispatcher: first-touch message failed", "error", err, "pitchId", pitchID, "kind", kind)
		return false, err
	}
	if created {
		d.counters.Bump(ctx, pitchID, counters.FieldMessages, 1)
	}
	return created, nil
}

// Redrive limits for the outbox.
const (
	redriveBatch   = 50
	redriveMaxTry  = 5
	redriveBackoff = time.Minute
)

// Redrive claims due outbox rows and replays their fan-out. Rows that fail
// again go back to pending with a delay until they exhaust their attempts.
// Returns the number of rows delivered.
func (d *Dispatcher) Redrive(ctx context.Context) (int, error) {
	if d.outbox == nil {
		return 0, nil
	}

	records, err := d.outbox.ClaimPending(ctx, redriveBatch)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, rec := range records {
		event, err := decodeEvent(rec.EventName, rec.Payload)
		if err != nil {
			d.log.Error("dispatcher: undecodable outbox row", "id", rec.ID, "event", rec.EventName, "error", err)
			_ = d.outbox.MarkFailed(ctx, rec.ID, err.Error())
			continue
		}
		if err := d.outbox.MarkProcessing(ctx, rec.ID); err != nil {
			return delivered, err
		}
		if err := d.Handle(ctx, event); err != nil {
			if rec.Attempts+1 >= redriveMaxTry {
				d.log.Error("dispatcher: outbox row exhausted attempts", "id", rec.ID, "event", rec.EventName, "error", err)
				_ = d.outbox.MarkFailed(ctx, rec.ID, err.Error())
			} else {
				_ = d.outbox.MarkPending(ctx, rec.ID, redriveBackoff, err.Error())
			}
			continue
		}
		if err := d.outbox.MarkSucceeded(ctx, rec.ID); err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

func decodeEvent(name string, payload json.RawMessage) (events.Event, error) {
	switch name {
	case events.InterestCreated{}.EventName():
		return decodeAs[events.InterestCreated](payload)
	case events.InterestUpdated{}.EventName():
		return decodeAs[events.InterestUpdated](payload)
	case events.InterestReactivated{}.EventName():
		return decodeAs[events.InterestReactivated](payload)
	case events.InterestWithdrawn{}.EventName():
		return decodeAs[events.InterestWithdrawn](payload)
	case events.ContractCreated{}.EventName():
		return decodeAs[events.ContractCreated](payload)
	case events.ContractAdvanced{}.EventName():
		return decodeAs[events.ContractAdvanced](payload)
	case events.ContractCompleted{}.EventName():
		return decodeAs[events.ContractCompleted](payload)
	case events.PitchExpired{}.EventName():
		return decodeAs[events.PitchExpired](payload)
	}
	return nil, fmt.Errorf("unknown outbox event %q", name)
}

func decodeAs[T events.Event](payload json.RawMessage) (events.Event, error) {
	var e T
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, err
	}
	return e, nil
}

func defaultBody(kind string) string {
	if kind == repository.KindNegotiation {
		return "Negotiation opened."
	}
	return "I am interested in this pitch."
}

func firstTouchContent(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func strPtr(s string) *string { return &s }
