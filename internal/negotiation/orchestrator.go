// Package negotiation hosts the orchestrator that derives each pitch's deal
// stage from interest and contract events. It is the only writer of forward
// deal-stage transitions, which keeps the monotonicity rule in one place.
package negotiation

import (
	"context"

	"transferdesk_backend/internal/events"
	"transferdesk_backend/internal/pitches/domain"
	"transferdesk_backend/internal/pitches/repository"
	"transferdesk_backend/platform/apperr"
	"transferdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// Orchestrator advances pitch deal stages in response to domain events.
type Orchestrator struct {
	repo     repository.PitchesRepository
	eventBus events.Bus
	log      *logger.Logger
}

// NewOrchestrator creates a negotiation orchestrator.
func NewOrchestrator(repo repository.PitchesRepository, eventBus events.Bus, log *logger.Logger) *Orchestrator {
	return &Orchestrator{repo: repo, eventBus: eventBus, log: log}
}

// Register subscribes the orchestrator to the events it reacts to.
func (o *Orchestrator) Register() {
	interestHandler := events.HandlerFunc(o.onInterestEvent)
	o.eventBus.Subscribe(events.InterestCreated{}.EventName(), interestHandler)
	o.eventBus.Subscribe(events.InterestUpdated{}.EventName(), interestHandler)
	o.eventBus.Subscribe(events.InterestReactivated{}.EventName(), interestHandler)
	o.eventBus.Subscribe(events.ContractCreated{}.EventName(), events.HandlerFunc(o.onContractCreated))
	o.eventBus.Subscribe(events.ContractCompleted{}.EventName(), events.HandlerFunc(o.onContractCompleted))
}

func (o *Orchestrator) onInterestEvent(ctx context.Context, event events.Event) error {
	var pitchID uuid.UUID
	var status string

	switch e := event.(type) {
	case events.InterestCreated:
		pitchID, status = e.PitchID, e.Status
	case events.InterestUpdated:
		pitchID, status = e.PitchID, e.Status
	case events.InterestReactivated:
		pitchID, status = e.PitchID, e.Status
	default:
		return nil
	}

	target := domain.StageForInterestStatus(status)
	return o.AdvanceToAtLeast(ctx, pitchID, target)
}

func (o *Orchestrator) onContractCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ContractCreated)
	if !ok {
		return nil
	}
	// Contract generation dominates interest-driven stages.
	return o.AdvanceToAtLeast(ctx, e.PitchID, domain.DealStageContractNegotiation)
}

func (o *Orchestrator) onContractCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ContractCompleted)
	if !ok {
		return nil
	}

	pitch, err := o.repo.GetByID(ctx, e.PitchID)
	if err != nil {
		o.log.Error("orchestrator: failed to load pitch for completion", "error", err, "pitchId", e.PitchID)
		return err
	}
	if pitch.Status == domain.StatusCompleted {
		return nil
	}

	if err := o.repo.SetCompleted(ctx, e.PitchID); err != nil {
		o.log.Error("orchestrator: failed to complete pitch", "error", err, "pitchId", e.PitchID)
		return err
	}
	o.log.StageTransition(e.PitchID.String(), pitch.DealStage, domain.DealStageCompleted, true)
	o.eventBus.Publish(ctx, events.DealStageChanged{
		BaseEvent: events.NewBaseEvent(),
		PitchID:   e.PitchID,
		TeamID:    pitch.TeamID,
		OldStage:  pitch.DealStage,
		NewStage:  domain.DealStageCompleted,
	})
	return nil
}

// AdvanceToAtLeast raises a pitch's deal stage to target if its current stage
// ranks lower. The write is conditional on the stage that was read; losing
// the race means another writer advanced the pitch, which satisfies the
// at-least semantics, so a single re-read settles it.
func (o *Orchestrator) AdvanceToAtLeast(ctx context.Context, pitchID uuid.UUID, target string) error {
	if !domain.IsKnownDealStage(target) {
		return apperr.BadRequest("unknown deal stage: " + target)
	}

	pitch, err := o.repo.GetByID(ctx, pitchID)
	if err != nil {
		o.log.Error("orchestrator: failed to load pitch", "error", err, "pitchId", pitchID)
		return err
	}
	if domain.IsTerminalDealStage(pitch.DealStage) {
		return nil
	}
	if domain.StageRank(pitch.DealStage) >= domain.StageRank(target) {
		return nil
	}

	applied, err := o.repo.AdvanceDealStage(ctx, pitchID, pitch.DealStage, target)
	if err != nil {
		o.log.Error("orchestrator: stage advance failed", "error", err, "pitchId", pitchID, "target", target)
		return err
	}
	o.log.StageTransition(pitchID.String(), pitch.DealStage, target, applied)

	if applied {
		o.eventBus.Publish(ctx, events.DealStageChanged{
			BaseEvent: events.NewBaseEvent(),
			PitchID:   pitchID,
			TeamID:    pitch.TeamID,
			OldStage:  pitch.DealStage,
			NewStage:  target,
		})
		return nil
	}

	// Lost the conditional update. Re-read once: if the concurrent writer
	// left the pitch at or above the target, the goal is already met.
	current, err := o.repo.GetByID(ctx, pitchID)
	if err != nil {
		return err
	}
	if domain.IsTerminalDealStage(current.DealStage) || domain.StageRank(current.DealStage) >= domain.StageRank(target) {
		return nil
	}

	applied, err = o.repo.AdvanceDealStage(ctx, pitchID, current.DealStage, target)
	if err != nil {
		return err
	}
	if applied {
		o.eventBus.Publish(ctx, events.DealStageChanged{
			BaseEvent: events.NewBaseEvent(),
			PitchID:   pitchID,
			TeamID:    current.TeamID,
			OldStage:  current.DealStage,
			NewStage:  target,
		})
	}
	// A second lost race means writers are converging on a stage at or above
	// the target; treat it as satisfied.
	return nil
}
