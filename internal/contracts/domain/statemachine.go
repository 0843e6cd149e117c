// Package domain provides the contract review state machine.
package domain

import "transferdesk_backend/platform/apperr"

// Contract statuses. rejected and completed are terminal; every other status
// counts against the one-active-contract-per-pitch rule.
const (
	StatusDraft             = "draft"
	StatusSentToAgent       = "sent_to_agent"
	StatusAgentReviewed     = "agent_reviewed"
	StatusTeamReviewed      = "team_reviewed"
	StatusSigned            = "signed"
	StatusRevisionRequested = "revision_requested"
	StatusRejected          = "rejected"
	StatusCompleted         = "completed"
)

// Lifecycle actions.
const (
	ActionSend           = "send"
	ActionApprove        = "approve"
	ActionFinalize       = "finalize"
	ActionRequestChanges = "request_changes"
	ActionReject         = "reject"
	ActionComplete       = "complete"
	ActionRevise         = "revise"
)

// Actor types. actorAny marks edges either party may take.
const (
	ActorTeam  = "team"
	ActorAgent = "agent"

	actorAny = "*"
)

type edge struct {
	from  string
	actor string
	to    string
}

// transitions is the full review ping-pong: the team drafts and sends, the
// agent reviews, the team finalizes and signs, and either party can bounce
// the contract back for revision or reject it outright.
var transitions = map[string][]edge{
	ActionSend: {
		{StatusDraft, ActorTeam, StatusSentToAgent},
	},
	ActionApprove: {
		{StatusSentToAgent, ActorAgent, StatusAgentReviewed},
		{StatusTeamReviewed, ActorTeam, StatusSigned},
	},
	ActionFinalize: {
		{StatusAgentReviewed, ActorTeam, StatusTeamReviewed},
	},
	ActionRequestChanges: {
		{StatusSentToAgent, actorAny, StatusRevisionRequested},
		{StatusAgentReviewed, actorAny, StatusRevisionRequested},
		{StatusTeamReviewed, actorAny, StatusRevisionRequested},
	},
	ActionReject: {
		{StatusSentToAgent, actorAny, StatusRejected},
		{StatusAgentReviewed, actorAny, StatusRejected},
		{StatusTeamReviewed, actorAny, StatusRejected},
		{StatusRevisionRequested, actorAny, StatusRejected},
	},
	ActionComplete: {
		{StatusSigned, ActorTeam, StatusCompleted},
	},
	ActionRevise: {
		{StatusRejected, ActorTeam, StatusDraft},
		{StatusRevisionRequested, ActorTeam, StatusDraft},
	},
}

// IsTerminal reports whether the status ends the contract's lifecycle for the
// one-active-contract rule. A rejected contract can still be revived via
// revise, which re-enters the active set and is guarded by the same rule.
func IsTerminal(status string) bool {
	return status == StatusRejected || status == StatusCompleted
}

// IsKnownAction reports whether the action is part of the lifecycle.
func IsKnownAction(action string) bool {
	_, ok := transitions[action]
	return ok
}

// Next resolves the target status for an action taken from the current
// status by the given actor type. Returns an invalid-transition error when no
// edge matches the current status, and a forbidden error when the edge exists
// but belongs to the other party.
func Next(status, action, actor string) (string, error) {
	edges, ok := transitions[action]
	if !ok {
		return "", apperr.BadRequest("unknown contract action: " + action)
	}

	actorMismatch := false
	for _, e := range edges {
		if e.from != status {
			continue
		}
		if e.actor == actorAny || e.actor == actor {
			return e.to, nil
		}
		actorMismatch = true
	}
	if actorMismatch {
		return "", apperr.Forbidden("action " + action + " is not allowed for this party")
	}
	return "", apperr.InvalidTransition(status, action)
}
