// Package domain provides core business rules for the pitches bounded context.
package domain

// Pitch statuses.
const (
	StatusActive    = "active"
	StatusExpired   = "expired"
	StatusCompleted = "completed"
	StatusWithdrawn = "withdrawn"
)

// Deal stages, in workflow order. A stage never regresses except via an
// explicit withdrawal or expiry.
const (
	DealStagePitch               = "pitch"
	DealStageInterest            = "interest"
	DealStageDiscussion          = "discussion"
	DealStageContractNegotiation = "contract_negotiation"
	DealStageCompleted           = "completed"
	DealStageExpired             = "expired"
)

// stageRank orders the forward deal stages. The two terminal stages share the
// highest rank so no conditional update can ever move past them.
var stageRank = map[string]int{
	DealStagePitch:               0,
	DealStageInterest:            1,
	DealStageDiscussion:          2,
	DealStageContractNegotiation: 3,
	DealStageCompleted:           4,
	DealStageExpired:             4,
}

// StageRank returns the ordering rank of a deal stage, or -1 for unknown stages.
func StageRank(stage string) int {
	if r, ok := stageRank[stage]; ok {
		return r
	}
	return -1
}

// IsKnownDealStage reports whether the stage is one of the defined stages.
func IsKnownDealStage(stage string) bool {
	_, ok := stageRank[stage]
	return ok
}

// IsTerminalDealStage reports whether the stage permits no further advancement.
func IsTerminalDealStage(stage string) bool {
	return stage == DealStageCompleted || stage == DealStageExpired
}

// IsTerminalStatus reports whether the pitch status permits no further writes.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusExpired, StatusCompleted, StatusWithdrawn:
		return true
	}
	return false
}

// IsClosed reports whether the pitch finished via a completed contract.
// Writes against a closed pitch fail with a pitch-closed error.
func IsClosed(status string) bool {
	return status == StatusCompleted
}

// Interest statuses, shared with the interest ledger for stage derivation.
const (
	InterestStatusInterested  = "interested"
	InterestStatusRequested   = "requested"
	InterestStatusNegotiating = "negotiating"
	InterestStatusWithdrawn   = "withdrawn"
	InterestStatusRejected    = "rejected"
)

// IsActiveInterestStatus reports whether the status counts as a live stance.
func IsActiveInterestStatus(status string) bool {
	switch status {
	case InterestStatusInterested, InterestStatusRequested, InterestStatusNegotiating:
		return true
	}
	return false
}

// IsTerminalInterestStatus reports whether the status is withdrawn or rejected.
// Terminal rows are retained for audit and may be reactivated.
func IsTerminalInterestStatus(status string) bool {
	return status == InterestStatusWithdrawn || status == InterestStatusRejected
}

// StageForInterestStatus maps an interest status to the minimum deal stage the
// pitch should reflect. "requested" is a lateral sibling of "interested": both
// count as interest for stage derivation.
func StageForInterestStatus(status string) string {
	switch status {
	case InterestStatusInterested, InterestStatusRequested:
		return DealStageInterest
	case InterestStatusNegotiating:
		return DealStageDiscussion
	}
	return DealStagePitch
}
