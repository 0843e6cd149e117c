package domain

import "testing"

func TestStageRankIsMonotonicAlongWorkflow(t *testing.T) {
	order := []string{
		DealStagePitch,
		DealStageInterest,
		DealStageDiscussion,
		DealStageContractNegotiation,
		DealStageCompleted,
	}

	for i := 1; i < len(order); i++ {
		if StageRank(order[i]) <= StageRank(order[i-1]) {
			t.Fatalf("expected rank(%q) > rank(%q)", order[i], order[i-1])
		}
	}
}

func TestStageRankUnknownStage(t *testing.T) {
	if got := StageRank("negotiation"); got != -1 {
		t.Fatalf("expected -1 for unknown stage, got %d", got)
	}
}

func TestTerminalStagesShareTopRank(t *testing.T) {
	if StageRank(DealStageExpired) != StageRank(DealStageCompleted) {
		t.Fatal("expected expired and completed to share the top rank")
	}
	if !IsTerminalDealStage(DealStageExpired) || !IsTerminalDealStage(DealStageCompleted) {
		t.Fatal("expected expired and completed to be terminal")
	}
}

func TestStageForInterestStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{InterestStatusInterested, DealStageInterest},
		{InterestStatusRequested, DealStageInterest},
		{InterestStatusNegotiating, DealStageDiscussion},
		{InterestStatusWithdrawn, DealStagePitch},
	}

	for _, tt := range tests {
		if got := StageForInterestStatus(tt.status); got != tt.want {
			t.Fatalf("StageForInterestStatus(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestInterestStatusClassification(t *testing.T) {
	for _, s := range []string{InterestStatusInterested, InterestStatusRequested, InterestStatusNegotiating} {
		if !IsActiveInterestStatus(s) {
			t.Fatalf("expected %q to be active", s)
		}
		if IsTerminalInterestStatus(s) {
			t.Fatalf("expected %q to not be terminal", s)
		}
	}
	for _, s := range []string{InterestStatusWithdrawn, InterestStatusRejected} {
		if IsActiveInterestStatus(s) {
			t.Fatalf("expected %q to not be active", s)
		}
		if !IsTerminalInterestStatus(s) {
			t.Fatalf("expected %q to be terminal", s)
		}
	}
}
