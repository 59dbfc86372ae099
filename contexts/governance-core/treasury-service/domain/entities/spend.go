package entities

import "time"

type SpendState string

const (
	SpendStateWaitingForApproval     SpendState = "waiting_for_approval"
	SpendStateVoting                 SpendState = "voting"
	SpendStateApprovedAndExecuted    SpendState = "approved_and_executed"
	SpendStateApprovedButNotExecuted SpendState = "approved_but_not_executed"
)

// SpendProposal is a request to move funds out of a treasury's custodial
// account. Identity is (TreasuryID, SpendID). Terminal rows are never deleted.
type SpendProposal struct {
	TreasuryID uint64
	SpendID    uint64
	Amount     uint64
	Dest       string
	Proposer   string
	State      SpendState
	VoteID     uint64 // set while State is voting and kept afterwards for audit
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CanTriggerVote reports whether a vote may still be opened.
func (p SpendProposal) CanTriggerVote() bool {
	return p.State == SpendStateWaitingForApproval
}

// Finalized reports whether the proposal reached a terminal state.
func (p SpendProposal) Finalized() bool {
	return p.State == SpendStateApprovedAndExecuted || p.State == SpendStateApprovedButNotExecuted
}
