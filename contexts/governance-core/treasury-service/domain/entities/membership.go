package entities

import "time"

type ProposalState string

const (
	ProposalStateWaitingForApproval     ProposalState = "waiting_for_approval"
	ProposalStateVoting                 ProposalState = "voting"
	ProposalStateApprovedAndExecuted    ProposalState = "approved_and_executed"
	ProposalStateApprovedButNotExecuted ProposalState = "approved_but_not_executed"
)

// MembershipProposal asks to admit an applicant into the treasury's org in
// exchange for a tribute paid into the custodial account. Identity is
// (TreasuryID, ProposalID).
type MembershipProposal struct {
	TreasuryID      uint64
	ProposalID      uint64
	Tribute         uint64
	SharesRequested uint64
	Applicant       string
	Proposer        string
	State           ProposalState
	VoteID          uint64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (p MembershipProposal) CanTriggerVote() bool {
	return p.State == ProposalStateWaitingForApproval
}

func (p MembershipProposal) Finalized() bool {
	return p.State == ProposalStateApprovedAndExecuted || p.State == ProposalStateApprovedButNotExecuted
}
