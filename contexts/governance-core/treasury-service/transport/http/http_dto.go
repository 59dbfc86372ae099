package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type OpenTreasuryRequest struct {
	OrgID      uint64 `json:"org_id"`
	Deposit    uint64 `json:"deposit"`
	Controller string `json:"controller,omitempty"`
}

type TreasuryResponse struct {
	TreasuryID uint64    `json:"treasury_id"`
	OrgID      uint64    `json:"org_id"`
	Controller string    `json:"controller,omitempty"`
	OpenedBy   string    `json:"opened_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type TreasuryBalanceResponse struct {
	TreasuryID uint64 `json:"treasury_id"`
	Balance    uint64 `json:"balance"`
}

type TreasuryCountResponse struct {
	Count int `json:"count"`
}

type ProposeSpendRequest struct {
	Amount uint64 `json:"amount"`
	Dest   string `json:"dest"`
}

type SpendResponse struct {
	TreasuryID uint64    `json:"treasury_id"`
	SpendID    uint64    `json:"spend_id"`
	Amount     uint64    `json:"amount"`
	Dest       string    `json:"dest"`
	Proposer   string    `json:"proposer"`
	State      string    `json:"state"`
	VoteID     uint64    `json:"vote_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SpendListResponse struct {
	Items []SpendResponse `json:"items"`
}

type ProposeMembershipRequest struct {
	Tribute         uint64 `json:"tribute"`
	SharesRequested uint64 `json:"shares_requested"`
	Applicant       string `json:"applicant"`
}

type MembershipResponse struct {
	TreasuryID      uint64    `json:"treasury_id"`
	ProposalID      uint64    `json:"proposal_id"`
	Tribute         uint64    `json:"tribute"`
	SharesRequested uint64    `json:"shares_requested"`
	Applicant       string    `json:"applicant"`
	Proposer        string    `json:"proposer"`
	State           string    `json:"state"`
	VoteID          uint64    `json:"vote_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type MembershipListResponse struct {
	Items []MembershipResponse `json:"items"`
}

type TriggerVoteResponse struct {
	TreasuryID uint64 `json:"treasury_id"`
	ProposalID uint64 `json:"proposal_id"`
	VoteID     uint64 `json:"vote_id"`
	State      string `json:"state"`
}

type ProposalStateResponse struct {
	TreasuryID uint64 `json:"treasury_id"`
	ProposalID uint64 `json:"proposal_id"`
	State      string `json:"state"`
}
