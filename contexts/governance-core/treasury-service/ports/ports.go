package ports

import (
	"context"
	"time"

	"daobank/contexts/governance-core/treasury-service/domain/entities"
	"daobank/internal/shared/events"
)

// TreasuryRepository persists treasuries plus the one-treasury-per-org
// registrar set and the global open-treasury counter.
type TreasuryRepository interface {
	SaveTreasury(ctx context.Context, treasury entities.Treasury) error
	GetTreasury(ctx context.Context, treasuryID uint64) (entities.Treasury, error)
	DeleteTreasury(ctx context.Context, treasuryID uint64) error
	TreasuryExists(ctx context.Context, treasuryID uint64) (bool, error)
	TreasuryForOrg(ctx context.Context, orgID uint64) (entities.Treasury, bool, error)

	ReserveOrgSlot(ctx context.Context, orgID uint64) error
	ReleaseOrgSlot(ctx context.Context, orgID uint64) error
	OrgSlotTaken(ctx context.Context, orgID uint64) (bool, error)

	CountTreasuries(ctx context.Context) (int, error)
}

type SpendRepository interface {
	SaveSpend(ctx context.Context, proposal entities.SpendProposal) error
	GetSpend(ctx context.Context, treasuryID uint64, spendID uint64) (entities.SpendProposal, error)
	SpendExists(ctx context.Context, treasuryID uint64, spendID uint64) (bool, error)
	ListSpendsByTreasury(ctx context.Context, treasuryID uint64) ([]entities.SpendProposal, error)
	// ListOpenSpends returns every non-terminal spend proposal across all
	// treasuries, for the block poller sweep.
	ListOpenSpends(ctx context.Context) ([]entities.SpendProposal, error)
}

type MembershipRepository interface {
	SaveMembership(ctx context.Context, proposal entities.MembershipProposal) error
	GetMembership(ctx context.Context, treasuryID uint64, proposalID uint64) (entities.MembershipProposal, error)
	MembershipExists(ctx context.Context, treasuryID uint64, proposalID uint64) (bool, error)
	ListMembershipsByTreasury(ctx context.Context, treasuryID uint64) ([]entities.MembershipProposal, error)
	ListOpenMemberships(ctx context.Context) ([]entities.MembershipProposal, error)
}

// NonceStore holds the last allocated id per namespace. Namespaces are
// "treasury" for the global treasury sequence and per-treasury scopes for
// spends and membership proposals.
type NonceStore interface {
	GetNonce(ctx context.Context, namespace string) (uint64, error)
	PutNonce(ctx context.Context, namespace string, value uint64) error
}

// VoteOutcome is the vote service's answer for an open vote.
type VoteOutcome string

const (
	VoteOutcomeApproved VoteOutcome = "approved"
	VoteOutcomeRejected VoteOutcome = "rejected"
	VoteOutcomePending  VoteOutcome = "pending"
)

// Threshold is the share of the electorate that must approve, in percent.
// Both proposal machines currently open votes at the unanimous threshold.
type Threshold struct {
	ApprovalPercent uint8
}

func UnanimousThreshold() Threshold {
	return Threshold{ApprovalPercent: 100}
}

// VoteService opens equally-weighted votes over an org's membership and
// reports their outcome. Votes stay open across blocks until resolved.
type VoteService interface {
	OpenVote(ctx context.Context, orgID uint64, threshold Threshold) (uint64, error)
	Outcome(ctx context.Context, voteID uint64) (VoteOutcome, error)
}

// OrgService is the group-membership/share-registry collaborator.
type OrgService interface {
	IsMember(ctx context.Context, orgID uint64, account string) (bool, error)
	IsSupervisor(ctx context.Context, orgID uint64, account string) (bool, error)
	// CanIssueShares is the mint precondition checked before the tribute
	// transfer so membership execution stays all-or-nothing.
	CanIssueShares(ctx context.Context, orgID uint64, account string, amount uint64) (bool, error)
	IssueShares(ctx context.Context, orgID uint64, account string, amount uint64, batch bool) error
	// MemberWeights returns ownership weight per member, used for pro-rata
	// close-out distribution.
	MemberWeights(ctx context.Context, orgID uint64) (map[string]uint64, error)
}

// Distributor pays out a custodial balance across an org's members by
// ownership weight when a treasury closes.
type Distributor interface {
	Distribute(ctx context.Context, from string, orgID uint64, remainderTo string, amount uint64) error
}

// Ledger is the conserved-value transfer boundary. Every fund movement the
// proposal machines perform goes through it.
type Ledger interface {
	Transfer(ctx context.Context, from string, to string, amount uint64, keepAlive bool) error
	TotalBalance(ctx context.Context, account string) (uint64, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}
