package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "daobank/contexts/governance-core/treasury-service/application"
	"daobank/contexts/governance-core/treasury-service/domain/entities"
	domainerrors "daobank/contexts/governance-core/treasury-service/domain/errors"
	"daobank/contexts/governance-core/treasury-service/ports"
)

// ProposeMembershipCommand sponsors an applicant for org membership against a
// tribute paid into the treasury.
type ProposeMembershipCommand struct {
	Caller          string
	TreasuryID      uint64
	Tribute         uint64
	SharesRequested uint64
	Applicant       string
}

// MembershipUseCase mirrors the spend machine; successful execution
// additionally moves the tribute into the custodial account and mints the
// requested shares. Execution is all-or-nothing: the mint precondition is
// confirmed before the transfer, and the transfer is reversed if minting
// still fails.
type MembershipUseCase struct {
	Treasuries  ports.TreasuryRepository
	Memberships ports.MembershipRepository
	Nonces      ports.NonceStore
	Org         ports.OrgService
	Votes       ports.VoteService
	Ledger      ports.Ledger
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	Logger      *slog.Logger
}

// Propose records a membership proposal in waiting_for_approval. The sponsor
// must already be an org member.
func (uc MembershipUseCase) Propose(ctx context.Context, cmd ProposeMembershipCommand) (entities.MembershipProposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	caller := strings.TrimSpace(cmd.Caller)

	treasury, err := uc.Treasuries.GetTreasury(ctx, cmd.TreasuryID)
	if err != nil {
		return entities.MembershipProposal{}, err
	}
	member, err := uc.Org.IsMember(ctx, treasury.OrgID, caller)
	if err != nil {
		return entities.MembershipProposal{}, err
	}
	if !member {
		return entities.MembershipProposal{}, domainerrors.ErrNotAMember
	}

	proposalID, err := nextID(ctx, uc.Nonces, membershipNamespace(cmd.TreasuryID), func(ctx context.Context, id uint64) (bool, error) {
		return uc.Memberships.MembershipExists(ctx, cmd.TreasuryID, id)
	})
	if err != nil {
		return entities.MembershipProposal{}, err
	}

	now := uc.now()
	proposal := entities.MembershipProposal{
		TreasuryID:      cmd.TreasuryID,
		ProposalID:      proposalID,
		Tribute:         cmd.Tribute,
		SharesRequested: cmd.SharesRequested,
		Applicant:       strings.TrimSpace(cmd.Applicant),
		Proposer:        caller,
		State:           entities.ProposalStateWaitingForApproval,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.Memberships.SaveMembership(ctx, proposal); err != nil {
		return entities.MembershipProposal{}, err
	}
	if err := uc.appendEvent(ctx, EventMembershipProposed, cmd.TreasuryID, now, map[string]any{
		"proposal_id":      proposalID,
		"tribute":          cmd.Tribute,
		"shares_requested": cmd.SharesRequested,
		"applicant":        proposal.Applicant,
		"proposer":         caller,
	}); err != nil {
		return entities.MembershipProposal{}, err
	}

	logger.Info("membership proposed",
		"event", "treasury_membership_proposed",
		"module", "governance-core/treasury-service",
		"layer", "application",
		"treasury_id", cmd.TreasuryID,
		"proposal_id", proposalID,
		"applicant", proposal.Applicant,
	)
	return proposal, nil
}

// TriggerVote opens the unanimous vote over the treasury's org. Only valid
// from waiting_for_approval.
func (uc MembershipUseCase) TriggerVote(ctx context.Context, caller string, treasuryID uint64, proposalID uint64) (uint64, error) {
	logger := application.ResolveLogger(uc.Logger)
	caller = strings.TrimSpace(caller)

	treasury, err := uc.Treasuries.GetTreasury(ctx, treasuryID)
	if err != nil {
		return 0, err
	}
	member, err := uc.Org.IsMember(ctx, treasury.OrgID, caller)
	if err != nil {
		return 0, err
	}
	if !member {
		return 0, domainerrors.ErrNotAMember
	}
	proposal, err := uc.Memberships.GetMembership(ctx, treasuryID, proposalID)
	if err != nil {
		return 0, err
	}
	if !proposal.CanTriggerVote() {
		return 0, domainerrors.ErrInvalidStateForVote
	}

	voteID, err := uc.Votes.OpenVote(ctx, treasury.OrgID, ports.UnanimousThreshold())
	if err != nil {
		return 0, err
	}
	now := uc.now()
	proposal.State = entities.ProposalStateVoting
	proposal.VoteID = voteID
	proposal.UpdatedAt = now
	if err := uc.Memberships.SaveMembership(ctx, proposal); err != nil {
		return 0, err
	}
	if err := uc.appendEvent(ctx, EventMembershipVoteTriggered, treasuryID, now, map[string]any{
		"proposal_id": proposalID,
		"vote_id":     voteID,
		"caller":      caller,
	}); err != nil {
		return 0, err
	}

	logger.Info("membership vote triggered",
		"event", "treasury_membership_vote_triggered",
		"module", "governance-core/treasury-service",
		"layer", "application",
		"treasury_id", treasuryID,
		"proposal_id", proposalID,
		"vote_id", voteID,
	)
	return voteID, nil
}

// Poll re-checks a proposal: a no-op unless it is voting, in which case an
// approved outcome triggers execution. Idempotent on terminal states.
func (uc MembershipUseCase) Poll(ctx context.Context, treasuryID uint64, proposalID uint64) (entities.ProposalState, error) {
	treasury, err := uc.Treasuries.GetTreasury(ctx, treasuryID)
	if err != nil {
		return "", err
	}
	proposal, err := uc.Memberships.GetMembership(ctx, treasuryID, proposalID)
	if err != nil {
		return "", err
	}
	if proposal.State != entities.ProposalStateVoting {
		return proposal.State, nil
	}

	outcome, err := uc.Votes.Outcome(ctx, proposal.VoteID)
	if err != nil {
		return "", err
	}
	if outcome != ports.VoteOutcomeApproved {
		return proposal.State, nil
	}
	return uc.executeMembership(ctx, treasury, proposal)
}

// executeMembership performs tribute transfer and share mint as a unit. Any
// failure lands the proposal in approved_but_not_executed with no observable
// partial effect.
func (uc MembershipUseCase) executeMembership(
	ctx context.Context,
	treasury entities.Treasury,
	proposal entities.MembershipProposal,
) (entities.ProposalState, error) {
	logger := application.ResolveLogger(uc.Logger)
	custodial := entities.CustodialAccount(proposal.TreasuryID)

	executed := false
	canMint, err := uc.Org.CanIssueShares(ctx, treasury.OrgID, proposal.Applicant, proposal.SharesRequested)
	if err != nil {
		return "", err
	}
	if canMint {
		if err := uc.Ledger.Transfer(ctx, proposal.Applicant, custodial, proposal.Tribute, true); err == nil {
			if mintErr := uc.Org.IssueShares(ctx, treasury.OrgID, proposal.Applicant, proposal.SharesRequested, false); mintErr == nil {
				executed = true
			} else {
				// Precondition raced; hand the tribute back before degrading.
				if reverseErr := uc.Ledger.Transfer(ctx, custodial, proposal.Applicant, proposal.Tribute, false); reverseErr != nil {
					logger.Error("membership tribute reversal failed",
						"event", "treasury_membership_reversal_failed",
						"module", "governance-core/treasury-service",
						"layer", "application",
						"treasury_id", proposal.TreasuryID,
						"proposal_id", proposal.ProposalID,
						"error", reverseErr.Error(),
					)
					return "", reverseErr
				}
			}
		}
	}

	if executed {
		proposal.State = entities.ProposalStateApprovedAndExecuted
	} else {
		proposal.State = entities.ProposalStateApprovedButNotExecuted
	}
	proposal.UpdatedAt = uc.now()
	if err := uc.Memberships.SaveMembership(ctx, proposal); err != nil {
		return "", err
	}
	return proposal.State, nil
}

func (uc MembershipUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc MembershipUseCase) appendEvent(
	ctx context.Context,
	eventType string,
	treasuryID uint64,
	occurredAt time.Time,
	payload map[string]any,
) error {
	if uc.Outbox == nil {
		return nil
	}
	return uc.Outbox.AppendOutbox(ctx, NewTreasuryEnvelope(eventType, treasuryID, occurredAt, payload))
}
