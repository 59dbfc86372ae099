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

// ProposeSpendCommand requests a payout from a treasury's custodial account.
type ProposeSpendCommand struct {
	Caller     string
	TreasuryID uint64
	Amount     uint64
	Dest       string
}

// SpendUseCase drives spend proposals through the vote-gated state machine:
// waiting -> voting -> approved_and_executed | approved_but_not_executed.
// Transitions are strictly forward and terminal rows are kept for audit.
type SpendUseCase struct {
	Treasuries ports.TreasuryRepository
	Spends     ports.SpendRepository
	Nonces     ports.NonceStore
	Org        ports.OrgService
	Votes      ports.VoteService
	Ledger     ports.Ledger
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	Logger     *slog.Logger
}

// Propose records a new spend proposal in waiting_for_approval. The caller
// must belong to the treasury's organization.
func (uc SpendUseCase) Propose(ctx context.Context, cmd ProposeSpendCommand) (entities.SpendProposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	caller := strings.TrimSpace(cmd.Caller)

	treasury, err := uc.Treasuries.GetTreasury(ctx, cmd.TreasuryID)
	if err != nil {
		return entities.SpendProposal{}, err
	}
	member, err := uc.Org.IsMember(ctx, treasury.OrgID, caller)
	if err != nil {
		return entities.SpendProposal{}, err
	}
	if !member {
		return entities.SpendProposal{}, domainerrors.ErrNotAMember
	}

	spendID, err := nextID(ctx, uc.Nonces, spendNamespace(cmd.TreasuryID), func(ctx context.Context, id uint64) (bool, error) {
		return uc.Spends.SpendExists(ctx, cmd.TreasuryID, id)
	})
	if err != nil {
		return entities.SpendProposal{}, err
	}

	now := uc.now()
	proposal := entities.SpendProposal{
		TreasuryID: cmd.TreasuryID,
		SpendID:    spendID,
		Amount:     cmd.Amount,
		Dest:       strings.TrimSpace(cmd.Dest),
		Proposer:   caller,
		State:      entities.SpendStateWaitingForApproval,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.Spends.SaveSpend(ctx, proposal); err != nil {
		return entities.SpendProposal{}, err
	}
	if err := uc.appendEvent(ctx, EventSpendProposed, cmd.TreasuryID, now, map[string]any{
		"spend_id": spendID,
		"amount":   cmd.Amount,
		"dest":     proposal.Dest,
		"proposer": caller,
	}); err != nil {
		return entities.SpendProposal{}, err
	}

	logger.Info("spend proposed",
		"event", "treasury_spend_proposed",
		"module", "governance-core/treasury-service",
		"layer", "application",
		"treasury_id", cmd.TreasuryID,
		"spend_id", spendID,
		"amount", cmd.Amount,
	)
	return proposal, nil
}

// TriggerVote opens an equally-weighted unanimous vote over the treasury's
// org and moves the proposal into voting. Only valid from
// waiting_for_approval.
func (uc SpendUseCase) TriggerVote(ctx context.Context, caller string, treasuryID uint64, spendID uint64) (uint64, error) {
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
	proposal, err := uc.Spends.GetSpend(ctx, treasuryID, spendID)
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
	proposal.State = entities.SpendStateVoting
	proposal.VoteID = voteID
	proposal.UpdatedAt = now
	if err := uc.Spends.SaveSpend(ctx, proposal); err != nil {
		return 0, err
	}
	if err := uc.appendEvent(ctx, EventSpendVoteTriggered, treasuryID, now, map[string]any{
		"spend_id": spendID,
		"vote_id":  voteID,
		"caller":   caller,
	}); err != nil {
		return 0, err
	}

	logger.Info("spend vote triggered",
		"event", "treasury_spend_vote_triggered",
		"module", "governance-core/treasury-service",
		"layer", "application",
		"treasury_id", treasuryID,
		"spend_id", spendID,
		"vote_id", voteID,
	)
	return voteID, nil
}

// SudoApprove lets the treasury controller finalize a proposal without
// waiting on a vote. Once authorization and state checks pass it always lands
// in a terminal state: executed when the transfer clears, degraded otherwise.
func (uc SpendUseCase) SudoApprove(ctx context.Context, caller string, treasuryID uint64, spendID uint64) (entities.SpendState, error) {
	logger := application.ResolveLogger(uc.Logger)
	caller = strings.TrimSpace(caller)

	treasury, err := uc.Treasuries.GetTreasury(ctx, treasuryID)
	if err != nil {
		return "", err
	}
	if !treasury.IsController(caller) {
		return "", domainerrors.ErrNotAuthorized
	}
	proposal, err := uc.Spends.GetSpend(ctx, treasuryID, spendID)
	if err != nil {
		return "", err
	}
	if proposal.Finalized() {
		return "", domainerrors.ErrAlreadyFinalized
	}

	state, err := uc.executeSpend(ctx, proposal)
	if err != nil {
		return "", err
	}
	now := uc.now()
	if err := uc.appendEvent(ctx, EventSpendSudoApproved, treasuryID, now, map[string]any{
		"spend_id": spendID,
		"caller":   caller,
		"state":    string(state),
	}); err != nil {
		return "", err
	}

	logger.Info("spend sudo approved",
		"event", "treasury_spend_sudo_approved",
		"module", "governance-core/treasury-service",
		"layer", "application",
		"treasury_id", treasuryID,
		"spend_id", spendID,
		"state", string(state),
	)
	return state, nil
}

// Poll re-checks a proposal: a no-op unless it is voting, in which case the
// vote outcome decides whether to execute. Idempotent on terminal states.
func (uc SpendUseCase) Poll(ctx context.Context, treasuryID uint64, spendID uint64) (entities.SpendState, error) {
	exists, err := uc.Treasuries.TreasuryExists(ctx, treasuryID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", domainerrors.ErrTreasuryNotFound
	}
	proposal, err := uc.Spends.GetSpend(ctx, treasuryID, spendID)
	if err != nil {
		return "", err
	}
	if proposal.State != entities.SpendStateVoting {
		return proposal.State, nil
	}

	outcome, err := uc.Votes.Outcome(ctx, proposal.VoteID)
	if err != nil {
		return "", err
	}
	if outcome != ports.VoteOutcomeApproved {
		// Vote stays open across blocks; nothing to advance yet.
		return proposal.State, nil
	}
	return uc.executeSpend(ctx, proposal)
}

// executeSpend attempts the custodial transfer and persists the resulting
// terminal state. A transfer failure is execution-time degradation, not a
// command failure.
func (uc SpendUseCase) executeSpend(ctx context.Context, proposal entities.SpendProposal) (entities.SpendState, error) {
	custodial := entities.CustodialAccount(proposal.TreasuryID)
	if err := uc.Ledger.Transfer(ctx, custodial, proposal.Dest, proposal.Amount, true); err != nil {
		proposal.State = entities.SpendStateApprovedButNotExecuted
	} else {
		proposal.State = entities.SpendStateApprovedAndExecuted
	}
	proposal.UpdatedAt = uc.now()
	if err := uc.Spends.SaveSpend(ctx, proposal); err != nil {
		return "", err
	}
	return proposal.State, nil
}

func (uc SpendUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc SpendUseCase) appendEvent(
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
