package workers

import (
	"context"
	"log/slog"
	"time"

	application "daobank/contexts/governance-core/treasury-service/application"
	"daobank/contexts/governance-core/treasury-service/application/commands"
	"daobank/contexts/governance-core/treasury-service/ports"
)

// SweepReport summarizes one block's poll sweep.
type SweepReport struct {
	Block              uint64
	SpendsPolled       int
	MembershipsPolled  int
	PollFailures       int
	SpendSweepRan      bool
	MembershipSweepRan bool
}

// BlockPoller runs once per block. On each configured cadence it enumerates
// every open proposal of that kind across all treasuries and polls it,
// emitting a per-proposal notification of the resulting state. Sweep cost is
// proportional to the number of open proposals.
type BlockPoller struct {
	Spends            ports.SpendRepository
	Memberships       ports.MembershipRepository
	SpendMachine      commands.SpendUseCase
	MembershipMachine commands.MembershipUseCase
	Outbox            ports.OutboxWriter
	Clock             ports.Clock
	SpendCadence      uint64
	MembershipCadence uint64
	Logger            *slog.Logger
}

// RunOnce advances vote-gated proposals for the given block number. Blocks
// that match no cadence are a no-op. A failing proposal never stops the
// sweep: its error is logged and counted, and the remaining open proposals
// are still polled, the same way the chain discards per-proposal poll errors
// at block finalization.
func (p BlockPoller) RunOnce(ctx context.Context, block uint64) (SweepReport, error) {
	logger := application.ResolveLogger(p.Logger)
	report := SweepReport{Block: block}
	if block == 0 {
		return report, nil
	}

	if p.SpendCadence > 0 && block%p.SpendCadence == 0 {
		report.SpendSweepRan = true
		open, err := p.Spends.ListOpenSpends(ctx)
		if err != nil {
			logger.Error("spend poll sweep listing failed",
				"event", "treasury_spend_sweep_list_failed",
				"module", "governance-core/treasury-service",
				"layer", "worker",
				"block", block,
				"error", err.Error(),
			)
			return report, err
		}
		for _, proposal := range open {
			state, err := p.SpendMachine.Poll(ctx, proposal.TreasuryID, proposal.SpendID)
			if err != nil {
				report.PollFailures++
				logger.Error("spend poll failed",
					"event", "treasury_spend_poll_failed",
					"module", "governance-core/treasury-service",
					"layer", "worker",
					"block", block,
					"treasury_id", proposal.TreasuryID,
					"spend_id", proposal.SpendID,
					"error", err.Error(),
				)
				continue
			}
			report.SpendsPolled++
			if err := p.appendEvent(ctx, commands.EventSpendPolled, proposal.TreasuryID, map[string]any{
				"spend_id": proposal.SpendID,
				"state":    string(state),
				"block":    block,
			}); err != nil {
				report.PollFailures++
				logger.Error("spend poll notification failed",
					"event", "treasury_spend_poll_notify_failed",
					"module", "governance-core/treasury-service",
					"layer", "worker",
					"block", block,
					"treasury_id", proposal.TreasuryID,
					"spend_id", proposal.SpendID,
					"error", err.Error(),
				)
			}
		}
	}

	if p.MembershipCadence > 0 && block%p.MembershipCadence == 0 {
		report.MembershipSweepRan = true
		open, err := p.Memberships.ListOpenMemberships(ctx)
		if err != nil {
			logger.Error("membership poll sweep listing failed",
				"event", "treasury_membership_sweep_list_failed",
				"module", "governance-core/treasury-service",
				"layer", "worker",
				"block", block,
				"error", err.Error(),
			)
			return report, err
		}
		for _, proposal := range open {
			state, err := p.MembershipMachine.Poll(ctx, proposal.TreasuryID, proposal.ProposalID)
			if err != nil {
				report.PollFailures++
				logger.Error("membership poll failed",
					"event", "treasury_membership_poll_failed",
					"module", "governance-core/treasury-service",
					"layer", "worker",
					"block", block,
					"treasury_id", proposal.TreasuryID,
					"proposal_id", proposal.ProposalID,
					"error", err.Error(),
				)
				continue
			}
			report.MembershipsPolled++
			if err := p.appendEvent(ctx, commands.EventMembershipPolled, proposal.TreasuryID, map[string]any{
				"proposal_id": proposal.ProposalID,
				"state":       string(state),
				"block":       block,
			}); err != nil {
				report.PollFailures++
				logger.Error("membership poll notification failed",
					"event", "treasury_membership_poll_notify_failed",
					"module", "governance-core/treasury-service",
					"layer", "worker",
					"block", block,
					"treasury_id", proposal.TreasuryID,
					"proposal_id", proposal.ProposalID,
					"error", err.Error(),
				)
			}
		}
	}

	if report.SpendSweepRan || report.MembershipSweepRan {
		logger.Info("block poll sweep completed",
			"event", "treasury_block_sweep_completed",
			"module", "governance-core/treasury-service",
			"layer", "worker",
			"block", block,
			"spends_polled", report.SpendsPolled,
			"memberships_polled", report.MembershipsPolled,
			"poll_failures", report.PollFailures,
		)
	}
	return report, nil
}

func (p BlockPoller) appendEvent(ctx context.Context, eventType string, treasuryID uint64, payload map[string]any) error {
	if p.Outbox == nil {
		return nil
	}
	now := time.Now().UTC()
	if p.Clock != nil {
		now = p.Clock.Now().UTC()
	}
	return p.Outbox.AppendOutbox(ctx, commands.NewTreasuryEnvelope(eventType, treasuryID, now, payload))
}
