package workers

import (
	"context"
	"testing"

	ledgermemory "daobank/contexts/governance-core/ledger-service/adapters/memory"
	ledgerapp "daobank/contexts/governance-core/ledger-service/application"
	"daobank/contexts/governance-core/treasury-service/adapters/memory"
	"daobank/contexts/governance-core/treasury-service/application/commands"
	"daobank/contexts/governance-core/treasury-service/domain/entities"
	"daobank/contexts/governance-core/treasury-service/ports"
)

type pollerFixture struct {
	store  *memory.Store
	ledger *ledgerapp.Ledger
	spends commands.SpendUseCase
	poller BlockPoller
}

func newPollerFixture(t *testing.T, spendCadence uint64, membershipCadence uint64) pollerFixture {
	t.Helper()
	store := memory.NewStore()
	ledger := ledgerapp.NewLedger(ledgermemory.NewStore(), 1, nil)
	store.AttachLedger(ledger)
	store.SeedOrg(3, "supervisor", map[string]uint64{"alice": 1, "bob": 1})
	if err := ledger.Endow(context.Background(), "alice", 1000); err != nil {
		t.Fatalf("endow failed: %v", err)
	}

	spends := commands.SpendUseCase{
		Treasuries: store,
		Spends:     store,
		Nonces:     store,
		Org:        store,
		Votes:      store,
		Ledger:     ledger,
		Outbox:     store,
		Clock:      store,
	}
	memberships := commands.MembershipUseCase{
		Treasuries:  store,
		Memberships: store,
		Nonces:      store,
		Org:         store,
		Votes:       store,
		Ledger:      ledger,
		Outbox:      store,
		Clock:       store,
	}

	return pollerFixture{
		store:  store,
		ledger: ledger,
		spends: spends,
		poller: BlockPoller{
			Spends:            store,
			Memberships:       store,
			SpendMachine:      spends,
			MembershipMachine: memberships,
			Outbox:            store,
			Clock:             store,
			SpendCadence:      spendCadence,
			MembershipCadence: membershipCadence,
		},
	}
}

// seedVotingSpend opens a treasury, proposes a spend, and pins its vote to
// the given outcome.
func (f pollerFixture) seedVotingSpend(t *testing.T, outcome ports.VoteOutcome) entities.SpendProposal {
	t.Helper()
	ctx := context.Background()

	treasuries := commands.TreasuryUseCase{
		Treasuries:  f.store,
		Nonces:      f.store,
		Org:         f.store,
		Ledger:      f.ledger,
		Distributor: f.store,
		Outbox:      f.store,
		Clock:       f.store,
		MinDeposit:  100,
	}
	treasury, err := treasuries.Open(ctx, commands.OpenTreasuryCommand{
		Opener:  "alice",
		OrgID:   3,
		Deposit: 150,
	})
	if err != nil {
		t.Fatalf("open treasury failed: %v", err)
	}

	proposal, err := f.spends.Propose(ctx, commands.ProposeSpendCommand{
		Caller:     "alice",
		TreasuryID: treasury.TreasuryID,
		Amount:     30,
		Dest:       "vendor",
	})
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	voteID, err := f.spends.TriggerVote(ctx, "alice", treasury.TreasuryID, proposal.SpendID)
	if err != nil {
		t.Fatalf("trigger vote failed: %v", err)
	}
	f.store.ForceOutcome(voteID, outcome)

	current, err := f.store.GetSpend(ctx, treasury.TreasuryID, proposal.SpendID)
	if err != nil {
		t.Fatalf("get spend failed: %v", err)
	}
	return current
}

func TestBlockPollerBlockZeroIsNoop(t *testing.T) {
	f := newPollerFixture(t, 1, 1)
	f.seedVotingSpend(t, ports.VoteOutcomeApproved)

	report, err := f.poller.RunOnce(context.Background(), 0)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.SpendSweepRan || report.MembershipSweepRan {
		t.Fatalf("block zero must not sweep: %+v", report)
	}
}

func TestBlockPollerSkipsOffCadenceBlocks(t *testing.T) {
	f := newPollerFixture(t, 5, 5)
	proposal := f.seedVotingSpend(t, ports.VoteOutcomeApproved)

	report, err := f.poller.RunOnce(context.Background(), 4)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.SpendSweepRan || report.SpendsPolled != 0 {
		t.Fatalf("block 4 with cadence 5 must not sweep: %+v", report)
	}

	current, err := f.store.GetSpend(context.Background(), proposal.TreasuryID, proposal.SpendID)
	if err != nil {
		t.Fatalf("get spend failed: %v", err)
	}
	if current.State != entities.SpendStateVoting {
		t.Fatalf("state advanced off cadence: %s", current.State)
	}
}

func TestBlockPollerAdvancesApprovedSpendsOnCadence(t *testing.T) {
	f := newPollerFixture(t, 5, 10)
	proposal := f.seedVotingSpend(t, ports.VoteOutcomeApproved)
	before := f.store.PendingOutboxCount()

	report, err := f.poller.RunOnce(context.Background(), 5)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !report.SpendSweepRan || report.SpendsPolled != 1 {
		t.Fatalf("expected one polled spend: %+v", report)
	}
	if report.MembershipSweepRan {
		t.Fatal("membership cadence 10 must not fire at block 5")
	}

	current, err := f.store.GetSpend(context.Background(), proposal.TreasuryID, proposal.SpendID)
	if err != nil {
		t.Fatalf("get spend failed: %v", err)
	}
	if current.State != entities.SpendStateApprovedAndExecuted {
		t.Fatalf("state = %s, want approved_and_executed", current.State)
	}
	if f.store.PendingOutboxCount() <= before {
		t.Fatal("expected a polled notification in the outbox")
	}
}

func TestBlockPollerLeavesPendingVotesOpen(t *testing.T) {
	f := newPollerFixture(t, 1, 1)
	proposal := f.seedVotingSpend(t, ports.VoteOutcomePending)

	for block := uint64(1); block <= 3; block++ {
		if _, err := f.poller.RunOnce(context.Background(), block); err != nil {
			t.Fatalf("run at block %d failed: %v", block, err)
		}
	}

	current, err := f.store.GetSpend(context.Background(), proposal.TreasuryID, proposal.SpendID)
	if err != nil {
		t.Fatalf("get spend failed: %v", err)
	}
	if current.State != entities.SpendStateVoting {
		t.Fatalf("pending vote must keep the proposal voting, got %s", current.State)
	}
}

func TestBlockPollerSurvivesPoisonedProposal(t *testing.T) {
	f := newPollerFixture(t, 1, 1)
	ctx := context.Background()

	// A persisted voting spend whose vote the vote service no longer knows
	// about. It sorts first in the sweep and must not stop it.
	if err := f.store.SaveTreasury(ctx, entities.Treasury{TreasuryID: 1, OrgID: 3, OpenedBy: "alice"}); err != nil {
		t.Fatalf("save treasury failed: %v", err)
	}
	if err := f.store.SaveSpend(ctx, entities.SpendProposal{
		TreasuryID: 1,
		SpendID:    1,
		Amount:     10,
		Dest:       "vendor",
		Proposer:   "alice",
		State:      entities.SpendStateVoting,
		VoteID:     777,
	}); err != nil {
		t.Fatalf("save poisoned spend failed: %v", err)
	}

	if err := f.store.SaveTreasury(ctx, entities.Treasury{TreasuryID: 2, OrgID: 3, OpenedBy: "alice"}); err != nil {
		t.Fatalf("save treasury failed: %v", err)
	}
	if err := f.ledger.Endow(ctx, entities.CustodialAccount(2), 200); err != nil {
		t.Fatalf("endow custodial account failed: %v", err)
	}
	healthy, err := f.spends.Propose(ctx, commands.ProposeSpendCommand{
		Caller:     "alice",
		TreasuryID: 2,
		Amount:     30,
		Dest:       "vendor",
	})
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	voteID, err := f.spends.TriggerVote(ctx, "alice", 2, healthy.SpendID)
	if err != nil {
		t.Fatalf("trigger vote failed: %v", err)
	}
	f.store.ForceOutcome(voteID, ports.VoteOutcomeApproved)

	report, err := f.poller.RunOnce(ctx, 1)
	if err != nil {
		t.Fatalf("sweep must not fail on a poisoned proposal: %v", err)
	}
	if report.PollFailures != 1 {
		t.Fatalf("expected 1 poll failure, got %d", report.PollFailures)
	}
	if report.SpendsPolled != 1 {
		t.Fatalf("expected the healthy spend to be polled, got %d", report.SpendsPolled)
	}

	current, err := f.store.GetSpend(ctx, 2, healthy.SpendID)
	if err != nil {
		t.Fatalf("get spend failed: %v", err)
	}
	if current.State != entities.SpendStateApprovedAndExecuted {
		t.Fatalf("healthy spend state = %s, want approved_and_executed", current.State)
	}

	poisoned, err := f.store.GetSpend(ctx, 1, 1)
	if err != nil {
		t.Fatalf("get spend failed: %v", err)
	}
	if poisoned.State != entities.SpendStateVoting {
		t.Fatalf("poisoned spend must stay voting, got %s", poisoned.State)
	}
}
