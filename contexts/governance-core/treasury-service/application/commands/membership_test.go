package commands

import (
	"context"
	"errors"
	"testing"

	"daobank/contexts/governance-core/treasury-service/domain/entities"
	domainerrors "daobank/contexts/governance-core/treasury-service/domain/errors"
)

func TestMembershipLifecycleMintsShares(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	treasury := f.openTreasury(t, 150)

	proposal, err := f.memberships.Propose(ctx, ProposeMembershipCommand{
		Caller:          "alice",
		TreasuryID:      treasury.TreasuryID,
		Tribute:         40,
		SharesRequested: 10,
		Applicant:       "carol",
	})
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	if proposal.State != entities.ProposalStateWaitingForApproval {
		t.Fatalf("new proposal state = %s", proposal.State)
	}

	voteID, err := f.memberships.TriggerVote(ctx, "bob", treasury.TreasuryID, proposal.ProposalID)
	if err != nil {
		t.Fatalf("trigger vote failed: %v", err)
	}
	for _, voter := range []string{"alice", "bob"} {
		if err := f.store.CastVote(voteID, voter, true); err != nil {
			t.Fatalf("cast vote failed: %v", err)
		}
	}

	state, err := f.memberships.Poll(ctx, treasury.TreasuryID, proposal.ProposalID)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if state != entities.ProposalStateApprovedAndExecuted {
		t.Fatalf("state = %s, want approved_and_executed", state)
	}

	custodial := entities.CustodialAccount(treasury.TreasuryID)
	if got := f.balance(t, custodial); got != 190 {
		t.Fatalf("custodial balance = %d, want 190", got)
	}
	if got := f.balance(t, "carol"); got != 960 {
		t.Fatalf("applicant balance = %d, want 960", got)
	}
	if shares := f.store.Shares(testOrgID, "carol"); shares != 10 {
		t.Fatalf("applicant shares = %d, want 10", shares)
	}
	member, err := f.store.IsMember(ctx, testOrgID, "carol")
	if err != nil {
		t.Fatalf("membership lookup failed: %v", err)
	}
	if !member {
		t.Fatal("applicant must be an org member after execution")
	}
}

func TestMembershipExecutionDegradesWhenMintBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	treasury := f.openTreasury(t, 150)

	proposal, err := f.memberships.Propose(ctx, ProposeMembershipCommand{
		Caller:          "alice",
		TreasuryID:      treasury.TreasuryID,
		Tribute:         40,
		SharesRequested: 10,
		Applicant:       "carol",
	})
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	voteID, err := f.memberships.TriggerVote(ctx, "alice", treasury.TreasuryID, proposal.ProposalID)
	if err != nil {
		t.Fatalf("trigger vote failed: %v", err)
	}
	for _, voter := range []string{"alice", "bob"} {
		if err := f.store.CastVote(voteID, voter, true); err != nil {
			t.Fatalf("cast vote failed: %v", err)
		}
	}

	f.store.FreezeIssuance(testOrgID, true)

	state, err := f.memberships.Poll(ctx, treasury.TreasuryID, proposal.ProposalID)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if state != entities.ProposalStateApprovedButNotExecuted {
		t.Fatalf("state = %s, want approved_but_not_executed", state)
	}
	// Tribute untouched: the mint precondition failed before the transfer.
	if got := f.balance(t, "carol"); got != 1000 {
		t.Fatalf("applicant balance = %d, want 1000", got)
	}
	if shares := f.store.Shares(testOrgID, "carol"); shares != 0 {
		t.Fatalf("applicant shares = %d, want 0", shares)
	}
}

func TestMembershipProposeRequiresSponsorMembership(t *testing.T) {
	f := newFixture(t)
	treasury := f.openTreasury(t, 150)

	_, err := f.memberships.Propose(context.Background(), ProposeMembershipCommand{
		Caller:          "carol",
		TreasuryID:      treasury.TreasuryID,
		Tribute:         40,
		SharesRequested: 10,
		Applicant:       "carol",
	})
	if !errors.Is(err, domainerrors.ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
}

func TestMembershipTriggerVoteTwiceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	treasury := f.openTreasury(t, 150)

	proposal, err := f.memberships.Propose(ctx, ProposeMembershipCommand{
		Caller:          "alice",
		TreasuryID:      treasury.TreasuryID,
		Tribute:         40,
		SharesRequested: 10,
		Applicant:       "carol",
	})
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	if _, err := f.memberships.TriggerVote(ctx, "alice", treasury.TreasuryID, proposal.ProposalID); err != nil {
		t.Fatalf("first trigger failed: %v", err)
	}
	_, err = f.memberships.TriggerVote(ctx, "alice", treasury.TreasuryID, proposal.ProposalID)
	if !errors.Is(err, domainerrors.ErrInvalidStateForVote) {
		t.Fatalf("expected ErrInvalidStateForVote, got %v", err)
	}
}
