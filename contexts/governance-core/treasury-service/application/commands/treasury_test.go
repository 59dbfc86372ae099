package commands

import (
	"context"
	"errors"
	"testing"

	ledgermemory "daobank/contexts/governance-core/ledger-service/adapters/memory"
	ledgerapp "daobank/contexts/governance-core/ledger-service/application"
	"daobank/contexts/governance-core/treasury-service/adapters/memory"
	"daobank/contexts/governance-core/treasury-service/domain/entities"
	domainerrors "daobank/contexts/governance-core/treasury-service/domain/errors"
)

const (
	testOrgID      = uint64(7)
	testSupervisor = "org-supervisor"
	testController = "sudo-key"
)

type fixture struct {
	store       *memory.Store
	ledger      *ledgerapp.Ledger
	treasuries  TreasuryUseCase
	spends      SpendUseCase
	memberships MembershipUseCase
}

// newFixture seeds an org with two members (alice weight 60, bob weight 40)
// and funds their accounts. Minimum treasury deposit is 100, existential
// deposit is 1.
func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	ledger := ledgerapp.NewLedger(ledgermemory.NewStore(), 1, nil)
	store.AttachLedger(ledger)
	store.SeedOrg(testOrgID, testSupervisor, map[string]uint64{
		"alice": 60,
		"bob":   40,
	})

	ctx := context.Background()
	for _, account := range []string{"alice", "bob", "carol"} {
		if err := ledger.Endow(ctx, account, 1000); err != nil {
			t.Fatalf("endow %s failed: %v", account, err)
		}
	}

	return fixture{
		store:  store,
		ledger: ledger,
		treasuries: TreasuryUseCase{
			Treasuries:  store,
			Nonces:      store,
			Org:         store,
			Ledger:      ledger,
			Distributor: store,
			Outbox:      store,
			Clock:       store,
			MinDeposit:  100,
		},
		spends: SpendUseCase{
			Treasuries: store,
			Spends:     store,
			Nonces:     store,
			Org:        store,
			Votes:      store,
			Ledger:     ledger,
			Outbox:     store,
			Clock:      store,
		},
		memberships: MembershipUseCase{
			Treasuries:  store,
			Memberships: store,
			Nonces:      store,
			Org:         store,
			Votes:       store,
			Ledger:      ledger,
			Outbox:      store,
			Clock:       store,
		},
	}
}

func (f fixture) openTreasury(t *testing.T, deposit uint64) entities.Treasury {
	t.Helper()
	treasury, err := f.treasuries.Open(context.Background(), OpenTreasuryCommand{
		Opener:     "alice",
		OrgID:      testOrgID,
		Deposit:    deposit,
		Controller: testController,
	})
	if err != nil {
		t.Fatalf("open treasury failed: %v", err)
	}
	return treasury
}

func (f fixture) balance(t *testing.T, account string) uint64 {
	t.Helper()
	balance, err := f.ledger.TotalBalance(context.Background(), account)
	if err != nil {
		t.Fatalf("balance lookup for %s failed: %v", account, err)
	}
	return balance
}

func TestOpenTreasuryDepositBelowMinimumMutatesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.treasuries.Open(context.Background(), OpenTreasuryCommand{
		Opener:  "alice",
		OrgID:   testOrgID,
		Deposit: 99,
	})
	if !errors.Is(err, domainerrors.ErrDepositBelowMinimum) {
		t.Fatalf("expected ErrDepositBelowMinimum, got %v", err)
	}

	if got := f.balance(t, "alice"); got != 1000 {
		t.Fatalf("opener balance changed on rejected open: %d", got)
	}
	count, err := f.store.CountTreasuries(context.Background())
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no treasuries, got %d", count)
	}
}

func TestOpenTreasurySecondForSameOrgRejected(t *testing.T) {
	f := newFixture(t)
	f.openTreasury(t, 150)

	_, err := f.treasuries.Open(context.Background(), OpenTreasuryCommand{
		Opener:  "bob",
		OrgID:   testOrgID,
		Deposit: 150,
	})
	if !errors.Is(err, domainerrors.ErrOrgAlreadyHasTreasury) {
		t.Fatalf("expected ErrOrgAlreadyHasTreasury, got %v", err)
	}
	if got := f.balance(t, "bob"); got != 1000 {
		t.Fatalf("second opener balance changed: %d", got)
	}
}

func TestOpenTreasuryRequiresOrgMembership(t *testing.T) {
	f := newFixture(t)

	_, err := f.treasuries.Open(context.Background(), OpenTreasuryCommand{
		Opener:  "carol",
		OrgID:   testOrgID,
		Deposit: 150,
	})
	if !errors.Is(err, domainerrors.ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
}

func TestOpenTreasuryFundsCustodialAccount(t *testing.T) {
	f := newFixture(t)
	treasury := f.openTreasury(t, 150)

	if treasury.TreasuryID == 0 {
		t.Fatal("treasury id must never be zero")
	}
	custodial := entities.CustodialAccount(treasury.TreasuryID)
	if got := f.balance(t, custodial); got != 150 {
		t.Fatalf("custodial balance = %d, want 150", got)
	}
	if got := f.balance(t, "alice"); got != 850 {
		t.Fatalf("opener balance = %d, want 850", got)
	}
	if f.store.PendingOutboxCount() == 0 {
		t.Fatal("expected an opened event in the outbox")
	}
}

func TestCloseTreasuryDistributesProRata(t *testing.T) {
	f := newFixture(t)
	treasury := f.openTreasury(t, 150)

	if err := f.treasuries.Close(context.Background(), CloseTreasuryCommand{
		Closer:     testController,
		TreasuryID: treasury.TreasuryID,
	}); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	custodial := entities.CustodialAccount(treasury.TreasuryID)
	if got := f.balance(t, custodial); got != 0 {
		t.Fatalf("custodial balance after close = %d, want 0", got)
	}
	// 150 split 60/40: alice gets 90 (plus her 850 after deposit), bob 60.
	if got := f.balance(t, "alice"); got != 940 {
		t.Fatalf("alice balance = %d, want 940", got)
	}
	if got := f.balance(t, "bob"); got != 1060 {
		t.Fatalf("bob balance = %d, want 1060", got)
	}

	exists, err := f.store.TreasuryExists(context.Background(), treasury.TreasuryID)
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if exists {
		t.Fatal("treasury must be removed after close")
	}

	// Slot is released, so the org can open a fresh treasury.
	reopened := f.openTreasury(t, 120)
	if reopened.TreasuryID == treasury.TreasuryID {
		t.Fatalf("treasury ids must not be reused: %d", reopened.TreasuryID)
	}
}

func TestCloseTreasuryRequiresController(t *testing.T) {
	f := newFixture(t)
	treasury := f.openTreasury(t, 150)

	err := f.treasuries.Close(context.Background(), CloseTreasuryCommand{
		Closer:     "alice",
		TreasuryID: treasury.TreasuryID,
	})
	if !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestCloseTreasuryWithoutControllerFallsBackToSupervisor(t *testing.T) {
	f := newFixture(t)
	treasury, err := f.treasuries.Open(context.Background(), OpenTreasuryCommand{
		Opener:  "alice",
		OrgID:   testOrgID,
		Deposit: 150,
	})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	err = f.treasuries.Close(context.Background(), CloseTreasuryCommand{
		Closer:     "bob",
		TreasuryID: treasury.TreasuryID,
	})
	if !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for plain member, got %v", err)
	}

	if err := f.treasuries.Close(context.Background(), CloseTreasuryCommand{
		Closer:     testSupervisor,
		TreasuryID: treasury.TreasuryID,
	}); err != nil {
		t.Fatalf("supervisor close failed: %v", err)
	}
}
