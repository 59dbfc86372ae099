package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	ledgermemory "daobank/contexts/governance-core/ledger-service/adapters/memory"
	ledgerapp "daobank/contexts/governance-core/ledger-service/application"
	"daobank/contexts/governance-core/treasury-service/adapters/memory"
	"daobank/contexts/governance-core/treasury-service/application/queries"
	"daobank/contexts/governance-core/treasury-service/domain/entities"
	domainerrors "daobank/contexts/governance-core/treasury-service/domain/errors"
)

func newQueries(t *testing.T) (queries.TreasuryQueries, *memory.Store, *ledgerapp.Ledger) {
	t.Helper()
	store := memory.NewStore()
	ledger := ledgerapp.NewLedger(ledgermemory.NewStore(), 1, nil)
	store.AttachLedger(ledger)
	return queries.TreasuryQueries{
		Treasuries:  store,
		Spends:      store,
		Memberships: store,
		Ledger:      ledger,
	}, store, ledger
}

func seedTreasury(t *testing.T, store *memory.Store, treasuryID uint64, orgID uint64) {
	t.Helper()
	ctx := context.Background()
	err := store.SaveTreasury(ctx, entities.Treasury{
		TreasuryID: treasuryID,
		OrgID:      orgID,
		OpenedBy:   "alice",
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed treasury: %v", err)
	}
}

func TestBalanceReadsCustodialAccount(t *testing.T) {
	q, store, ledger := newQueries(t)
	ctx := context.Background()
	seedTreasury(t, store, 11, 3)
	if err := ledger.Endow(ctx, entities.CustodialAccount(11), 500); err != nil {
		t.Fatalf("endow custodial account: %v", err)
	}

	balance, err := q.Balance(ctx, 11)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 500 {
		t.Fatalf("expected balance 500, got %d", balance)
	}
}

func TestBalanceUnknownTreasuryFails(t *testing.T) {
	q, _, _ := newQueries(t)

	_, err := q.Balance(context.Background(), 99)
	if !errors.Is(err, domainerrors.ErrTreasuryNotFound) {
		t.Fatalf("expected ErrTreasuryNotFound, got %v", err)
	}
}

func TestExistenceProbes(t *testing.T) {
	q, store, _ := newQueries(t)
	ctx := context.Background()
	seedTreasury(t, store, 11, 3)
	if err := store.SaveSpend(ctx, entities.SpendProposal{
		TreasuryID: 11,
		SpendID:    4,
		Amount:     25,
		Dest:       "vendor",
		State:      entities.SpendStateWaitingForApproval,
	}); err != nil {
		t.Fatalf("seed spend: %v", err)
	}

	if ok, err := q.IsTreasury(ctx, 11); err != nil || !ok {
		t.Fatalf("expected treasury 11 to exist, got ok=%v err=%v", ok, err)
	}
	if ok, err := q.IsTreasury(ctx, 12); err != nil || ok {
		t.Fatalf("expected treasury 12 to be absent, got ok=%v err=%v", ok, err)
	}
	if ok, err := q.IsSpendProposal(ctx, 11, 4); err != nil || !ok {
		t.Fatalf("expected spend (11,4) to exist, got ok=%v err=%v", ok, err)
	}
	if ok, err := q.IsSpendProposal(ctx, 11, 5); err != nil || ok {
		t.Fatalf("expected spend (11,5) to be absent, got ok=%v err=%v", ok, err)
	}
	if ok, err := q.IsMembershipProposal(ctx, 11, 4); err != nil || ok {
		t.Fatalf("expected membership (11,4) to be absent, got ok=%v err=%v", ok, err)
	}
}

func TestTreasuryForOrgResolvesSingleOwner(t *testing.T) {
	q, store, _ := newQueries(t)
	ctx := context.Background()
	seedTreasury(t, store, 11, 3)

	treasury, err := q.TreasuryForOrg(ctx, 3)
	if err != nil {
		t.Fatalf("treasury for org: %v", err)
	}
	if treasury.TreasuryID != 11 {
		t.Fatalf("expected treasury 11, got %d", treasury.TreasuryID)
	}

	_, err = q.TreasuryForOrg(ctx, 4)
	if !errors.Is(err, domainerrors.ErrNoTreasuryForOrg) {
		t.Fatalf("expected ErrNoTreasuryForOrg, got %v", err)
	}
}

func TestTotalTreasuryCountTracksRegistry(t *testing.T) {
	q, store, _ := newQueries(t)
	ctx := context.Background()

	count, err := q.TotalTreasuryCount(ctx)
	if err != nil || count != 0 {
		t.Fatalf("expected empty registry, got count=%d err=%v", count, err)
	}

	seedTreasury(t, store, 11, 3)
	seedTreasury(t, store, 12, 4)
	count, err = q.TotalTreasuryCount(ctx)
	if err != nil || count != 2 {
		t.Fatalf("expected count 2, got count=%d err=%v", count, err)
	}

	if err := store.DeleteTreasury(ctx, 11); err != nil {
		t.Fatalf("delete treasury: %v", err)
	}
	count, err = q.TotalTreasuryCount(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected count 1 after delete, got count=%d err=%v", count, err)
	}
}
