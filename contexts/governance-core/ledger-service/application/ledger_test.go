package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daobank/contexts/governance-core/ledger-service/adapters/memory"
	domainerrors "daobank/contexts/governance-core/ledger-service/domain/errors"
)

func newTestLedger(t *testing.T, existentialDeposit uint64) (*Ledger, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewLedger(store, existentialDeposit, nil), store
}

func requireConservation(t *testing.T, ledger *Ledger) {
	t.Helper()
	ok, err := ledger.ConservationHolds(context.Background())
	require.NoError(t, err)
	require.True(t, ok, "sum(balances) must equal issuance plus pending imbalance")
}

func TestEndowRaisesIssuanceAndBalance(t *testing.T) {
	ledger, _ := newTestLedger(t, 10)
	ctx := context.Background()

	require.NoError(t, ledger.Endow(ctx, "alice", 500))

	balance, err := ledger.TotalBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), balance)
	assert.Equal(t, uint64(500), ledger.TotalIssuance())
	assert.Equal(t, int64(0), ledger.PendingImbalance())
	requireConservation(t, ledger)
}

func TestDepositBelowExistentialDepositRefusesNewAccount(t *testing.T) {
	ledger, store := newTestLedger(t, 10)
	ctx := context.Background()

	_, err := ledger.Deposit(ctx, "dust", 9)
	require.ErrorIs(t, err, domainerrors.ErrBelowExistentialDeposit)
	assert.Equal(t, 0, store.AccountCount())

	// Existing accounts can be topped up by any amount.
	require.NoError(t, ledger.Endow(ctx, "alice", 100))
	credited, err := ledger.Deposit(ctx, "alice", 1)
	require.NoError(t, err)
	ledger.SettlePositive(credited)
	requireConservation(t, ledger)
}

func TestWithdrawKeepAliveRefusesDroppingBelowExistentialDeposit(t *testing.T) {
	ledger, _ := newTestLedger(t, 10)
	ctx := context.Background()
	require.NoError(t, ledger.Endow(ctx, "alice", 100))

	_, err := ledger.Withdraw(ctx, "alice", 95, true)
	require.ErrorIs(t, err, domainerrors.ErrLivenessViolation)

	balance, err := ledger.TotalBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)
}

func TestWithdrawWithoutKeepAliveReapsAtExactlyZero(t *testing.T) {
	ledger, store := newTestLedger(t, 10)
	ctx := context.Background()
	require.NoError(t, ledger.Endow(ctx, "alice", 100))

	// Leaving dust between zero and the existential deposit is never allowed.
	_, err := ledger.Withdraw(ctx, "alice", 95, false)
	require.ErrorIs(t, err, domainerrors.ErrBelowExistentialDeposit)

	taken, err := ledger.Withdraw(ctx, "alice", 100, false)
	require.NoError(t, err)
	assert.Equal(t, 0, store.AccountCount(), "emptied account must be reaped")
	ledger.SettleNegative(taken)
	assert.Equal(t, uint64(0), ledger.TotalIssuance())
	requireConservation(t, ledger)
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	ledger, _ := newTestLedger(t, 10)
	ctx := context.Background()
	require.NoError(t, ledger.Endow(ctx, "alice", 100))

	_, err := ledger.Withdraw(ctx, "alice", 101, false)
	require.ErrorIs(t, err, domainerrors.ErrInsufficientBalance)

	_, err = ledger.Withdraw(ctx, "ghost", 1, false)
	require.ErrorIs(t, err, domainerrors.ErrAccountNotFound)
}

func TestTransferConservesValue(t *testing.T) {
	ledger, _ := newTestLedger(t, 10)
	ctx := context.Background()
	require.NoError(t, ledger.Endow(ctx, "alice", 500))

	require.NoError(t, ledger.Transfer(ctx, "alice", "bob", 200, true))

	aliceBalance, err := ledger.TotalBalance(ctx, "alice")
	require.NoError(t, err)
	bobBalance, err := ledger.TotalBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(300), aliceBalance)
	assert.Equal(t, uint64(200), bobBalance)
	assert.Equal(t, uint64(500), ledger.TotalIssuance())
	assert.Equal(t, int64(0), ledger.PendingImbalance())
	requireConservation(t, ledger)
}

func TestTransferRollsBackWhenDepositRefused(t *testing.T) {
	ledger, store := newTestLedger(t, 10)
	ctx := context.Background()
	require.NoError(t, ledger.Endow(ctx, "alice", 500))

	// 5 is below the existential deposit, so the new account is refused and
	// the withdrawal must be undone.
	err := ledger.Transfer(ctx, "alice", "bob", 5, true)
	require.ErrorIs(t, err, domainerrors.ErrBelowExistentialDeposit)

	balance, err := ledger.TotalBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), balance)
	assert.Equal(t, 1, store.AccountCount())
	assert.Equal(t, int64(0), ledger.PendingImbalance())
	requireConservation(t, ledger)
}

func TestSlashReportsShortfall(t *testing.T) {
	ledger, _ := newTestLedger(t, 10)
	ctx := context.Background()
	require.NoError(t, ledger.Endow(ctx, "alice", 100))

	taken, shortfall, err := ledger.Slash(ctx, "alice", 150)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), taken.Peek())
	assert.Equal(t, uint64(50), shortfall)

	ledger.SettleNegative(taken)
	assert.Equal(t, uint64(0), ledger.TotalIssuance())
	requireConservation(t, ledger)
}

func TestIssueAndResolveCreditsAccount(t *testing.T) {
	ledger, _ := newTestLedger(t, 10)
	ctx := context.Background()

	issued := ledger.Issue(250)
	assert.Equal(t, uint64(250), ledger.TotalIssuance())
	require.NoError(t, ledger.Resolve(ctx, "treasury", issued))

	balance, err := ledger.TotalBalance(ctx, "treasury")
	require.NoError(t, err)
	assert.Equal(t, uint64(250), balance)
	assert.Equal(t, int64(0), ledger.PendingImbalance())
	requireConservation(t, ledger)
}

func TestBurnAndSettleLowersIssuance(t *testing.T) {
	ledger, _ := newTestLedger(t, 10)
	ctx := context.Background()
	require.NoError(t, ledger.Endow(ctx, "alice", 100))

	burned := ledger.Burn(40)
	assert.Equal(t, uint64(60), ledger.TotalIssuance())

	// Fund the burn from alice so conservation is restored.
	taken, err := ledger.Withdraw(ctx, "alice", 40, true)
	require.NoError(t, err)
	ledger.Settle(burned.Offset(taken))

	assert.Equal(t, uint64(60), ledger.TotalIssuance())
	assert.Equal(t, int64(0), ledger.PendingImbalance())
	requireConservation(t, ledger)
}

func TestReserveAndUnreserve(t *testing.T) {
	ledger, _ := newTestLedger(t, 10)
	ctx := context.Background()
	require.NoError(t, ledger.Endow(ctx, "alice", 100))

	require.NoError(t, ledger.Reserve(ctx, "alice", 70))

	free, err := ledger.FreeBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(30), free)

	total, err := ledger.TotalBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), total, "reserved funds still count toward total")

	// Reserved funds are not withdrawable.
	_, err = ledger.Withdraw(ctx, "alice", 50, false)
	require.ErrorIs(t, err, domainerrors.ErrInsufficientBalance)

	remaining, err := ledger.Unreserve(ctx, "alice", 80)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), remaining, "unreserve reports what could not be released")

	free, err = ledger.FreeBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), free)
	requireConservation(t, ledger)
}
