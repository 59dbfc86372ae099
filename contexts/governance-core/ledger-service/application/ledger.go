package application

import (
	"context"
	"log/slog"
	"sync"

	"daobank/contexts/governance-core/ledger-service/domain/entities"
	domainerrors "daobank/contexts/governance-core/ledger-service/domain/errors"
	"daobank/contexts/governance-core/ledger-service/domain/imbalance"
	"daobank/contexts/governance-core/ledger-service/ports"
)

// Ledger is the base currency primitive. Every mutating operation returns an
// imbalance token; the recorded total issuance only changes when tokens are
// settled back in, so at any instant
//
//	sum(account balances) == TotalIssuance() + PendingImbalance()
//
// holds. Handlers run sequentially per block; the mutex only guards the api
// and worker processes touching the ledger from separate goroutines.
type Ledger struct {
	mu                 sync.Mutex
	accounts           ports.AccountRepository
	existentialDeposit uint64
	logger             *slog.Logger

	issuance uint64
	pending  int64 // net magnitude of outstanding tokens: positives minus negatives
}

func NewLedger(accounts ports.AccountRepository, existentialDeposit uint64, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		accounts:           accounts,
		existentialDeposit: existentialDeposit,
		logger:             logger,
	}
}

// TotalIssuance is the recorded issuance, excluding unsettled tokens.
func (l *Ledger) TotalIssuance() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.issuance
}

// PendingImbalance is the net unresolved issuance change carried by
// outstanding tokens. Zero means every token has been consumed.
func (l *Ledger) PendingImbalance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

func (l *Ledger) TotalBalance(ctx context.Context, address string) (uint64, error) {
	account, _, err := l.accounts.GetAccount(ctx, address)
	if err != nil {
		return 0, err
	}
	return account.Total(), nil
}

func (l *Ledger) FreeBalance(ctx context.Context, address string) (uint64, error) {
	account, _, err := l.accounts.GetAccount(ctx, address)
	if err != nil {
		return 0, err
	}
	return account.Free, nil
}

// Deposit credits an account and returns the Positive token carrying the
// pending issuance increase. Creating an account below the existential
// deposit is refused.
func (l *Ledger) Deposit(ctx context.Context, address string, amount uint64) (imbalance.Positive, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.depositLocked(ctx, address, amount)
}

func (l *Ledger) depositLocked(ctx context.Context, address string, amount uint64) (imbalance.Positive, error) {
	account, found, err := l.accounts.GetAccount(ctx, address)
	if err != nil {
		return imbalance.Positive{}, err
	}
	if !found {
		if amount < l.existentialDeposit {
			return imbalance.Positive{}, domainerrors.ErrBelowExistentialDeposit
		}
		account = entities.Account{Address: address}
	}
	account.Free += amount
	if err := l.accounts.SaveAccount(ctx, account); err != nil {
		return imbalance.Positive{}, err
	}
	l.pending += int64(amount)
	return imbalance.NewPositive(amount), nil
}

// Withdraw debits an account and returns the Negative token. keepAlive
// refuses to reduce the account's total below the existential deposit;
// without it the account may be reaped at exactly zero, but may not be left
// as dust.
func (l *Ledger) Withdraw(ctx context.Context, address string, amount uint64, keepAlive bool) (imbalance.Negative, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.withdrawLocked(ctx, address, amount, keepAlive)
}

func (l *Ledger) withdrawLocked(ctx context.Context, address string, amount uint64, keepAlive bool) (imbalance.Negative, error) {
	account, found, err := l.accounts.GetAccount(ctx, address)
	if err != nil {
		return imbalance.Negative{}, err
	}
	if !found {
		return imbalance.Negative{}, domainerrors.ErrAccountNotFound
	}
	if account.Free < amount {
		return imbalance.Negative{}, domainerrors.ErrInsufficientBalance
	}
	remaining := account.Free - amount + account.Reserved
	if remaining < l.existentialDeposit {
		if keepAlive {
			return imbalance.Negative{}, domainerrors.ErrLivenessViolation
		}
		if remaining != 0 {
			return imbalance.Negative{}, domainerrors.ErrBelowExistentialDeposit
		}
	}
	account.Free -= amount
	if account.Total() == 0 {
		if err := l.accounts.DeleteAccount(ctx, address); err != nil {
			return imbalance.Negative{}, err
		}
	} else {
		if err := l.accounts.SaveAccount(ctx, account); err != nil {
			return imbalance.Negative{}, err
		}
	}
	l.pending -= int64(amount)
	return imbalance.NewNegative(amount), nil
}

// Transfer moves funds between accounts through a withdraw/deposit pair whose
// tokens offset to zero, so the movement is balance-conserving by
// construction.
func (l *Ledger) Transfer(ctx context.Context, from string, to string, amount uint64, keepAlive bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	taken, err := l.withdrawLocked(ctx, from, amount, keepAlive)
	if err != nil {
		return err
	}
	credited, err := l.depositLocked(ctx, to, amount)
	if err != nil {
		// Undo the withdrawal so a failed transfer has no observable effect.
		refund, refundErr := l.depositLocked(ctx, from, amount)
		if refundErr != nil {
			l.logger.Error("transfer rollback failed",
				"event", "ledger_transfer_rollback_failed",
				"module", "governance-core/ledger-service",
				"layer", "application",
				"from", from,
				"amount", amount,
				"error", refundErr.Error(),
			)
			return refundErr
		}
		l.settleSignedLocked(refund.Offset(taken))
		return err
	}
	l.settleSignedLocked(credited.Offset(taken))
	return nil
}

// Slash removes up to amount from the account's free balance, returning the
// Negative token for what was actually taken and the shortfall.
func (l *Ledger) Slash(ctx context.Context, address string, amount uint64) (imbalance.Negative, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, found, err := l.accounts.GetAccount(ctx, address)
	if err != nil {
		return imbalance.Negative{}, 0, err
	}
	if !found {
		return imbalance.NewNegative(0), amount, nil
	}
	taken := amount
	if taken > account.Free {
		taken = account.Free
	}
	account.Free -= taken
	if account.Total() == 0 {
		if err := l.accounts.DeleteAccount(ctx, address); err != nil {
			return imbalance.Negative{}, 0, err
		}
	} else {
		if err := l.accounts.SaveAccount(ctx, account); err != nil {
			return imbalance.Negative{}, 0, err
		}
	}
	l.pending -= int64(taken)
	return imbalance.NewNegative(taken), amount - taken, nil
}

// Issue raises recorded issuance immediately and hands back the Negative
// token that must be deposited somewhere or settled to undo the raise.
func (l *Ledger) Issue(amount uint64) imbalance.Negative {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issuance += amount
	l.pending -= int64(amount)
	return imbalance.NewNegative(amount)
}

// Burn lowers recorded issuance immediately and hands back the Positive token
// that must be funded by a withdrawal or settled to undo the cut.
func (l *Ledger) Burn(amount uint64) imbalance.Positive {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount > l.issuance {
		amount = l.issuance
	}
	l.issuance -= amount
	l.pending += int64(amount)
	return imbalance.NewPositive(amount)
}

// Reserve moves free balance into the reserved portion.
func (l *Ledger) Reserve(ctx context.Context, address string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, found, err := l.accounts.GetAccount(ctx, address)
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrAccountNotFound
	}
	if account.Free < amount {
		return domainerrors.ErrInsufficientBalance
	}
	account.Free -= amount
	account.Reserved += amount
	return l.accounts.SaveAccount(ctx, account)
}

// Unreserve releases up to amount back to free balance and reports how much
// could not be released.
func (l *Ledger) Unreserve(ctx context.Context, address string, amount uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, found, err := l.accounts.GetAccount(ctx, address)
	if err != nil {
		return 0, err
	}
	if !found {
		return amount, domainerrors.ErrAccountNotFound
	}
	released := amount
	if released > account.Reserved {
		released = account.Reserved
	}
	account.Reserved -= released
	account.Free += released
	if err := l.accounts.SaveAccount(ctx, account); err != nil {
		return 0, err
	}
	return amount - released, nil
}

// SettlePositive consumes the token, folding its magnitude into issuance.
func (l *Ledger) SettlePositive(token imbalance.Positive) {
	amount := token.Take()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issuance += amount
	l.pending -= int64(amount)
}

// SettleNegative consumes the token, deducting its magnitude from issuance.
func (l *Ledger) SettleNegative(token imbalance.Negative) {
	amount := token.Take()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issuance -= amount
	l.pending += int64(amount)
}

// Settle consumes a signed token of either polarity.
func (l *Ledger) Settle(token imbalance.Signed) {
	if negative, ok := token.TakeNegative(); ok {
		l.SettleNegative(negative)
		return
	}
	if positive, ok := token.TakePositive(); ok {
		l.SettlePositive(positive)
	}
}

func (l *Ledger) settleSignedLocked(token imbalance.Signed) {
	if negative, ok := token.TakeNegative(); ok {
		amount := negative.Take()
		l.issuance -= amount
		l.pending += int64(amount)
		return
	}
	if positive, ok := token.TakePositive(); ok {
		amount := positive.Take()
		l.issuance += amount
		l.pending -= int64(amount)
	}
}

// Resolve deposits a Negative token's magnitude into an account, consuming
// the token. Used to credit slashed or issued funds without touching
// issuance twice.
func (l *Ledger) Resolve(ctx context.Context, address string, token imbalance.Negative) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	credited, err := l.depositLocked(ctx, address, token.Peek())
	if err != nil {
		return err
	}
	l.settleSignedLocked(credited.Offset(token))
	return nil
}

// Endow credits genesis-style funds to an account, raising issuance to
// match. It is the bootstrap path for seeding balances.
func (l *Ledger) Endow(ctx context.Context, address string, amount uint64) error {
	issued := l.Issue(amount)
	if err := l.Resolve(ctx, address, issued); err != nil {
		// The issue raised issuance; settling the token undoes it.
		l.SettleNegative(issued)
		return err
	}
	return nil
}

// ConservationHolds verifies recorded issuance plus outstanding tokens equals
// the sum of all balances. Intended for tests and debug assertions.
func (l *Ledger) ConservationHolds(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.accounts.ListAccounts(ctx)
	if err != nil {
		return false, err
	}
	var sum uint64
	for _, account := range accounts {
		sum += account.Total()
	}
	return int64(l.issuance)+l.pending == int64(sum), nil
}
