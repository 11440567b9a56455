package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceLedger applies signed balance deltas to accounts under optimistic
// concurrency control. It is the only writer of account balances.
type BalanceLedger struct {
	accounts AccountStore
	retry    RetryPolicy
}

func NewBalanceLedger(accounts AccountStore, retry RetryPolicy) *BalanceLedger {
	return &BalanceLedger{accounts: accounts, retry: retry}
}

// BalanceChange is the committed result of one Apply call.
type BalanceChange struct {
	Previous decimal.Decimal
	New      decimal.Decimal
	Version  uint64
}

// Apply adds delta (negative for debits) to the account balance. A debit
// that would push the balance below zero fails with ErrInsufficientFunds and
// writes nothing. A lost version race is retried with a freshly re-read
// balance up to the policy bound.
func (l *BalanceLedger) Apply(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (BalanceChange, error) {
	var change BalanceChange
	err := l.retry.run(ctx, func() error {
		acct, err := l.accounts.Get(ctx, accountID)
		if err != nil {
			return err
		}
		if !acct.Active {
			return fmt.Errorf("account %s inactive: %w", accountID, ErrNotFound)
		}
		candidate := acct.Balance.Add(delta)
		if candidate.IsNegative() {
			return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, acct.Balance, delta.Abs())
		}
		if err := l.accounts.ConditionalWrite(ctx, accountID, acct.Version, candidate); err != nil {
			return err
		}
		change = BalanceChange{Previous: acct.Balance, New: candidate, Version: acct.Version + 1}
		return nil
	})
	if err != nil {
		return BalanceChange{}, err
	}
	return change, nil
}
