package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the engine's view of a bank account row.
type Account struct {
	ID      uuid.UUID
	OwnerID uint
	Balance decimal.Decimal
	Version uint64
	Active  bool
}

// Budget is the engine's view of a budget row.
type Budget struct {
	ID           uuid.UUID
	OwnerID      uint
	Category     string
	LimitAmount  decimal.Decimal
	Period       string
	StartDate    time.Time
	EndDate      *time.Time // open-ended when nil
	CurrentSpent decimal.Decimal
	Version      uint64
	Active       bool
	CreatedAt    time.Time
}

// ActiveAt reports whether the budget is active and its date window
// contains t.
func (b Budget) ActiveAt(t time.Time) bool {
	if !b.Active || t.Before(b.StartDate) {
		return false
	}
	return b.EndDate == nil || !t.After(*b.EndDate)
}

// Transaction is one immutable ledger record.
type Transaction struct {
	ID              uuid.UUID
	OwnerID         uint
	AccountID       uuid.UUID
	Amount          decimal.Decimal
	Direction       Direction
	Category        string
	Description     string
	OccurredAt      time.Time
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
	CreatedAt       time.Time
}

// AccountStore is the versioned persistence contract for accounts.
// ConditionalWrite persists balance and bumps the version only if the stored
// version still equals expectedVersion; otherwise it returns
// ErrVersionMismatch and writes nothing.
type AccountStore interface {
	Get(ctx context.Context, id uuid.UUID) (Account, error)
	ConditionalWrite(ctx context.Context, id uuid.UUID, expectedVersion uint64, balance decimal.Decimal) error
}

// BudgetStore is the versioned persistence contract for budgets. ListActive
// returns every budget for (owner, category) whose window contains asOf —
// normally at most one, but the tracker tolerates overlap.
type BudgetStore interface {
	Get(ctx context.Context, id uuid.UUID) (Budget, error)
	ListActive(ctx context.Context, ownerID uint, category string, asOf time.Time) ([]Budget, error)
	ConditionalWrite(ctx context.Context, id uuid.UUID, expectedVersion uint64, spent decimal.Decimal) error
}

// TransactionStore appends immutable transaction rows. There is no update or
// delete.
type TransactionStore interface {
	Append(ctx context.Context, txn Transaction) (uuid.UUID, error)
}
