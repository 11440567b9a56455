package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetTracker resolves the single active budget for an owner and category
// and accumulates spend against it under the same optimistic-lock discipline
// as the balance ledger.
type BudgetTracker struct {
	budgets BudgetStore
	retry   RetryPolicy
}

func NewBudgetTracker(budgets BudgetStore, retry RetryPolicy) *BudgetTracker {
	return &BudgetTracker{budgets: budgets, retry: retry}
}

// SpendUpdate is the committed result of one ApplyIfMatched call.
type SpendUpdate struct {
	BudgetID uuid.UUID
	NewSpent decimal.Decimal
}

// ApplyIfMatched adds spend to the budget active for (ownerID, category) at
// asOf. A nil update with nil error means no budget matched — debits without
// a budget are legal and leave nothing to do.
func (t *BudgetTracker) ApplyIfMatched(ctx context.Context, ownerID uint, category string, asOf time.Time, spend decimal.Decimal) (*SpendUpdate, error) {
	if !spend.IsPositive() {
		return nil, fmt.Errorf("%w: spend must be positive, got %s", ErrInvalidArgument, spend)
	}
	var update *SpendUpdate
	err := t.retry.run(ctx, func() error {
		matches, err := t.budgets.ListActive(ctx, ownerID, category, asOf)
		if err != nil {
			return err
		}
		b, ok := pickBudget(matches, asOf)
		if !ok {
			update = nil
			return nil
		}
		newSpent := b.CurrentSpent.Add(spend)
		if err := t.budgets.ConditionalWrite(ctx, b.ID, b.Version, newSpent); err != nil {
			return err
		}
		update = &SpendUpdate{BudgetID: b.ID, NewSpent: newSpent}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

// pickBudget re-checks the window client-side and, when several budgets
// overlap (a creation-path anomaly the tracker has to tolerate), keeps the
// most recently created one so concurrent callers all settle on the same
// row.
func pickBudget(budgets []Budget, asOf time.Time) (Budget, bool) {
	var best Budget
	found := false
	for _, b := range budgets {
		if !b.ActiveAt(asOf) {
			continue
		}
		if !found || b.CreatedAt.After(best.CreatedAt) {
			best = b
			found = true
		}
	}
	return best, found
}
