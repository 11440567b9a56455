package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seedBudget(store *MemoryBudgets, ownerID uint, category, limit, spent string, start time.Time, end *time.Time, createdAt time.Time) uuid.UUID {
	id := uuid.New()
	store.Put(Budget{
		ID:           id,
		OwnerID:      ownerID,
		Category:     category,
		LimitAmount:  dec(limit),
		Period:       "MONTHLY",
		StartDate:    start,
		EndDate:      end,
		CurrentSpent: dec(spent),
		Active:       true,
		CreatedAt:    createdAt,
	})
	return id
}

func TestApplyIfMatchedNoBudget(t *testing.T) {
	store := NewMemoryBudgets()
	tr := NewBudgetTracker(store, RetryPolicy{})

	update, err := tr.ApplyIfMatched(context.Background(), 1, "groceries", time.Now(), dec("10.00"))
	if err != nil {
		t.Fatalf("no-match should not be an error: %v", err)
	}
	if update != nil {
		t.Fatalf("expected nil update, got %+v", update)
	}
}

func TestApplyIfMatchedAccumulatesSpend(t *testing.T) {
	store := NewMemoryBudgets()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	id := seedBudget(store, 1, "groceries", "200.00", "150.00", start, nil, start)
	tr := NewBudgetTracker(store, RetryPolicy{})

	update, err := tr.ApplyIfMatched(context.Background(), 1, "groceries", start.AddDate(0, 0, 10), dec("40.00"))
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if update == nil || update.BudgetID != id {
		t.Fatalf("expected update for budget %s, got %+v", id, update)
	}
	if !update.NewSpent.Equal(dec("190.00")) {
		t.Fatalf("expected spent 190.00 got %s", update.NewSpent)
	}
	b, _ := store.Get(context.Background(), id)
	if b.Version != 1 {
		t.Fatalf("expected version bump, got %d", b.Version)
	}
}

func TestApplyIfMatchedRespectsWindow(t *testing.T) {
	store := NewMemoryBudgets()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	seedBudget(store, 1, "travel", "500.00", "0", start, &end, start)
	tr := NewBudgetTracker(store, RetryPolicy{})

	cases := []struct {
		name  string
		asOf  time.Time
		match bool
	}{
		{"before window", start.AddDate(0, 0, -1), false},
		{"on start", start, true},
		{"inside", start.AddDate(0, 0, 15), true},
		{"on end", end, true},
		{"after window", end.AddDate(0, 0, 1), false},
	}
	for _, tc := range cases {
		update, err := tr.ApplyIfMatched(context.Background(), 1, "travel", tc.asOf, dec("1.00"))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if (update != nil) != tc.match {
			t.Fatalf("%s: match=%v, want %v", tc.name, update != nil, tc.match)
		}
	}
}

func TestApplyIfMatchedTieBreaksOnLatestCreated(t *testing.T) {
	store := NewMemoryBudgets()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedBudget(store, 1, "dining", "100.00", "0", start, nil, start)
	newest := seedBudget(store, 1, "dining", "300.00", "0", start, nil, start.Add(48*time.Hour))
	seedBudget(store, 1, "dining", "200.00", "0", start, nil, start.Add(24*time.Hour))
	tr := NewBudgetTracker(store, RetryPolicy{})

	update, err := tr.ApplyIfMatched(context.Background(), 1, "dining", start.AddDate(0, 0, 5), dec("30.00"))
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if update == nil || update.BudgetID != newest {
		t.Fatalf("expected latest-created budget %s, got %+v", newest, update)
	}
}

func TestApplyIfMatchedRejectsNonPositiveSpend(t *testing.T) {
	tr := NewBudgetTracker(NewMemoryBudgets(), RetryPolicy{})
	if _, err := tr.ApplyIfMatched(context.Background(), 1, "x", time.Now(), dec("0")); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument got %v", err)
	}
	if _, err := tr.ApplyIfMatched(context.Background(), 1, "x", time.Now(), dec("-5.00")); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument got %v", err)
	}
}
