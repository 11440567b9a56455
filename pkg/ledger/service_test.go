package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type testEnv struct {
	svc      *Service
	accounts *MemoryAccounts
	budgets  *MemoryBudgets
	txns     *MemoryTransactions
}

func newTestEnv() *testEnv {
	accounts := NewMemoryAccounts()
	budgets := NewMemoryBudgets()
	txns := NewMemoryTransactions()
	retry := RetryPolicy{MaxAttempts: 5, Backoff: time.Millisecond}
	return &testEnv{
		svc:      NewService(accounts, budgets, txns, retry),
		accounts: accounts,
		budgets:  budgets,
		txns:     txns,
	}
}

func TestRecordTransactionCommit(t *testing.T) {
	env := newTestEnv()
	accountID := seedAccount(t, env.accounts, "100.00")

	rec, err := env.svc.RecordTransaction(context.Background(), TransactionRequest{
		OwnerID:     1,
		AccountID:   accountID,
		Amount:      dec("30.00"),
		Direction:   Debit,
		Description: "weekly shop",
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !rec.PreviousBalance.Equal(dec("100.00")) || !rec.NewBalance.Equal(dec("70.00")) {
		t.Fatalf("balance audit mismatch: %+v", rec)
	}
	if rec.ID == uuid.Nil || rec.OccurredAt.IsZero() || rec.CreatedAt.IsZero() {
		t.Fatalf("missing audit fields: %+v", rec)
	}

	balance, err := env.svc.AccountBalance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("balance read failed: %v", err)
	}
	if !balance.Equal(rec.NewBalance) {
		t.Fatalf("committed balance %s != record new balance %s", balance, rec.NewBalance)
	}
	// read is idempotent
	again, _ := env.svc.AccountBalance(context.Background(), accountID)
	if !again.Equal(balance) {
		t.Fatalf("repeated read changed: %s vs %s", again, balance)
	}
	if got := len(env.txns.All()); got != 1 {
		t.Fatalf("expected 1 record got %d", got)
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	env := newTestEnv()
	accountID := seedAccount(t, env.accounts, "100.00")

	cases := []struct {
		name string
		req  TransactionRequest
		want error
	}{
		{"zero amount", TransactionRequest{OwnerID: 1, AccountID: accountID, Amount: dec("0"), Direction: Debit}, ErrInvalidArgument},
		{"negative amount", TransactionRequest{OwnerID: 1, AccountID: accountID, Amount: dec("-1.00"), Direction: Credit}, ErrInvalidArgument},
		{"bad direction", TransactionRequest{OwnerID: 1, AccountID: accountID, Amount: dec("1.00")}, ErrInvalidArgument},
		{"unknown account", TransactionRequest{OwnerID: 1, AccountID: uuid.New(), Amount: dec("1.00"), Direction: Credit}, ErrNotFound},
		{"foreign account", TransactionRequest{OwnerID: 2, AccountID: accountID, Amount: dec("1.00"), Direction: Credit}, ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := env.svc.RecordTransaction(context.Background(), tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, err, tc.want)
		}
	}
	if got := len(env.txns.All()); got != 0 {
		t.Fatalf("validation failures must write nothing, got %d records", got)
	}
}

func TestRecordTransactionInsufficientFundsLeavesStateUntouched(t *testing.T) {
	env := newTestEnv()
	accountID := seedAccount(t, env.accounts, "50.00")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	budgetID := seedBudget(env.budgets, 1, "groceries", "200.00", "150.00", start, nil, start)

	_, err := env.svc.RecordTransaction(context.Background(), TransactionRequest{
		OwnerID:   1,
		AccountID: accountID,
		Amount:    dec("50.01"),
		Direction: Debit,
		Category:  "groceries",
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds got %v", err)
	}
	acct, _ := env.accounts.Get(context.Background(), accountID)
	if !acct.Balance.Equal(dec("50.00")) || acct.Version != 0 {
		t.Fatalf("account mutated: %+v", acct)
	}
	b, _ := env.budgets.Get(context.Background(), budgetID)
	if !b.CurrentSpent.Equal(dec("150.00")) || b.Version != 0 {
		t.Fatalf("budget mutated: %+v", b)
	}
	if got := len(env.txns.All()); got != 0 {
		t.Fatalf("expected empty transaction log, got %d", got)
	}
}

func TestRecordTransactionPropagatesBudgetSpend(t *testing.T) {
	env := newTestEnv()
	accountID := seedAccount(t, env.accounts, "1000.00")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	budgetID := seedBudget(env.budgets, 1, "groceries", "200.00", "150.00", start, nil, start)

	_, err := env.svc.RecordTransaction(context.Background(), TransactionRequest{
		OwnerID:    1,
		AccountID:  accountID,
		Amount:     dec("40.00"),
		Direction:  Debit,
		Category:   "groceries",
		OccurredAt: start.AddDate(0, 0, 3),
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	status, err := env.svc.BudgetStatusFor(context.Background(), budgetID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !status.CurrentSpent.Equal(dec("190.00")) {
		t.Fatalf("expected spent 190.00 got %s", status.CurrentSpent)
	}
	if !status.Remaining.Equal(dec("10.00")) {
		t.Fatalf("expected remaining 10.00 got %s", status.Remaining)
	}
	if status.PercentageUsed != 95.0 {
		t.Fatalf("expected 95.0%% used got %v", status.PercentageUsed)
	}
}

func TestRecordTransactionSkipsBudgetWhenNoMatch(t *testing.T) {
	env := newTestEnv()
	accountID := seedAccount(t, env.accounts, "100.00")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	budgetID := seedBudget(env.budgets, 1, "groceries", "200.00", "0", start, nil, start)

	// category without a budget
	if _, err := env.svc.RecordTransaction(context.Background(), TransactionRequest{
		OwnerID: 1, AccountID: accountID, Amount: dec("10.00"), Direction: Debit, Category: "fuel",
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	// credit with a matching category must not touch the budget either
	if _, err := env.svc.RecordTransaction(context.Background(), TransactionRequest{
		OwnerID: 1, AccountID: accountID, Amount: dec("10.00"), Direction: Credit, Category: "groceries",
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	b, _ := env.budgets.Get(context.Background(), budgetID)
	if !b.CurrentSpent.IsZero() {
		t.Fatalf("budget spend changed: %s", b.CurrentSpent)
	}
}

func TestConcurrentDebitsSerializeOnVersion(t *testing.T) {
	env := newTestEnv()
	accountID := seedAccount(t, env.accounts, "1000.00")

	const workers = 100
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := env.svc.RecordTransaction(context.Background(), TransactionRequest{
					OwnerID:   1,
					AccountID: accountID,
					Amount:    dec("1.00"),
					Direction: Debit,
				})
				if err == nil {
					return
				}
				if !errors.Is(err, ErrConflict) {
					errs <- err
					return
				}
				// Conflict is retryable by contract
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("worker failed: %v", err)
	}

	balance, err := env.svc.AccountBalance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("balance read failed: %v", err)
	}
	if !balance.Equal(dec("900.00")) {
		t.Fatalf("expected final balance 900.00 got %s", balance)
	}
	records := env.txns.All()
	if len(records) != workers {
		t.Fatalf("expected %d records got %d", workers, len(records))
	}
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		key := rec.PreviousBalance.String()
		if seen[key] {
			t.Fatalf("two records share previousBalance %s", key)
		}
		seen[key] = true
		if !rec.PreviousBalance.Sub(rec.Amount).Equal(rec.NewBalance) {
			t.Fatalf("audit invariant broken: %+v", rec)
		}
	}
}

// failingTxns rejects every append and optionally cancels the caller's
// context first, simulating a deadline firing after the balance committed.
type failingTxns struct {
	cancel context.CancelFunc
}

func (s *failingTxns) Append(ctx context.Context, txn Transaction) (uuid.UUID, error) {
	if s.cancel != nil {
		s.cancel()
	}
	return uuid.Nil, fmt.Errorf("storage down")
}

func TestCompensationRestoresBalanceOnAppendFailure(t *testing.T) {
	accounts := NewMemoryAccounts()
	budgets := NewMemoryBudgets()
	accountID := seedAccount(t, accounts, "100.00")
	svc := NewService(accounts, budgets, &failingTxns{}, RetryPolicy{MaxAttempts: 3})

	_, err := svc.RecordTransaction(context.Background(), TransactionRequest{
		OwnerID: 1, AccountID: accountID, Amount: dec("30.00"), Direction: Debit,
	})
	if err == nil {
		t.Fatal("expected append failure to surface")
	}
	acct, _ := accounts.Get(context.Background(), accountID)
	if !acct.Balance.Equal(dec("100.00")) {
		t.Fatalf("compensation did not restore balance: %s", acct.Balance)
	}
	// debit then reversal: two balance writes
	if acct.Version != 2 {
		t.Fatalf("expected version 2 after debit+reversal, got %d", acct.Version)
	}
}

func TestCompensationRunsAfterCallerCancellation(t *testing.T) {
	accounts := NewMemoryAccounts()
	budgets := NewMemoryBudgets()
	accountID := seedAccount(t, accounts, "100.00")
	ctx, cancel := context.WithCancel(context.Background())
	svc := NewService(accounts, budgets, &failingTxns{cancel: cancel}, RetryPolicy{MaxAttempts: 3})

	_, err := svc.RecordTransaction(ctx, TransactionRequest{
		OwnerID: 1, AccountID: accountID, Amount: dec("30.00"), Direction: Credit,
	})
	if err == nil {
		t.Fatal("expected failure to surface")
	}
	acct, _ := accounts.Get(context.Background(), accountID)
	if !acct.Balance.Equal(dec("100.00")) {
		t.Fatalf("reversal abandoned with caller context: %s", acct.Balance)
	}
}

func TestBudgetStatusZeroLimit(t *testing.T) {
	env := newTestEnv()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	id := uuid.New()
	env.budgets.Put(Budget{ID: id, OwnerID: 1, Category: "misc", LimitAmount: dec("0"), CurrentSpent: dec("0"), StartDate: start, Active: true, CreatedAt: start})

	status, err := env.svc.BudgetStatusFor(context.Background(), id)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.PercentageUsed != 0 {
		t.Fatalf("zero limit must report 0%%, got %v", status.PercentageUsed)
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("CREDIT"); err != nil || d != Credit {
		t.Fatalf("CREDIT: %v %v", d, err)
	}
	if d, err := ParseDirection("DEBIT"); err != nil || d != Debit {
		t.Fatalf("DEBIT: %v %v", d, err)
	}
	if _, err := ParseDirection("debit"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("lowercase must be rejected, got %v", err)
	}
}
