package ledger

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// compensationTimeout bounds the balance reversal that runs after a failed
// commit. It runs on a fresh context so a caller timeout cannot abandon it.
const compensationTimeout = 10 * time.Second

// Service is the ledger consistency engine. One RecordTransaction call
// validates the request, moves the account balance, records the immutable
// transaction and propagates spend to at most one matching budget. The three
// writes are kept all-or-nothing: any failure after the balance committed
// reverses it before the error is surfaced.
type Service struct {
	accounts AccountStore
	budgets  BudgetStore
	balance  *BalanceLedger
	tracker  *BudgetTracker
	recorder *Recorder
}

func NewService(accounts AccountStore, budgets BudgetStore, txns TransactionStore, retry RetryPolicy) *Service {
	return &Service{
		accounts: accounts,
		budgets:  budgets,
		balance:  NewBalanceLedger(accounts, retry),
		tracker:  NewBudgetTracker(budgets, retry),
		recorder: NewRecorder(txns),
	}
}

// TransactionRequest carries one incoming transaction. Category and
// Description are optional; a zero OccurredAt defaults to commit time.
type TransactionRequest struct {
	OwnerID     uint
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Direction   Direction
	Category    string
	Description string
	OccurredAt  time.Time
}

// RecordTransaction runs one transaction end-to-end and returns the
// committed record including the before/after balances.
func (s *Service) RecordTransaction(ctx context.Context, req TransactionRequest) (Transaction, error) {
	if !req.Amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidArgument, req.Amount)
	}
	var delta decimal.Decimal
	switch req.Direction {
	case Credit:
		delta = req.Amount
	case Debit:
		delta = req.Amount.Neg()
	default:
		return Transaction{}, fmt.Errorf("%w: direction must be CREDIT or DEBIT", ErrInvalidArgument)
	}

	// Ownership check up front, before any mutation. The balance ledger
	// re-reads the row itself, so a deactivation racing past this point is
	// still caught there.
	acct, err := s.accounts.Get(ctx, req.AccountID)
	if err != nil {
		return Transaction{}, err
	}
	if acct.OwnerID != req.OwnerID || !acct.Active {
		return Transaction{}, fmt.Errorf("account %s: %w", req.AccountID, ErrNotFound)
	}

	change, err := s.balance.Apply(ctx, req.AccountID, delta)
	if err != nil {
		return Transaction{}, err
	}

	occurred := req.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	stored, err := s.recorder.Append(ctx, Transaction{
		OwnerID:         req.OwnerID,
		AccountID:       req.AccountID,
		Amount:          req.Amount,
		Direction:       req.Direction,
		Category:        req.Category,
		Description:     req.Description,
		OccurredAt:      occurred,
		PreviousBalance: change.Previous,
		NewBalance:      change.New,
	})
	if err != nil {
		s.compensate(req.AccountID, delta, err)
		return Transaction{}, err
	}

	if req.Direction == Debit && req.Category != "" {
		if _, err := s.tracker.ApplyIfMatched(ctx, req.OwnerID, req.Category, occurred, req.Amount); err != nil {
			s.compensate(req.AccountID, delta, err)
			return Transaction{}, err
		}
	}

	return stored, nil
}

// compensate reverses an already-committed balance write after a later step
// failed, so callers never observe a debited or credited balance without its
// transaction record. It deliberately ignores the caller's context: a
// deadline that fired mid-commit must not abandon the reversal.
func (s *Service) compensate(accountID uuid.UUID, delta decimal.Decimal, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), compensationTimeout)
	defer cancel()
	if _, err := s.balance.Apply(ctx, accountID, delta.Neg()); err != nil {
		log.Printf("ledger: compensation failed for account %s (cause: %v): %v", accountID, cause, err)
	}
}

// AccountBalance returns the latest committed balance for an active account.
func (s *Service) AccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	acct, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !acct.Active {
		return decimal.Decimal{}, fmt.Errorf("account %s inactive: %w", accountID, ErrNotFound)
	}
	return acct.Balance, nil
}

// BudgetStatus summarizes how far a budget has been consumed.
type BudgetStatus struct {
	BudgetID       uuid.UUID
	LimitAmount    decimal.Decimal
	CurrentSpent   decimal.Decimal
	Remaining      decimal.Decimal
	PercentageUsed float64
}

// BudgetStatusFor reports limit, spend, remaining and percentage used for
// one budget. PercentageUsed is 0 when the limit is 0.
func (s *Service) BudgetStatusFor(ctx context.Context, budgetID uuid.UUID) (BudgetStatus, error) {
	b, err := s.budgets.Get(ctx, budgetID)
	if err != nil {
		return BudgetStatus{}, err
	}
	status := BudgetStatus{
		BudgetID:     b.ID,
		LimitAmount:  b.LimitAmount,
		CurrentSpent: b.CurrentSpent,
		Remaining:    b.LimitAmount.Sub(b.CurrentSpent),
	}
	if b.LimitAmount.IsPositive() {
		pct, _ := b.CurrentSpent.DivRound(b.LimitAmount, 4).Mul(decimal.NewFromInt(100)).Float64()
		status.PercentageUsed = pct
	}
	return status, nil
}
