package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory store implementations. They back the engine tests and let the
// engine run without Postgres; each guards its rows with a mutex and applies
// the same conditional-write semantics as the SQL stores.

type MemoryAccounts struct {
	mu   sync.Mutex
	rows map[uuid.UUID]Account
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{rows: make(map[uuid.UUID]Account)}
}

// Put inserts or replaces a row, bypassing version checks. Test seeding only.
func (s *MemoryAccounts) Put(a Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[a.ID] = a
}

func (s *MemoryAccounts) Get(ctx context.Context, id uuid.UUID) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[id]
	if !ok {
		return Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (s *MemoryAccounts) ConditionalWrite(ctx context.Context, id uuid.UUID, expectedVersion uint64, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[id]
	if !ok {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	if a.Version != expectedVersion {
		return fmt.Errorf("account %s at version %d, expected %d: %w", id, a.Version, expectedVersion, ErrVersionMismatch)
	}
	a.Balance = balance
	a.Version++
	s.rows[id] = a
	return nil
}

type MemoryBudgets struct {
	mu   sync.Mutex
	rows map[uuid.UUID]Budget
}

func NewMemoryBudgets() *MemoryBudgets {
	return &MemoryBudgets{rows: make(map[uuid.UUID]Budget)}
}

func (s *MemoryBudgets) Put(b Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[b.ID] = b
}

func (s *MemoryBudgets) Get(ctx context.Context, id uuid.UUID) (Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return Budget{}, fmt.Errorf("budget %s: %w", id, ErrNotFound)
	}
	return b, nil
}

func (s *MemoryBudgets) ListActive(ctx context.Context, ownerID uint, category string, asOf time.Time) ([]Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Budget
	for _, b := range s.rows {
		if b.OwnerID == ownerID && b.Category == category && b.ActiveAt(asOf) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryBudgets) ConditionalWrite(ctx context.Context, id uuid.UUID, expectedVersion uint64, spent decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return fmt.Errorf("budget %s: %w", id, ErrNotFound)
	}
	if b.Version != expectedVersion {
		return fmt.Errorf("budget %s at version %d, expected %d: %w", id, b.Version, expectedVersion, ErrVersionMismatch)
	}
	b.CurrentSpent = spent
	b.Version++
	s.rows[id] = b
	return nil
}

type MemoryTransactions struct {
	mu   sync.Mutex
	rows []Transaction
}

func NewMemoryTransactions() *MemoryTransactions {
	return &MemoryTransactions{}
}

func (s *MemoryTransactions) Append(ctx context.Context, txn Transaction) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	s.rows = append(s.rows, txn)
	return txn.ID, nil
}

// All returns a copy of every appended record in insertion order.
func (s *MemoryTransactions) All() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transaction, len(s.rows))
	copy(out, s.rows)
	return out
}
