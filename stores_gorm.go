package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finbot/models"
	"finbot/pkg/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// gorm-backed implementations of the ledger store contracts. Conditional
// writes are plain UPDATE ... WHERE id = ? AND version = ? statements; zero
// rows affected means another writer committed first.

type gormAccounts struct{ db *gorm.DB }

func (s gormAccounts) Get(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	var a models.Account
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.Account{}, fmt.Errorf("account %s: %w", id, ledger.ErrNotFound)
		}
		return ledger.Account{}, err
	}
	return ledger.Account{
		ID:      a.ID,
		OwnerID: a.UserID,
		Balance: a.Balance,
		Version: a.Version,
		Active:  a.Active,
	}, nil
}

func (s gormAccounts) ConditionalWrite(ctx context.Context, id uuid.UUID, expectedVersion uint64, balance decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{"balance": balance, "version": expectedVersion + 1})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", id, ledger.ErrVersionMismatch)
	}
	return nil
}

type gormBudgets struct{ db *gorm.DB }

func toLedgerBudget(b models.Budget) ledger.Budget {
	return ledger.Budget{
		ID:           b.ID,
		OwnerID:      b.UserID,
		Category:     b.Category,
		LimitAmount:  b.Amount,
		Period:       b.Period,
		StartDate:    b.StartDate,
		EndDate:      b.EndDate,
		CurrentSpent: b.CurrentSpent,
		Version:      b.Version,
		Active:       b.Active,
		CreatedAt:    b.CreatedAt,
	}
}

func (s gormBudgets) Get(ctx context.Context, id uuid.UUID) (ledger.Budget, error) {
	var b models.Budget
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.Budget{}, fmt.Errorf("budget %s: %w", id, ledger.ErrNotFound)
		}
		return ledger.Budget{}, err
	}
	return toLedgerBudget(b), nil
}

func (s gormBudgets) ListActive(ctx context.Context, ownerID uint, category string, asOf time.Time) ([]ledger.Budget, error) {
	var rows []models.Budget
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND category = ? AND active = ?", ownerID, category, true).
		Where("start_date <= ? AND (end_date IS NULL OR end_date >= ?)", asOf, asOf).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Budget, 0, len(rows))
	for _, b := range rows {
		out = append(out, toLedgerBudget(b))
	}
	return out, nil
}

func (s gormBudgets) ConditionalWrite(ctx context.Context, id uuid.UUID, expectedVersion uint64, spent decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&models.Budget{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{"current_spent": spent, "version": expectedVersion + 1})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("budget %s: %w", id, ledger.ErrVersionMismatch)
	}
	return nil
}

type gormTransactions struct{ db *gorm.DB }

func (s gormTransactions) Append(ctx context.Context, txn ledger.Transaction) (uuid.UUID, error) {
	row := models.Transaction{
		ID:              txn.ID,
		UserID:          txn.OwnerID,
		AccountID:       txn.AccountID,
		Amount:          txn.Amount,
		Type:            txn.Direction.String(),
		Category:        txn.Category,
		Description:     txn.Description,
		TransactionDate: txn.OccurredAt,
		PreviousBalance: txn.PreviousBalance,
		NewBalance:      txn.NewBalance,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}
