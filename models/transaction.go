package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is an immutable ledger record. Rows are appended once and
// never updated; PreviousBalance and NewBalance capture the account balance
// around the moment this transaction was applied.
type Transaction struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt       time.Time
	UserID          uint            `gorm:"index;not null"`
	AccountID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Account         Account         `gorm:"foreignKey:AccountID;references:ID"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Type            string          `gorm:"size:8;not null"` // CREDIT or DEBIT
	Category        string          `gorm:"size:64;index"`
	Description     string          `gorm:"size:255"`
	TransactionDate time.Time       `gorm:"index;not null"`
	PreviousBalance decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	NewBalance      decimal.Decimal `gorm:"type:numeric(20,2);not null"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
