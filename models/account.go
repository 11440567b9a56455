package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account is a bank account owned by a user. Balance is mutated only through
// the ledger engine; Version is the optimistic-lock counter bumped on every
// balance write. Accounts are deactivated, never deleted.
type Account struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      uint            `gorm:"index;not null"`
	User        User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name        string          `gorm:"size:100;not null"`
	Balance     decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	AccountType string          `gorm:"size:32;not null"` // e.g. savings, checking
	BankName    string          `gorm:"size:100"`
	Version     uint64          `gorm:"not null;default:0"`
	Active      bool            `gorm:"default:true;not null"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
