package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Budget caps spending for one category over a date window. CurrentSpent is
// accumulated by committed debit transactions through the ledger engine only;
// Version is the optimistic-lock counter for those spend writes.
type Budget struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UserID       uint            `gorm:"index;not null"`
	User         User            `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name         string          `gorm:"size:100;not null"`
	Category     string          `gorm:"size:64;index;not null"`
	Amount       decimal.Decimal `gorm:"type:numeric(20,2);not null"` // budget limit
	Period       string          `gorm:"size:16;not null"`            // DAILY, WEEKLY, MONTHLY, YEARLY
	StartDate    time.Time       `gorm:"not null"`
	EndDate      *time.Time      // open-ended when nil
	CurrentSpent decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Version      uint64          `gorm:"not null;default:0"`
	Active       bool            `gorm:"default:true;not null"`
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
