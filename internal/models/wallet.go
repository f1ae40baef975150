package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet is the single prepaid balance held by one owner.
type Wallet struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0;check:chk_wallets_balance_non_negative,balance >= 0" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	// Wallets always open empty; balance only moves through ledger entries.
	w.Balance = decimal.Zero
	return nil
}
