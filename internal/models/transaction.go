package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger entry types
const (
	TransactionTypeDeposit     = "DEPOSIT"
	TransactionTypeVIPPurchase = "VIP_PURCHASE"
)

// Ledger entry statuses
const (
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
)

// Transaction is one immutable ledger entry of a wallet. Amount is always a
// magnitude; the sign comes from Type (see SignedAmount).
type Transaction struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	TransactionID string          `gorm:"uniqueIndex;size:36;not null" json:"transaction_id"`
	WalletID      uint            `gorm:"index;not null" json:"wallet_id"`
	Type          string          `gorm:"size:32;not null" json:"type"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"balance_after"`
	Status        string          `gorm:"size:16;not null" json:"status"`
	ReferenceID   string          `gorm:"index;size:64" json:"reference_id"`
	Description   string          `json:"description"`
	Metadata      JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (Transaction) TableName() string {
	return "wallet_transactions"
}

// SignedAmount returns the effect of the entry on the wallet balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	switch t.Type {
	case TransactionTypeVIPPurchase:
		return t.Amount.Neg()
	default:
		return t.Amount
	}
}
