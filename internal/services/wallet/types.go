package wallet

import (
	"log/slog"
	"time"

	"vipwallet/internal/events"
	"vipwallet/internal/metrics"
	"vipwallet/internal/models"

	"github.com/shopspring/decimal"
)

// WalletConfig holds configuration for wallet operations
type WalletConfig struct {
	ProcessingTimeout time.Duration
	MaxDepositAmount  decimal.Decimal // zero means unlimited
}

// Dependencies are the optional collaborators of the service.
type Dependencies struct {
	Cache   CacheOperator
	Events  events.Publisher
	Metrics metrics.Collector
	Logger  *slog.Logger
}

// TransactionPage is one page of a wallet's ledger, newest first.
type TransactionPage struct {
	Transactions []models.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	Page         int                  `json:"page"`
	Limit        int                  `json:"limit"`
}

// ReconciliationReport compares the stored balance with the ledger replay.
// FirstMismatchID is the first entry whose BalanceAfter disagrees with the
// running sum, zero when every entry agrees.
type ReconciliationReport struct {
	WalletID        uint            `json:"wallet_id"`
	Balance         decimal.Decimal `json:"balance"`
	LedgerSum       decimal.Decimal `json:"ledger_sum"`
	Entries         int             `json:"entries"`
	Consistent      bool            `json:"consistent"`
	FirstMismatchID uint            `json:"first_mismatch_id,omitempty"`
}
