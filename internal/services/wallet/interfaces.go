package wallet

import (
	"context"

	"vipwallet/internal/models"
	"vipwallet/internal/repositories"

	"github.com/shopspring/decimal"
)

// Service defines the main wallet service interface
type Service interface {
	// Reads
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error)
	GetTransactionHistory(ctx context.Context, userID uint, page, limit int) (*TransactionPage, error)

	// Deposits from the payment collaborator
	Deposit(ctx context.Context, userID uint, amount decimal.Decimal, reference string) (*models.Transaction, error)

	// Ledger checks
	Reconcile(ctx context.Context, userID uint) (*ReconciliationReport, error)
}

// UnitOfWork runs fn inside one database transaction.
type UnitOfWork interface {
	ExecuteInTransaction(ctx context.Context, fn func(tx *repositories.Store) error) error
}

// CacheOperator defines the wallet snapshot cache
type CacheOperator interface {
	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	WalletVersion(ctx context.Context, userID uint) (int64, error)
	CacheWallet(ctx context.Context, wallet *models.Wallet, version int64) error
	InvalidateWallet(ctx context.Context, userID uint) error
}
