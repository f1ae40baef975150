package repositories

import (
	"context"
	"errors"

	"vipwallet/internal/models"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInvalidWalletData   = errors.New("invalid wallet data")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// WalletRepository defines the interface for wallet and ledger database operations
type WalletRepository interface {
	// Core wallet operations
	GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error)
	GetOrCreateForUpdate(ctx context.Context, userID uint) (*models.Wallet, error)
	UpdateBalance(ctx context.Context, wallet *models.Wallet) error

	// Ledger operations
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactionByReference(ctx context.Context, walletID uint, txType, referenceID string) (*models.Transaction, error)
	GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, int64, error)
	ListLedger(ctx context.Context, walletID uint) ([]models.Transaction, error)
}
