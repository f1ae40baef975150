package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vipwallet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{
		db: db,
	}
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

// GetOrCreateForUpdate returns the owner's wallet with its row locked until
// the surrounding transaction ends. A missing wallet is inserted under the
// unique user_id index; a concurrent insert for the same owner turns into a
// no-op and the winner's row is locked instead.
func (r *walletRepository) GetOrCreateForUpdate(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet, err := r.lockByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}

	newWallet := &models.Wallet{UserID: userID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(newWallet)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", result.Error)
	}

	return r.lockByUserID(ctx, userID)
}

func (r *walletRepository) lockByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) UpdateBalance(ctx context.Context, wallet *models.Wallet) error {
	if wallet == nil || wallet.ID == 0 || wallet.Balance.IsNegative() {
		return ErrInvalidWalletData
	}

	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", wallet.ID).
		Updates(map[string]interface{}{
			"balance":    wallet.Balance,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (r *walletRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx == nil || tx.WalletID == 0 || tx.TransactionID == "" {
		return ErrInvalidTransaction
	}
	result := r.db.WithContext(ctx).Create(tx)
	if result.Error != nil {
		return fmt.Errorf("failed to create transaction: %w", result.Error)
	}
	return nil
}

func (r *walletRepository) GetTransactionByReference(ctx context.Context, walletID uint, txType, referenceID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ? AND type = ? AND reference_id = ?", walletID, txType, referenceID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *walletRepository) GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("wallet_id = ?", walletID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var history []models.Transaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&history).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return history, total, nil
}

func (r *walletRepository) ListLedger(ctx context.Context, walletID uint) ([]models.Transaction, error) {
	var entries []models.Transaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ? AND status = ?", walletID, models.TransactionStatusCompleted).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}
	return entries, nil
}
