package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store groups the repositories that take part in one unit of work. Inside
// ExecuteInTransaction every repository is bound to the same database
// transaction; a returned error rolls all of them back.
type Store struct {
	db          *gorm.DB
	lockTimeout time.Duration

	Wallets  WalletRepository
	Listings ListingRepository
	Catalog  CatalogRepository
	Grants   GrantRepository
}

func NewStore(db *gorm.DB, lockTimeout time.Duration) *Store {
	return &Store{
		db:          db,
		lockTimeout: lockTimeout,
		Wallets:     NewWalletRepository(db),
		Listings:    NewListingRepository(db),
		Catalog:     NewCatalogRepository(db),
		Grants:      NewGrantRepository(db),
	}
}

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to set lock timeout: %w", err)
			}
		}
		return fn(NewStore(tx, s.lockTimeout))
	})
}
