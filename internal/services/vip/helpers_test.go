package vip

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"vipwallet/internal/models"
	"vipwallet/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db    *gorm.DB
	store *repositories.Store
	svc   Service
}

// newTestDB opens a file-backed sqlite database with a single connection so
// concurrent transactions are serialized the way row locks serialize them in
// postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vip.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	store := repositories.NewStore(db, 0)
	svc := NewService(Dependencies{
		Listings: store.Listings,
		Catalog:  store.Catalog,
		Grants:   store.Grants,
		Store:    store,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, Config{
		MaxConflictRetries: DefaultMaxConflictRetries,
		Now:                func() time.Time { return testNow },
	})
	return &fixture{db: db, store: store, svc: svc}
}

func (f *fixture) createListing(t *testing.T, ownerID uint, status string, expiration *time.Time) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		OwnerID:              ownerID,
		Title:                "Two bedroom flat",
		Status:               status,
		IsPromoted:           expiration != nil,
		CurrentVIPExpiration: expiration,
	}
	require.NoError(t, f.db.Create(listing).Error)
	return listing
}

func (f *fixture) createPackage(t *testing.T, code, price string, days *int, active bool) *models.VIPPackage {
	t.Helper()

	pkg := &models.VIPPackage{
		Code:         code,
		Name:         code,
		Price:        decimal.RequireFromString(price),
		DurationDays: days,
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(pkg).Error)
	if !active {
		// is_active defaults to true, so a false value is written explicitly
		require.NoError(t, f.db.Model(pkg).Update("is_active", false).Error)
		pkg.IsActive = false
	}
	return pkg
}

func (f *fixture) fundWallet(t *testing.T, userID uint, balance string) *models.Wallet {
	t.Helper()

	var wallet *models.Wallet
	err := f.store.ExecuteInTransaction(context.Background(), func(tx *repositories.Store) error {
		w, err := tx.Wallets.GetOrCreateForUpdate(context.Background(), userID)
		if err != nil {
			return err
		}
		w.Balance = decimal.RequireFromString(balance)
		wallet = w
		return tx.Wallets.UpdateBalance(context.Background(), w)
	})
	require.NoError(t, err)
	return wallet
}

func (f *fixture) wallet(t *testing.T, userID uint) *models.Wallet {
	t.Helper()

	w, err := f.store.Wallets.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	return w
}

func (f *fixture) listing(t *testing.T, id uint) *models.Listing {
	t.Helper()

	var listing models.Listing
	require.NoError(t, f.db.First(&listing, id).Error)
	return &listing
}

func (f *fixture) ledger(t *testing.T, walletID uint) []models.Transaction {
	t.Helper()

	entries, err := f.store.Wallets.ListLedger(context.Background(), walletID)
	require.NoError(t, err)
	return entries
}

func days(n int) *int { return &n }

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}
