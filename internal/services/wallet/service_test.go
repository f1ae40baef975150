package wallet

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"vipwallet/internal/events"
	"vipwallet/internal/models"
	"vipwallet/internal/repositories"
	"vipwallet/internal/repositories/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func setupStore(t *testing.T) (*gorm.DB, *repositories.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "wallet.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.AutoMigrate(db))
	return db, repositories.NewStore(db, 0)
}

func setupCache(t *testing.T) (*miniredis.Miniredis, *cache.CacheService) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, cache.NewCacheService(client, time.Minute)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, deps Dependencies) (Service, *gorm.DB) {
	t.Helper()

	db, store := setupStore(t)
	deps.Logger = quietLogger()
	return NewService(store.Wallets, store, WalletConfig{}, deps), db
}

func TestWalletService_Deposit(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, events.RoutingKeyWalletDeposited, mock.AnythingOfType("events.WalletDeposited")).Return(nil).Twice()

	svc, _ := newTestService(t, Dependencies{Events: publisher})
	ctx := context.Background()

	tx, err := svc.Deposit(ctx, 1, decimal.RequireFromString("50.00"), "psp-1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeDeposit, tx.Type)
	assert.Equal(t, models.TransactionStatusCompleted, tx.Status)
	assert.True(t, decimal.RequireFromString("50").Equal(tx.BalanceAfter))

	tx, err = svc.Deposit(ctx, 1, decimal.RequireFromString("25.50"), "psp-2")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("75.50").Equal(tx.BalanceAfter))

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("75.50").Equal(balance))

	publisher.AssertExpectations(t)
}

func TestWalletService_DepositValidation(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		reference string
		wantErr   error
	}{
		{"zero amount", "0", "ref", ErrInvalidAmount},
		{"negative amount", "-10", "ref", ErrInvalidAmount},
		{"sub-cent amount", "1.005", "ref", ErrInvalidAmount},
		{"sub-cent amount with trailing zero", "1.0050", "ref", ErrInvalidAmount},
		{"missing reference", "10", "", ErrMissingReference},
	}

	svc, db := newTestService(t, Dependencies{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Deposit(context.Background(), 1, decimal.RequireFromString(tt.amount), tt.reference)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Wallet{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWalletService_DepositTrailingZeros(t *testing.T) {
	svc, _ := newTestService(t, Dependencies{})
	ctx := context.Background()

	tx, err := svc.Deposit(ctx, 1, decimal.RequireFromString("10.500"), "psp-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.50").Equal(tx.Amount))

	_, err = svc.Deposit(ctx, 1, decimal.RequireFromString("2.0000"), "psp-2")
	require.NoError(t, err)

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.50").Equal(balance))
}

func TestWalletService_DuplicateDeposit(t *testing.T) {
	svc, _ := newTestService(t, Dependencies{})
	ctx := context.Background()

	_, err := svc.Deposit(ctx, 1, decimal.RequireFromString("10"), "psp-1")
	require.NoError(t, err)

	_, err = svc.Deposit(ctx, 1, decimal.RequireFromString("10"), "psp-1")
	assert.ErrorIs(t, err, ErrDuplicateDeposit)

	balance, err := svc.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10").Equal(balance))
}

func TestWalletService_ConcurrentDeposits(t *testing.T) {
	svc, _ := newTestService(t, Dependencies{})
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Deposit(ctx, 1, decimal.RequireFromString("1.10"), "psp-"+string(rune('a'+i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	report, err := svc.Reconcile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, workers, report.Entries)
	assert.True(t, report.Consistent)
	assert.True(t, decimal.RequireFromString("11").Equal(report.Balance))
}

func TestWalletService_GetWalletUsesCache(t *testing.T) {
	mr, cacheService := setupCache(t)
	svc, db := newTestService(t, Dependencies{Cache: cacheService})
	ctx := context.Background()

	_, err := svc.GetWallet(ctx, 1)
	assert.ErrorIs(t, err, ErrWalletNotFound)

	_, err = svc.Deposit(ctx, 1, decimal.RequireFromString("10"), "psp-1")
	require.NoError(t, err)

	wallet, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, mr.Exists("wallet:user:1"))

	// a change behind the service's back is hidden by the cached snapshot
	require.NoError(t, db.Model(&models.Wallet{}).Where("id = ?", wallet.ID).Update("balance", decimal.RequireFromString("99")).Error)
	cached, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10").Equal(cached.Balance))

	// deposits invalidate the snapshot
	_, err = svc.Deposit(ctx, 1, decimal.RequireFromString("1"), "psp-2")
	require.NoError(t, err)
	assert.False(t, mr.Exists("wallet:user:1"))

	fresh, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("100").Equal(fresh.Balance))
}

// racingRepo simulates a purchase that commits and invalidates the cache
// right after the snapshot was read from the database.
type racingRepo struct {
	repositories.WalletRepository
	db    *gorm.DB
	cache *cache.CacheService
}

func (r *racingRepo) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	w, err := r.WalletRepository.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Wallet{}).Where("id = ?", w.ID).Update("balance", w.Balance.Sub(decimal.NewFromInt(4))).Error; err != nil {
		return nil, err
	}
	if err := r.cache.InvalidateWallet(ctx, userID); err != nil {
		return nil, err
	}
	return w, nil
}

func TestWalletService_GetWalletSkipsSnapshotInvalidatedDuringRead(t *testing.T) {
	mr, cacheService := setupCache(t)
	db, store := setupStore(t)
	ctx := context.Background()

	seed := NewService(store.Wallets, store, WalletConfig{}, Dependencies{Logger: quietLogger()})
	_, err := seed.Deposit(ctx, 1, decimal.RequireFromString("10"), "psp-1")
	require.NoError(t, err)

	repo := &racingRepo{WalletRepository: store.Wallets, db: db, cache: cacheService}
	svc := NewService(repo, store, WalletConfig{}, Dependencies{Cache: cacheService, Logger: quietLogger()})

	w, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10").Equal(w.Balance))
	assert.False(t, mr.Exists("wallet:user:1"), "snapshot read before the commit must not be cached")

	// the next read fills the cache with the committed balance
	plain := NewService(store.Wallets, store, WalletConfig{}, Dependencies{Cache: cacheService, Logger: quietLogger()})
	w, err = plain.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("6").Equal(w.Balance))
	assert.True(t, mr.Exists("wallet:user:1"))
}

func TestWalletService_GetBalanceWithoutWallet(t *testing.T) {
	svc, _ := newTestService(t, Dependencies{})

	balance, err := svc.GetBalance(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestWalletService_TransactionHistory(t *testing.T) {
	svc, _ := newTestService(t, Dependencies{})
	ctx := context.Background()

	empty, err := svc.GetTransactionHistory(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, empty.Transactions)

	for _, ref := range []string{"a", "b", "c"} {
		_, err := svc.Deposit(ctx, 1, decimal.RequireFromString("5"), ref)
		require.NoError(t, err)
	}

	page, err := svc.GetTransactionHistory(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, "c", page.Transactions[0].ReferenceID)

	page, err = svc.GetTransactionHistory(ctx, 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, "a", page.Transactions[0].ReferenceID)

	page, err = svc.GetTransactionHistory(ctx, 1, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Equal(t, 1, page.Page)
}

func TestWalletService_ReconcileDetectsDrift(t *testing.T) {
	svc, db := newTestService(t, Dependencies{})
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, 1)
	assert.ErrorIs(t, err, ErrWalletNotFound)

	tx, err := svc.Deposit(ctx, 1, decimal.RequireFromString("20"), "psp-1")
	require.NoError(t, err)

	report, err := svc.Reconcile(ctx, 1)
	require.NoError(t, err)
	assert.True(t, report.Consistent)

	require.NoError(t, db.Model(&models.Wallet{}).Where("id = ?", tx.WalletID).Update("balance", decimal.RequireFromString("25")).Error)

	report, err = svc.Reconcile(ctx, 1)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.True(t, decimal.RequireFromString("20").Equal(report.LedgerSum))
	assert.Zero(t, report.FirstMismatchID)
}

func TestWalletService_DepositStorageFailure(t *testing.T) {
	db, store := setupStore(t)
	svc := NewService(store.Wallets, store, WalletConfig{}, Dependencies{Logger: quietLogger()})

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.Deposit(context.Background(), 1, decimal.RequireFromString("10"), "psp-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransactionFailed))
}
