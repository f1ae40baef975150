package vip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"vipwallet/internal/metrics"
	"vipwallet/internal/models"
	"vipwallet/internal/repositories"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUnitOfWork struct {
	mock.Mock
	next UnitOfWork
}

// ExecuteInTransaction returns the configured error, or delegates to the
// wrapped store when the expectation returns nil.
func (m *MockUnitOfWork) ExecuteInTransaction(ctx context.Context, fn func(tx *repositories.Store) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return m.next.ExecuteInTransaction(ctx, fn)
}

type MockListingReader struct {
	mock.Mock
}

func (m *MockListingReader) GetListingForOwnershipCheck(ctx context.Context, listingID uint) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Load(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyStore) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockWalletCache struct {
	mock.Mock
}

func (m *MockWalletCache) InvalidateWallet(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newServiceWith(t *testing.T, f *fixture, deps Dependencies, retries int) Service {
	t.Helper()

	if deps.Listings == nil {
		deps.Listings = f.store.Listings
	}
	deps.Catalog = f.store.Catalog
	deps.Grants = f.store.Grants
	if deps.Store == nil {
		deps.Store = f.store
	}
	deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewService(deps, Config{
		MaxConflictRetries:   retries,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     time.Millisecond,
		Now:                  func() time.Time { return testNow },
	})
}

func TestPurchaseUpgrade_RetriesConflicts(t *testing.T) {
	f := newFixture(t)
	listing := f.createListing(t, ownerID, models.ListingStatusPublished, nil)
	pkg := f.createPackage(t, "gold_30", "10", days(30), true)
	wallet := f.fundWallet(t, ownerID, "100")

	uow := &MockUnitOfWork{next: f.store}
	uow.On("ExecuteInTransaction", mock.Anything).Return(&pgconn.PgError{Code: "40P01"}).Once()
	uow.On("ExecuteInTransaction", mock.Anything).Return(nil).Once()

	reg := prometheus.NewRegistry()
	collector := metrics.NewPrometheusCollector(reg)
	svc := newServiceWith(t, f, Dependencies{Store: uow, Metrics: collector}, 2)

	result, err := svc.PurchaseUpgrade(context.Background(), ownerID, listing.ID, pkg.ID)
	require.NoError(t, err)
	requireDecimal(t, "90", result.Balance)
	assert.Len(t, f.ledger(t, wallet.ID), 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.Retries.WithLabelValues(OperationPurchase)))

	uow.AssertExpectations(t)
}

func TestPurchaseUpgrade_ConflictRetriesExhausted(t *testing.T) {
	f := newFixture(t)
	listing := f.createListing(t, ownerID, models.ListingStatusPublished, nil)
	pkg := f.createPackage(t, "gold_30", "10", days(30), true)
	f.fundWallet(t, ownerID, "100")

	conflict := &pgconn.PgError{Code: "40001"}
	uow := &MockUnitOfWork{next: f.store}
	uow.On("ExecuteInTransaction", mock.Anything).Return(conflict).Times(3)

	svc := newServiceWith(t, f, Dependencies{Store: uow}, 2)

	_, err := svc.PurchaseUpgrade(context.Background(), ownerID, listing.ID, pkg.ID)
	require.ErrorIs(t, err, ErrTransient)

	var transient *TransientError
	require.True(t, errors.As(err, &transient))
	assert.ErrorIs(t, transient, conflict)

	requireDecimal(t, "100", f.wallet(t, ownerID).Balance)
	uow.AssertExpectations(t)
}

func TestPurchaseUpgrade_StorageFailureIsNotRetried(t *testing.T) {
	f := newFixture(t)
	listing := f.createListing(t, ownerID, models.ListingStatusPublished, nil)
	pkg := f.createPackage(t, "gold_30", "10", days(30), true)

	uow := &MockUnitOfWork{next: f.store}
	uow.On("ExecuteInTransaction", mock.Anything).Return(errors.New("connection reset")).Once()

	svc := newServiceWith(t, f, Dependencies{Store: uow}, 2)

	_, err := svc.PurchaseUpgrade(context.Background(), ownerID, listing.ID, pkg.ID)
	assert.ErrorIs(t, err, ErrTransient)
	uow.AssertExpectations(t)
}

func TestPurchaseUpgrade_ListingLookupFailure(t *testing.T) {
	f := newFixture(t)

	listings := new(MockListingReader)
	listings.On("GetListingForOwnershipCheck", mock.Anything, uint(3)).Return(nil, errors.New("timeout"))

	svc := newServiceWith(t, f, Dependencies{Listings: listings}, 0)

	_, err := svc.PurchaseUpgrade(context.Background(), ownerID, 3, 1)
	assert.ErrorIs(t, err, ErrTransient)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	listings.AssertExpectations(t)
}

func TestPurchaseUpgrade_InvalidatesWalletCache(t *testing.T) {
	f := newFixture(t)
	listing := f.createListing(t, ownerID, models.ListingStatusPublished, nil)
	pkg := f.createPackage(t, "gold_30", "10", days(30), true)
	f.fundWallet(t, ownerID, "100")

	cache := new(MockWalletCache)
	cache.On("InvalidateWallet", mock.Anything, ownerID).Return(errors.New("redis down")).Once()

	svc := newServiceWith(t, f, Dependencies{Cache: cache}, 0)

	// cache failures happen after commit and do not fail the purchase
	_, err := svc.PurchaseUpgrade(context.Background(), ownerID, listing.ID, pkg.ID)
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestPurchase_Idempotency(t *testing.T) {
	f := newFixture(t)
	listing := f.createListing(t, ownerID, models.ListingStatusPublished, nil)
	pkg := f.createPackage(t, "gold_30", "10", days(30), true)
	f.fundWallet(t, ownerID, "100")

	req := PurchaseRequest{ActorID: ownerID, ListingID: listing.ID, PackageID: pkg.ID, IdempotencyKey: "abc"}
	key := idempotencyKey(req)

	t.Run("first request stores result", func(t *testing.T) {
		idem := new(MockIdempotencyStore)
		idem.On("Reserve", mock.Anything, key, DefaultIdempotencyTTL).Return(true, nil).Once()
		idem.On("Complete", mock.Anything, key, mock.AnythingOfType("string"), DefaultIdempotencyTTL).Return(nil).Once()

		svc := newServiceWith(t, f, Dependencies{Idempotency: idem}, 0)
		result, err := svc.Purchase(context.Background(), req)
		require.NoError(t, err)
		requireDecimal(t, "90", result.Balance)
		idem.AssertExpectations(t)
	})

	t.Run("repeat replays stored result", func(t *testing.T) {
		stored := `{"balance":"90","transaction_id":"tx-1","expires_at":"2025-03-31T12:00:00Z","tier":"gold","permanent":false}`
		idem := new(MockIdempotencyStore)
		idem.On("Reserve", mock.Anything, key, DefaultIdempotencyTTL).Return(false, nil).Once()
		idem.On("Load", mock.Anything, key).Return(stored, true, nil).Once()

		svc := newServiceWith(t, f, Dependencies{Idempotency: idem}, 0)
		result, err := svc.Purchase(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "tx-1", result.TransactionID)
		assert.Equal(t, TierGold, result.Tier)
		idem.AssertExpectations(t)

		// no second debit
		requireDecimal(t, "90", f.wallet(t, ownerID).Balance)
	})

	t.Run("request in flight", func(t *testing.T) {
		idem := new(MockIdempotencyStore)
		idem.On("Reserve", mock.Anything, key, DefaultIdempotencyTTL).Return(false, nil).Once()
		idem.On("Load", mock.Anything, key).Return("pending", true, nil).Once()

		svc := newServiceWith(t, f, Dependencies{Idempotency: idem}, 0)
		_, err := svc.Purchase(context.Background(), req)
		assert.ErrorIs(t, err, ErrDuplicateRequest)
		idem.AssertExpectations(t)
	})

	t.Run("failed purchase releases key", func(t *testing.T) {
		failing := PurchaseRequest{ActorID: ownerID + 1, ListingID: listing.ID, PackageID: pkg.ID, IdempotencyKey: "abc"}
		failingKey := idempotencyKey(failing)

		idem := new(MockIdempotencyStore)
		idem.On("Reserve", mock.Anything, failingKey, DefaultIdempotencyTTL).Return(true, nil).Once()
		idem.On("Release", mock.Anything, failingKey).Return(nil).Once()

		svc := newServiceWith(t, f, Dependencies{Idempotency: idem}, 0)
		_, err := svc.Purchase(context.Background(), failing)
		assert.ErrorIs(t, err, ErrUnauthorized)
		idem.AssertExpectations(t)
	})

	t.Run("redis unavailable", func(t *testing.T) {
		idem := new(MockIdempotencyStore)
		idem.On("Reserve", mock.Anything, key, DefaultIdempotencyTTL).Return(false, errors.New("dial tcp: refused")).Once()

		svc := newServiceWith(t, f, Dependencies{Idempotency: idem}, 0)
		_, err := svc.Purchase(context.Background(), req)
		assert.ErrorIs(t, err, ErrTransient)
		idem.AssertExpectations(t)
	})
}
