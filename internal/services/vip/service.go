package vip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"vipwallet/internal/events"
	"vipwallet/internal/lib/sl"
	"vipwallet/internal/metrics"
	"vipwallet/internal/models"
	"vipwallet/internal/repositories"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

type service struct {
	listings ListingReader
	catalog  CatalogReader
	grants   GrantReader
	store    UnitOfWork
	cache    WalletCache
	idem     IdempotencyStore
	events   events.Publisher
	metrics  metrics.Collector
	log      *slog.Logger
	config   Config
}

// NewService creates a new VIP purchase service
func NewService(deps Dependencies, config Config) Service {
	if deps.Listings == nil {
		panic("listings reader is required")
	}
	if deps.Catalog == nil {
		panic("catalog reader is required")
	}
	if deps.Grants == nil {
		panic("grant reader is required")
	}
	if deps.Store == nil {
		panic("store is required")
	}

	if config.MaxConflictRetries < 0 {
		config.MaxConflictRetries = 0
	}
	if config.ProcessingTimeout == 0 {
		config.ProcessingTimeout = DefaultProcessingTimeout
	}
	if config.IdempotencyTTL == 0 {
		config.IdempotencyTTL = DefaultIdempotencyTTL
	}
	if config.RetryInitialInterval == 0 {
		config.RetryInitialInterval = DefaultRetryInitialInterval
	}
	if config.RetryMaxInterval == 0 {
		config.RetryMaxInterval = DefaultRetryMaxInterval
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Now().UTC() }
	}

	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = &metrics.NoopCollector{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &service{
		listings: deps.Listings,
		catalog:  deps.Catalog,
		grants:   deps.Grants,
		store:    deps.Store,
		cache:    deps.Cache,
		idem:     deps.Idempotency,
		events:   deps.Events,
		metrics:  deps.Metrics,
		log:      deps.Logger.With(slog.String("component", "vip")),
		config:   config,
	}
}

func (s *service) PurchaseUpgrade(ctx context.Context, actorID, listingID, packageID uint) (*PurchaseResult, error) {
	start := time.Now()
	result, err := s.purchase(ctx, actorID, listingID, packageID)
	s.metrics.RecordOperationDuration(OperationPurchase, time.Since(start))
	s.metrics.RecordOperationResult(OperationPurchase, resultLabel(err))

	log := s.log.With(
		slog.Uint64("user_id", uint64(actorID)),
		slog.Uint64("listing_id", uint64(listingID)),
		slog.Uint64("package_id", uint64(packageID)),
	)
	switch {
	case err == nil:
		log.Info("vip package purchased",
			slog.String("transaction_id", result.TransactionID),
			slog.String("tier", string(result.Tier)),
			slog.Time("expires_at", result.ExpiresAt))
	case isBusinessError(err):
		log.Info("vip purchase rejected", sl.Err(err))
	default:
		errType := "unexpected"
		if repositories.IsTransient(err) {
			errType = "storage"
		}
		s.metrics.RecordError(OperationPurchase, errType)
		log.Error("vip purchase failed", slog.String("error_type", errType), sl.Err(err))
	}
	return result, err
}

func (s *service) purchase(ctx context.Context, actorID, listingID, packageID uint) (*PurchaseResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.ProcessingTimeout)
	defer cancel()

	listing, err := s.listings.GetListingForOwnershipCheck(ctx, listingID)
	if err != nil {
		if errors.Is(err, repositories.ErrListingNotFound) {
			return nil, &AuthorizationError{ActorID: actorID, ListingID: listingID}
		}
		return nil, &TransientError{Err: err}
	}
	if err := checkListing(listing, actorID); err != nil {
		return nil, err
	}

	pkg, err := s.catalog.GetActivePackage(ctx, packageID)
	if err != nil {
		if errors.Is(err, repositories.ErrPackageNotFound) {
			return nil, &NotFoundError{Resource: "package", ID: packageID}
		}
		return nil, &TransientError{Err: err}
	}
	if !purchasable(pkg) {
		return nil, &NotFoundError{Resource: "package", ID: packageID}
	}

	var result *PurchaseResult
	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			s.metrics.RecordRetry(OperationPurchase)
		}
		r, err := s.executePurchase(ctx, actorID, listingID, pkg)
		if err == nil {
			result = r
			return nil
		}
		if repositories.IsConflict(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, s.newBackOff(ctx)); err != nil {
		if isBusinessError(err) {
			return nil, err
		}
		return nil, &TransientError{Err: err}
	}

	s.afterCommit(ctx, actorID, listingID, pkg, result)
	return result, nil
}

// executePurchase is one attempt of the unit of work. Balance and expiration
// are read from rows locked by this transaction, never from the precondition
// reads.
func (s *service) executePurchase(ctx context.Context, actorID, listingID uint, pkg *models.VIPPackage) (*PurchaseResult, error) {
	var result *PurchaseResult

	err := s.store.ExecuteInTransaction(ctx, func(tx *repositories.Store) error {
		wallet, err := tx.Wallets.GetOrCreateForUpdate(ctx, actorID)
		if err != nil {
			return err
		}

		listing, err := tx.Listings.GetForUpdate(ctx, listingID)
		if err != nil {
			if errors.Is(err, repositories.ErrListingNotFound) {
				return &AuthorizationError{ActorID: actorID, ListingID: listingID}
			}
			return err
		}
		if err := checkListing(listing, actorID); err != nil {
			return err
		}

		if wallet.Balance.LessThan(pkg.Price) {
			return &InsufficientFundsError{Balance: wallet.Balance, Price: pkg.Price}
		}

		now := s.config.Now()
		window := ComputeWindow(now, listing.CurrentVIPExpiration, pkg.DurationDays)
		tier := ClassifyTier(pkg.Code)

		wallet.Balance = wallet.Balance.Sub(pkg.Price)
		if err := tx.Wallets.UpdateBalance(ctx, wallet); err != nil {
			return err
		}

		grant := &models.SubscriptionGrant{
			ListingID: listingID,
			PackageID: pkg.ID,
			StartsAt:  window.StartsAt,
			ExpiresAt: window.ExpiresAt,
		}
		if err := tx.Grants.Create(ctx, grant); err != nil {
			return err
		}

		entry := &models.Transaction{
			TransactionID: uuid.NewString(),
			WalletID:      wallet.ID,
			Type:          models.TransactionTypeVIPPurchase,
			Amount:        pkg.Price,
			BalanceAfter:  wallet.Balance,
			Status:        models.TransactionStatusCompleted,
			ReferenceID:   strconv.FormatUint(uint64(grant.ID), 10),
			Description:   fmt.Sprintf("VIP package %s for listing %d", pkg.Code, listingID),
			Metadata: models.NewJSON(map[string]interface{}{
				"listing_id":   listingID,
				"package_id":   pkg.ID,
				"package_code": pkg.Code,
				"tier":         string(tier),
			}),
			CompletedAt: &now,
		}
		if err := tx.Wallets.CreateTransaction(ctx, entry); err != nil {
			return err
		}

		expiresAt := window.ExpiresAt
		if err := tx.Listings.UpdateListingPromotionState(ctx, listingID, true, string(tier), &expiresAt); err != nil {
			return err
		}

		result = &PurchaseResult{
			Balance:       wallet.Balance,
			TransactionID: entry.TransactionID,
			ExpiresAt:     window.ExpiresAt,
			StartsAt:      window.StartsAt,
			Tier:          tier,
			Permanent:     window.Permanent,
			GrantID:       grant.ID,
			WalletID:      wallet.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// afterCommit runs side effects that must not influence the purchase outcome.
func (s *service) afterCommit(ctx context.Context, actorID, listingID uint, pkg *models.VIPPackage, result *PurchaseResult) {
	amount, _ := pkg.Price.Float64()
	s.metrics.RecordTransaction(models.TransactionTypeVIPPurchase, amount)

	if s.cache != nil {
		if err := s.cache.InvalidateWallet(ctx, actorID); err != nil {
			s.log.Warn("failed to invalidate wallet cache", slog.Uint64("user_id", uint64(actorID)), sl.Err(err))
		}
	}

	event := events.VIPPurchased{
		TransactionID: result.TransactionID,
		UserID:        actorID,
		ListingID:     listingID,
		PackageID:     pkg.ID,
		GrantID:       result.GrantID,
		Tier:          string(result.Tier),
		Amount:        pkg.Price.String(),
		BalanceAfter:  result.Balance.String(),
		StartsAt:      result.StartsAt,
		ExpiresAt:     result.ExpiresAt,
		Permanent:     result.Permanent,
		OccurredAt:    s.config.Now(),
	}
	if err := s.events.Publish(ctx, events.RoutingKeyVIPPurchased, event); err != nil {
		s.log.Warn("failed to publish purchase event", slog.String("transaction_id", result.TransactionID), sl.Err(err))
	}
}

func (s *service) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.RetryInitialInterval
	b.MaxInterval = s.config.RetryMaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.config.MaxConflictRetries)), ctx)
}

func (s *service) ListGrants(ctx context.Context, actorID, listingID uint) ([]models.SubscriptionGrant, error) {
	listing, err := s.listings.GetListingForOwnershipCheck(ctx, listingID)
	if err != nil {
		if errors.Is(err, repositories.ErrListingNotFound) {
			return nil, &AuthorizationError{ActorID: actorID, ListingID: listingID}
		}
		return nil, &TransientError{Err: err}
	}
	if listing.OwnerID != actorID {
		return nil, &AuthorizationError{ActorID: actorID, ListingID: listingID}
	}

	grants, err := s.grants.ListByListing(ctx, listingID)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	return grants, nil
}

func (s *service) ListPackages(ctx context.Context) ([]models.VIPPackage, error) {
	packages, err := s.catalog.ListActivePackages(ctx)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	return packages, nil
}

func checkListing(listing *models.Listing, actorID uint) error {
	if listing.OwnerID != actorID {
		return &AuthorizationError{ActorID: actorID, ListingID: listing.ID}
	}
	if listing.Status != models.ListingStatusPublished {
		return &InvalidStateError{ListingID: listing.ID, Status: listing.Status}
	}
	return nil
}

// purchasable rejects catalog rows that are active but cannot be sold: a
// non-positive price or a non-positive duration.
func purchasable(pkg *models.VIPPackage) bool {
	if !pkg.IsActive || !pkg.Price.IsPositive() {
		return false
	}
	return pkg.DurationDays == nil || *pkg.DurationDays > 0
}
