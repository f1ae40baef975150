package vip

import (
	"context"
	"time"

	"vipwallet/internal/models"
	"vipwallet/internal/repositories"
)

// Service sells VIP packages
type Service interface {
	PurchaseUpgrade(ctx context.Context, actorID, listingID, packageID uint) (*PurchaseResult, error)
	Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error)
	ListGrants(ctx context.Context, actorID, listingID uint) ([]models.SubscriptionGrant, error)
	ListPackages(ctx context.Context) ([]models.VIPPackage, error)
}

type ListingReader interface {
	GetListingForOwnershipCheck(ctx context.Context, listingID uint) (*models.Listing, error)
}

type CatalogReader interface {
	GetActivePackage(ctx context.Context, packageID uint) (*models.VIPPackage, error)
	ListActivePackages(ctx context.Context) ([]models.VIPPackage, error)
}

type GrantReader interface {
	ListByListing(ctx context.Context, listingID uint) ([]models.SubscriptionGrant, error)
}

// UnitOfWork runs fn inside one database transaction.
type UnitOfWork interface {
	ExecuteInTransaction(ctx context.Context, fn func(tx *repositories.Store) error) error
}

type WalletCache interface {
	InvalidateWallet(ctx context.Context, userID uint) error
}

type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Load(ctx context.Context, key string) (string, bool, error)
	Complete(ctx context.Context, key, value string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}
