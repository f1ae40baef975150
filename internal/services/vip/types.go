package vip

import (
	"log/slog"
	"time"

	"vipwallet/internal/events"
	"vipwallet/internal/metrics"

	"github.com/shopspring/decimal"
)

// PurchaseRequest is a purchase as received from the API. IdempotencyKey is
// optional; when set, repeats of the same request return the first result.
type PurchaseRequest struct {
	ActorID        uint
	ListingID      uint
	PackageID      uint
	IdempotencyKey string
}

// PurchaseResult is returned for a committed purchase.
type PurchaseResult struct {
	Balance       decimal.Decimal `json:"balance"`
	TransactionID string          `json:"transaction_id"`
	ExpiresAt     time.Time       `json:"expires_at"`
	Tier          Tier            `json:"tier"`
	Permanent     bool            `json:"permanent"`
	StartsAt      time.Time       `json:"starts_at"`
	GrantID       uint            `json:"grant_id"`
	WalletID      uint            `json:"wallet_id"`
}

// Config holds purchase orchestration settings
type Config struct {
	MaxConflictRetries   int
	ProcessingTimeout    time.Duration
	IdempotencyTTL       time.Duration
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration

	// Now is the clock used for promotion windows; time.Now in UTC when nil.
	Now func() time.Time
}

// Dependencies are the collaborators of the service. Listings, Catalog,
// Grants and Store are required.
type Dependencies struct {
	Listings    ListingReader
	Catalog     CatalogReader
	Grants      GrantReader
	Store       UnitOfWork
	Cache       WalletCache
	Idempotency IdempotencyStore
	Events      events.Publisher
	Metrics     metrics.Collector
	Logger      *slog.Logger
}
