// Package events publishes facts about committed wallet operations for other
// services (listing search, notifications). Events are sent after commit and
// are best effort: losing one never changes wallet state.
package events

import (
	"context"
	"time"
)

// Routing keys
const (
	RoutingKeyVIPPurchased    = "vip.purchased"
	RoutingKeyWalletDeposited = "wallet.deposited"
)

// VIPPurchased is emitted once per committed VIP purchase.
type VIPPurchased struct {
	TransactionID string    `json:"transaction_id"`
	UserID        uint      `json:"user_id"`
	ListingID     uint      `json:"listing_id"`
	PackageID     uint      `json:"package_id"`
	GrantID       uint      `json:"grant_id"`
	Tier          string    `json:"tier"`
	Amount        string    `json:"amount"`
	BalanceAfter  string    `json:"balance_after"`
	StartsAt      time.Time `json:"starts_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Permanent     bool      `json:"permanent"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// WalletDeposited is emitted once per recorded deposit.
type WalletDeposited struct {
	TransactionID string    `json:"transaction_id"`
	UserID        uint      `json:"user_id"`
	Amount        string    `json:"amount"`
	BalanceAfter  string    `json:"balance_after"`
	Reference     string    `json:"reference"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher sends events to the broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
