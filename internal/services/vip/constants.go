package vip

import "time"

// Metric operation names
const (
	OperationPurchase = "vip_purchase"
)

// Metric result labels
const (
	ResultSuccess           = "success"
	ResultUnauthorized      = "unauthorized"
	ResultInvalidState      = "invalid_state"
	ResultNotFound          = "not_found"
	ResultInsufficientFunds = "insufficient_funds"
	ResultTransient         = "transient"
	ResultDuplicate         = "duplicate"
)

// Default configuration values
const (
	DefaultMaxConflictRetries   = 2
	DefaultProcessingTimeout    = 30 * time.Second
	DefaultIdempotencyTTL       = 24 * time.Hour
	DefaultRetryInitialInterval = 25 * time.Millisecond
	DefaultRetryMaxInterval     = 250 * time.Millisecond
)
