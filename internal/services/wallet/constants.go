package wallet

import "time"

// Metric operation names
const (
	OperationDeposit   = "deposit"
	OperationReconcile = "reconcile"
)

// Default configuration values
const (
	DefaultTimeout     = 30 * time.Second
	DefaultPageSize    = 20
	MaxPageSize        = 100
	MaxReferenceLength = 64
)
