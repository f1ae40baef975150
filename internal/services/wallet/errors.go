package wallet

import "errors"

// Service errors
var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMissingReference  = errors.New("deposit reference is required")
	ErrDuplicateDeposit  = errors.New("deposit already recorded")
	ErrTransactionFailed = errors.New("transaction failed")
)
