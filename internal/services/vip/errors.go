package vip

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinels matched by the typed errors below.
var (
	ErrUnauthorized      = errors.New("listing is not owned by caller")
	ErrInvalidState      = errors.New("listing cannot be promoted")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTransient         = errors.New("temporary storage failure")
	ErrDuplicateRequest  = errors.New("request with this idempotency key is in progress")
)

type AuthorizationError struct {
	ActorID   uint
	ListingID uint
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d may not promote listing %d", e.ActorID, e.ListingID)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrUnauthorized }

type InvalidStateError struct {
	ListingID uint
	Status    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("listing %d is %q, only published listings can be promoted", e.ListingID, e.Status)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientFundsError reports the balance seen under the wallet lock and
// the price that was required.
type InsufficientFundsError struct {
	Balance decimal.Decimal
	Price   decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, price %s", e.Balance.String(), e.Price.String())
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// TransientError wraps a storage failure. Nothing was committed; the caller
// may retry the whole request.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransient.Error(), e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// isBusinessError reports errors decided by data rather than by storage.
func isBusinessError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientFunds)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrUnauthorized):
		return ResultUnauthorized
	case errors.Is(err, ErrInvalidState):
		return ResultInvalidState
	case errors.Is(err, ErrNotFound):
		return ResultNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return ResultInsufficientFunds
	case errors.Is(err, ErrDuplicateRequest):
		return ResultDuplicate
	default:
		return ResultTransient
	}
}
