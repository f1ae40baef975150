/*
Package vip sells VIP promotion packages for listings against the owner's
prepaid wallet.

PurchaseUpgrade is the single entry point. It checks that the caller owns a
published listing and that the package is active, then runs one database
transaction that:

  - gets or creates the caller's wallet and locks its row
  - locks the listing row and re-reads its current VIP expiration
  - rejects the purchase when the balance is below the package price
  - extends the promotion from max(now, current expiration)
  - debits the wallet, inserts a subscription grant, appends a
    VIP_PURCHASE ledger entry and updates the listing promotion columns

Any failure rolls the whole transaction back. Storage conflicts (serialization
failures, deadlocks, lock timeouts) are retried a bounded number of times and
then surfaced as *TransientError. Business-rule failures are never retried.

Errors:

  - *AuthorizationError: the caller does not own the listing
  - *InvalidStateError: the listing is not published
  - *NotFoundError: the package does not exist or is inactive
  - *InsufficientFundsError: balance below price; carries both amounts
  - *TransientError: storage failure; the whole call may be retried

Each type matches its sentinel through errors.Is (ErrUnauthorized,
ErrInvalidState, ErrNotFound, ErrInsufficientFunds, ErrTransient).
*/
package vip
