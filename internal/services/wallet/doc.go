/*
Package wallet provides the read side of the prepaid wallet and the deposit path.

The wallet service handles:
- Balance and wallet snapshot reads (redis cached)
- Transaction history
- Deposits recorded by the payment collaborator
- Ledger reconciliation

Balances are only debited by the vip package; this package never spends.

Usage:

	// Create a new wallet service
	svc := wallet.NewService(store.Wallets, store, config, wallet.Dependencies{Cache: cacheService})

	// Record a completed deposit
	tx, err := svc.Deposit(ctx, userID, decimal.RequireFromString("50.00"), "psp-123")

	// Get transaction history
	history, err := svc.GetTransactionHistory(ctx, userID, page, limit)

	// Check that the balance equals the sum of the ledger
	report, err := svc.Reconcile(ctx, userID)

Error Handling:

The service returns specific errors for different scenarios:
- ErrWalletNotFound: the user has never been funded nor made a purchase
- ErrInvalidAmount: deposit amount is not positive
- ErrMissingReference: deposit has no external reference
- ErrDuplicateDeposit: the external reference was already recorded

Cache Management:

Wallet snapshots are cached after a database read and invalidated after every
committed balance change. Money decisions never read the cache.
*/
package wallet
