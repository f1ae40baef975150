package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vipwallet/internal/events"
	"vipwallet/internal/lib/sl"
	"vipwallet/internal/models"
	"vipwallet/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deposit records a completed deposit reported by the payment collaborator.
// The reference identifies the payment on the collaborator's side; a second
// deposit with the same reference is rejected with ErrDuplicateDeposit.
func (s *service) Deposit(ctx context.Context, userID uint, amount decimal.Decimal, reference string) (*models.Transaction, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OperationDeposit, time.Since(start))
	}()

	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		s.metrics.RecordOperationResult(OperationDeposit, "invalid_amount")
		return nil, ErrInvalidAmount
	}
	if !s.config.MaxDepositAmount.IsZero() && amount.GreaterThan(s.config.MaxDepositAmount) {
		s.metrics.RecordOperationResult(OperationDeposit, "invalid_amount")
		return nil, fmt.Errorf("%w: exceeds maximum of %s", ErrInvalidAmount, s.config.MaxDepositAmount.String())
	}
	if reference == "" || len(reference) > MaxReferenceLength {
		s.metrics.RecordOperationResult(OperationDeposit, "invalid_reference")
		return nil, ErrMissingReference
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.ProcessingTimeout)
	defer cancel()

	var entry *models.Transaction
	err := s.store.ExecuteInTransaction(ctx, func(tx *repositories.Store) error {
		wallet, err := tx.Wallets.GetOrCreateForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		// the wallet lock serializes deposits, so this check cannot race
		_, err = tx.Wallets.GetTransactionByReference(ctx, wallet.ID, models.TransactionTypeDeposit, reference)
		if err == nil {
			return ErrDuplicateDeposit
		}
		if !errors.Is(err, repositories.ErrTransactionNotFound) {
			return err
		}

		wallet.Balance = wallet.Balance.Add(amount)
		if err := tx.Wallets.UpdateBalance(ctx, wallet); err != nil {
			return err
		}

		now := time.Now().UTC()
		entry = &models.Transaction{
			TransactionID: uuid.NewString(),
			WalletID:      wallet.ID,
			Type:          models.TransactionTypeDeposit,
			Amount:        amount,
			BalanceAfter:  wallet.Balance,
			Status:        models.TransactionStatusCompleted,
			ReferenceID:   reference,
			Description:   "Wallet deposit",
			CompletedAt:   &now,
		}
		return tx.Wallets.CreateTransaction(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateDeposit) {
			s.metrics.RecordOperationResult(OperationDeposit, "duplicate")
			return nil, err
		}
		s.metrics.RecordOperationResult(OperationDeposit, "failed")
		errType := "unexpected"
		if repositories.IsTransient(err) {
			errType = "storage"
		}
		s.metrics.RecordError(OperationDeposit, errType)
		s.log.Error("deposit failed", slog.Uint64("user_id", uint64(userID)), slog.String("reference", reference), sl.Err(err))
		return nil, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	s.metrics.RecordOperationResult(OperationDeposit, "success")
	f, _ := amount.Float64()
	s.metrics.RecordTransaction(models.TransactionTypeDeposit, f)
	s.invalidate(ctx, userID)

	event := events.WalletDeposited{
		TransactionID: entry.TransactionID,
		UserID:        userID,
		Amount:        amount.String(),
		BalanceAfter:  entry.BalanceAfter.String(),
		Reference:     reference,
		OccurredAt:    *entry.CompletedAt,
	}
	if err := s.events.Publish(ctx, events.RoutingKeyWalletDeposited, event); err != nil {
		s.log.Warn("failed to publish deposit event", slog.String("transaction_id", entry.TransactionID), sl.Err(err))
	}

	s.log.Info("deposit recorded",
		slog.Uint64("user_id", uint64(userID)),
		slog.String("transaction_id", entry.TransactionID),
		slog.String("amount", amount.String()))
	return entry, nil
}

// Reconcile replays the completed ledger of the user's wallet and compares
// the running sum with each entry's BalanceAfter and with the stored balance.
func (s *service) Reconcile(ctx context.Context, userID uint) (*ReconciliationReport, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OperationReconcile, time.Since(start))
	}()

	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	entries, err := s.repo.ListLedger(ctx, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	report := &ReconciliationReport{
		WalletID:  wallet.ID,
		Balance:   wallet.Balance,
		LedgerSum: decimal.Zero,
		Entries:   len(entries),
	}
	for i := range entries {
		report.LedgerSum = report.LedgerSum.Add(entries[i].SignedAmount())
		if report.FirstMismatchID == 0 && !report.LedgerSum.Equal(entries[i].BalanceAfter) {
			report.FirstMismatchID = entries[i].ID
		}
	}
	report.Consistent = report.FirstMismatchID == 0 && report.LedgerSum.Equal(wallet.Balance)

	result := "consistent"
	if !report.Consistent {
		result = "inconsistent"
		s.log.Error("wallet ledger does not reconcile",
			slog.Uint64("wallet_id", uint64(wallet.ID)),
			slog.String("balance", wallet.Balance.String()),
			slog.String("ledger_sum", report.LedgerSum.String()),
			slog.Uint64("first_mismatch_id", uint64(report.FirstMismatchID)))
	}
	s.metrics.RecordOperationResult(OperationReconcile, result)
	return report, nil
}
