package vip

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"vipwallet/internal/lib/sl"
	"vipwallet/internal/repositories/cache"
)

// Purchase runs PurchaseUpgrade, deduplicating on req.IdempotencyKey when one
// is given. A repeated key replays the stored result; a key whose first
// request is still running yields ErrDuplicateRequest.
func (s *service) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	if req.IdempotencyKey == "" || s.idem == nil {
		return s.PurchaseUpgrade(ctx, req.ActorID, req.ListingID, req.PackageID)
	}

	key := idempotencyKey(req)
	reserved, err := s.idem.Reserve(ctx, key, s.config.IdempotencyTTL)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("reserve idempotency key: %w", err)}
	}
	if !reserved {
		return s.replay(ctx, key)
	}

	result, err := s.PurchaseUpgrade(ctx, req.ActorID, req.ListingID, req.PackageID)
	if err != nil {
		// failed requests leave nothing committed, so the key may be reused
		if relErr := s.idem.Release(context.WithoutCancel(ctx), key); relErr != nil {
			s.log.Warn("failed to release idempotency key", slog.String("key", key), sl.Err(relErr))
		}
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.log.Error("failed to encode purchase result", slog.String("key", key), sl.Err(err))
		return result, nil
	}
	if err := s.idem.Complete(context.WithoutCancel(ctx), key, string(payload), s.config.IdempotencyTTL); err != nil {
		s.log.Warn("failed to store idempotent result", slog.String("key", key), sl.Err(err))
	}
	return result, nil
}

func (s *service) replay(ctx context.Context, key string) (*PurchaseResult, error) {
	value, found, err := s.idem.Load(ctx, key)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("load idempotency key: %w", err)}
	}
	if !found || value == cache.IdempotencyPending {
		return nil, ErrDuplicateRequest
	}

	var result PurchaseResult
	if err := json.Unmarshal([]byte(value), &result); err != nil {
		return nil, &TransientError{Err: fmt.Errorf("decode stored result: %w", err)}
	}
	s.log.Info("replayed idempotent purchase", slog.String("key", key), slog.String("transaction_id", result.TransactionID))
	return &result, nil
}

func idempotencyKey(req PurchaseRequest) string {
	return fmt.Sprintf("vip:%d:%d:%d:%s", req.ActorID, req.ListingID, req.PackageID, req.IdempotencyKey)
}
