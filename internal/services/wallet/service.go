package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vipwallet/internal/events"
	"vipwallet/internal/lib/sl"
	"vipwallet/internal/metrics"
	"vipwallet/internal/models"
	"vipwallet/internal/repositories"
	"vipwallet/internal/repositories/cache"

	"github.com/shopspring/decimal"
)

type service struct {
	repo    repositories.WalletRepository
	store   UnitOfWork
	cache   CacheOperator
	events  events.Publisher
	config  WalletConfig
	metrics metrics.Collector
	log     *slog.Logger
}

// NewService creates a new wallet service
func NewService(
	repo repositories.WalletRepository,
	store UnitOfWork,
	config WalletConfig,
	deps Dependencies,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if store == nil {
		panic("store is required")
	}

	if config.ProcessingTimeout == 0 {
		config.ProcessingTimeout = DefaultTimeout
	}

	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	// Metrics is optional, create no-op collector if nil
	if deps.Metrics == nil {
		deps.Metrics = &metrics.NoopCollector{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &service{
		repo:    repo,
		store:   store,
		cache:   deps.Cache,
		events:  deps.Events,
		config:  config,
		metrics: deps.Metrics,
		log:     deps.Logger.With(slog.String("component", "wallet")),
	}
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	// Try cache first
	fill := false
	var version int64
	if s.cache != nil {
		if wallet, err := s.cache.GetWallet(ctx, userID); err == nil && wallet != nil {
			return wallet, nil
		} else if err != nil {
			s.log.Warn("wallet cache read failed", slog.Uint64("user_id", uint64(userID)), sl.Err(err))
		}
		v, err := s.cache.WalletVersion(ctx, userID)
		if err != nil {
			s.log.Warn("wallet cache version read failed", slog.Uint64("user_id", uint64(userID)), sl.Err(err))
		} else {
			fill, version = true, v
		}
	}

	// Get from database
	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	// Update cache unless a commit invalidated it meanwhile
	if fill {
		err := s.cache.CacheWallet(ctx, wallet, version)
		switch {
		case errors.Is(err, cache.ErrStaleSnapshot):
			s.log.Debug("skipped stale wallet snapshot", slog.Uint64("user_id", uint64(userID)))
		case err != nil:
			s.log.Warn("wallet cache write failed", slog.Uint64("user_id", uint64(userID)), sl.Err(err))
		}
	}
	return wallet, nil
}

// GetBalance returns zero for users whose wallet has not been created yet.
func (s *service) GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

func (s *service) GetTransactionHistory(ctx context.Context, userID uint, page, limit int) (*TransactionPage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}

	result := &TransactionPage{Transactions: []models.Transaction{}, Page: page, Limit: limit}

	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	history, total, err := s.repo.GetTransactionHistory(ctx, wallet.ID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	result.Transactions = history
	result.Total = total
	return result, nil
}

func (s *service) invalidate(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateWallet(ctx, userID); err != nil {
		s.log.Warn("failed to invalidate wallet cache", slog.Uint64("user_id", uint64(userID)), sl.Err(err))
	}
}
