// Package main is the entry point for the wallet API.
// It loads configuration, wires storage, cache, events and metrics into the
// services, and serves HTTP until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vipwallet/internal/config"
	"vipwallet/internal/events"
	"vipwallet/internal/handlers"
	"vipwallet/internal/lib/sl"
	"vipwallet/internal/metrics"
	"vipwallet/internal/middleware"
	"vipwallet/internal/repositories"
	"vipwallet/internal/repositories/cache"
	"vipwallet/internal/routes"
	"vipwallet/internal/services/vip"
	"vipwallet/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const version = "1.0.0"

func main() {
	cfg := config.MustLoad()
	log := setupLogger(cfg)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", sl.Err(err))
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Warn("failed to close database connection", sl.Err(err))
		}
	}()

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("connected to database", slog.String("host", cfg.Database.Host), slog.String("name", cfg.Database.Name))
	go logPoolStats(ctx, sqlDB, log)

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cacheService := cache.NewCacheService(redisClient, cfg.Redis.CacheTTL)
	defer func() {
		if err := cacheService.Close(); err != nil {
			log.Warn("failed to close redis connection", sl.Err(err))
		}
	}()
	if err := cacheService.HealthCheck(ctx); err != nil {
		// reads fall back to the database; idempotent purchases report 503
		log.Warn("redis unavailable at startup", sl.Err(err))
	}

	publisher, closePublisher := setupPublisher(cfg.AMQP, log)
	defer closePublisher()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, cfg.Database.Name),
	)
	collector := metrics.NewPrometheusCollector(registry)

	maxDeposit, err := decimal.NewFromString(cfg.Wallet.MaxDeposit)
	if err != nil {
		return fmt.Errorf("invalid WALLET_MAX_DEPOSIT: %w", err)
	}

	store := repositories.NewStore(db, cfg.Database.LockTimeout)

	vipService := vip.NewService(vip.Dependencies{
		Listings:    store.Listings,
		Catalog:     store.Catalog,
		Grants:      store.Grants,
		Store:       store,
		Cache:       cacheService,
		Idempotency: cache.NewIdempotencyStore(redisClient),
		Events:      publisher,
		Metrics:     collector,
		Logger:      log,
	}, vip.Config{
		MaxConflictRetries: cfg.VIP.MaxConflictRetries,
		ProcessingTimeout:  cfg.VIP.ProcessingTimeout,
		IdempotencyTTL:     cfg.VIP.IdempotencyTTL,
	})

	walletService := wallet.NewService(store.Wallets, store, wallet.WalletConfig{
		ProcessingTimeout: cfg.Wallet.ProcessingTimeout,
		MaxDepositAmount:  maxDeposit,
	}, wallet.Dependencies{
		Cache:   cacheService,
		Events:  publisher,
		Metrics: collector,
		Logger:  log,
	})

	app := fiber.New(fiber.Config{
		AppName:      "vipwallet " + version,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + handlers.IdempotencyHeader,
		AllowMethods:     "GET,POST,HEAD",
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use("/api", limiter.New(limiter.Config{
		Max:        cfg.RateLimit.Max,
		Expiration: cfg.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Handlers{
		Auth:    middleware.NewAuthMiddleware(cfg.JWTSecret, log),
		VIP:     handlers.NewVIPHandler(vipService, log),
		Wallet:  handlers.NewWalletHandler(walletService, log),
		Admin:   handlers.NewAdminHandler(walletService, log),
		Health:  handlers.NewHealthHandler(sqlDB, cacheService, version),
		Metrics: adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// setupPublisher returns the AMQP publisher when a broker URL is configured.
// A broker that cannot be reached is not fatal: events are dropped.
func setupPublisher(cfg config.AMQP, log *slog.Logger) (events.Publisher, func()) {
	if cfg.URL == "" {
		log.Info("event publishing disabled")
		return events.NoopPublisher{}, func() {}
	}

	publisher, err := events.NewAMQPPublisher(cfg.URL, cfg.Exchange)
	if err != nil {
		log.Warn("failed to connect to event broker, events disabled", sl.Err(err))
		return events.NoopPublisher{}, func() {}
	}
	log.Info("publishing events", slog.String("exchange", cfg.Exchange))
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event broker connection", sl.Err(err))
		}
	}
}

func logPoolStats(ctx context.Context, sqlDB *sql.DB, log *slog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := sqlDB.Stats()
			log.Debug("db pool stats",
				slog.Int("open", stats.OpenConnections),
				slog.Int("idle", stats.Idle),
				slog.Int("in_use", stats.InUse),
				slog.Int64("wait_count", stats.WaitCount),
				slog.Duration("wait_duration", stats.WaitDuration))
		}
	}
}
