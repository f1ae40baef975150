// Command admin_seed installs the default VIP catalog and prints an admin
// token for operating the deposit endpoint. With SEED_DEMO_OWNER set it also
// creates a published listing and a funded wallet for that user.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"vipwallet/internal/config"
	"vipwallet/internal/lib/sl"
	"vipwallet/internal/models"
	"vipwallet/internal/repositories"
	"vipwallet/internal/services/wallet"
	"vipwallet/internal/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	cfg := config.MustLoad()
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := seed(cfg, log); err != nil {
		log.Error("seed failed", sl.Err(err))
		os.Exit(1)
	}
}

func seed(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := repositories.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.Warn("failed to close database connection", sl.Err(err))
		}
	}()

	inserted, err := repositories.SeedCatalog(ctx, db, repositories.DefaultCatalog)
	if err != nil {
		return err
	}
	log.Info("catalog seeded", slog.Int64("inserted", inserted), slog.Int("total", len(repositories.DefaultCatalog)))

	if owner := config.GetIntEnv("SEED_DEMO_OWNER", 0); owner > 0 {
		if err := seedDemo(ctx, db, uint(owner), log); err != nil {
			return err
		}
	}

	adminID := config.GetIntEnv("ADMIN_USER_ID", 1)
	token, err := utils.GenerateToken(cfg.JWTSecret, &models.UserClaims{
		UserID: uint(adminID),
		Role:   models.RoleAdmin,
	}, 24*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to issue admin token: %w", err)
	}
	fmt.Println(token)
	return nil
}

func seedDemo(ctx context.Context, db *gorm.DB, owner uint, log *slog.Logger) error {
	listing := &models.Listing{
		OwnerID: owner,
		Title:   config.GetEnv("SEED_DEMO_TITLE", "Demo listing"),
		Status:  models.ListingStatusPublished,
	}
	if err := db.WithContext(ctx).Create(listing).Error; err != nil {
		return fmt.Errorf("failed to create demo listing: %w", err)
	}

	amount, err := decimal.NewFromString(config.GetEnv("SEED_DEMO_BALANCE", "100.00"))
	if err != nil {
		return fmt.Errorf("invalid SEED_DEMO_BALANCE: %w", err)
	}

	store := repositories.NewStore(db, 0)
	svc := wallet.NewService(store.Wallets, store, wallet.WalletConfig{}, wallet.Dependencies{Logger: log})
	reference := fmt.Sprintf("seed-%d", owner)
	if _, err := svc.Deposit(ctx, owner, amount, reference); err != nil && !errors.Is(err, wallet.ErrDuplicateDeposit) {
		return err
	}

	log.Info("demo data seeded", slog.Uint64("owner_id", uint64(owner)), slog.Uint64("listing_id", uint64(listing.ID)))
	return nil
}
