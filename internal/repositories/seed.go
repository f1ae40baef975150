package repositories

import (
	"context"
	"fmt"

	"vipwallet/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func intPtr(n int) *int { return &n }

// DefaultCatalog is the package set installed by the seeder.
var DefaultCatalog = []models.VIPPackage{
	{Code: "silver_7", Name: "Silver 7 days", Price: decimal.RequireFromString("4.99"), DurationDays: intPtr(7), IsActive: true},
	{Code: "gold_30", Name: "Gold 30 days", Price: decimal.RequireFromString("19.99"), DurationDays: intPtr(30), IsActive: true},
	{Code: "diamond_30", Name: "Diamond 30 days", Price: decimal.RequireFromString("39.99"), DurationDays: intPtr(30), IsActive: true},
	{Code: "diamond_permanent", Name: "Diamond permanent", Price: decimal.RequireFromString("499.00"), IsActive: true},
}

// SeedCatalog inserts the given packages, skipping codes that already exist.
// It returns the number of rows inserted.
func SeedCatalog(ctx context.Context, db *gorm.DB, packages []models.VIPPackage) (int64, error) {
	if len(packages) == 0 {
		return 0, nil
	}

	rows := make([]models.VIPPackage, len(packages))
	copy(rows, packages)

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).
		Create(&rows)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed catalog: %w", result.Error)
	}
	return result.RowsAffected, nil
}
