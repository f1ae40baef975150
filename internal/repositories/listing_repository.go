package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vipwallet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrListingNotFound = errors.New("listing not found")

// ListingRepository reads listing ownership and writes the promotion columns
// of listings that belong to the listing service.
type ListingRepository interface {
	GetListingForOwnershipCheck(ctx context.Context, listingID uint) (*models.Listing, error)
	GetForUpdate(ctx context.Context, listingID uint) (*models.Listing, error)
	UpdateListingPromotionState(ctx context.Context, listingID uint, isPromoted bool, tier string, currentVIPExpiration *time.Time) error
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) GetListingForOwnershipCheck(ctx context.Context, listingID uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Select("id", "owner_id", "status", "is_promoted", "promotion_tier", "current_vip_expiration").
		First(&listing, listingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

// GetForUpdate locks the listing row so concurrent purchases on the same
// listing observe each other's expiration.
func (r *listingRepository) GetForUpdate(ctx context.Context, listingID uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&listing, listingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to lock listing: %w", err)
	}
	return &listing, nil
}

func (r *listingRepository) UpdateListingPromotionState(ctx context.Context, listingID uint, isPromoted bool, tier string, currentVIPExpiration *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", listingID).
		Updates(map[string]interface{}{
			"is_promoted":            isPromoted,
			"promotion_tier":         tier,
			"current_vip_expiration": currentVIPExpiration,
			"updated_at":             time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update listing promotion: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}
