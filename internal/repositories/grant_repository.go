package repositories

import (
	"context"
	"errors"
	"fmt"

	"vipwallet/internal/models"

	"gorm.io/gorm"
)

var ErrInvalidGrant = errors.New("invalid subscription grant")

// GrantRepository appends subscription grants; grants are never updated.
type GrantRepository interface {
	Create(ctx context.Context, grant *models.SubscriptionGrant) error
	ListByListing(ctx context.Context, listingID uint) ([]models.SubscriptionGrant, error)
}

type grantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) GrantRepository {
	return &grantRepository{db: db}
}

func (r *grantRepository) Create(ctx context.Context, grant *models.SubscriptionGrant) error {
	if grant == nil || grant.ListingID == 0 || grant.PackageID == 0 || grant.ExpiresAt.Before(grant.StartsAt) {
		return ErrInvalidGrant
	}
	if err := r.db.WithContext(ctx).Create(grant).Error; err != nil {
		return fmt.Errorf("failed to create grant: %w", err)
	}
	return nil
}

func (r *grantRepository) ListByListing(ctx context.Context, listingID uint) ([]models.SubscriptionGrant, error) {
	var grants []models.SubscriptionGrant
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("id ASC").
		Find(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	return grants, nil
}
