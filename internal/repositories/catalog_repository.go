package repositories

import (
	"context"
	"errors"
	"fmt"

	"vipwallet/internal/models"

	"gorm.io/gorm"
)

var ErrPackageNotFound = errors.New("package not found")

// CatalogRepository is a read-only view of the VIP package catalog.
type CatalogRepository interface {
	GetActivePackage(ctx context.Context, packageID uint) (*models.VIPPackage, error)
	ListActivePackages(ctx context.Context) ([]models.VIPPackage, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// GetActivePackage returns ErrPackageNotFound for missing and inactive packages alike.
func (r *catalogRepository) GetActivePackage(ctx context.Context, packageID uint) (*models.VIPPackage, error) {
	var pkg models.VIPPackage
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", packageID, true).
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return &pkg, nil
}

func (r *catalogRepository) ListActivePackages(ctx context.Context) ([]models.VIPPackage, error) {
	var packages []models.VIPPackage
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price ASC").
		Find(&packages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	return packages, nil
}
