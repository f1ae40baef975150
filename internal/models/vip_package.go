package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VIPPackage is a catalog entry. The catalog is administered elsewhere; this
// service only reads it.
type VIPPackage struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	Code         string          `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Name         string          `gorm:"not null" json:"name"`
	Price        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"price"`
	DurationDays *int            `json:"duration_days"` // nil means permanent
	IsActive     bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (VIPPackage) TableName() string {
	return "vip_packages"
}

// IsPermanent reports whether the package grants an unbounded promotion.
func (p *VIPPackage) IsPermanent() bool {
	return p.DurationDays == nil
}
