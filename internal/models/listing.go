package models

import "time"

// Listing statuses
const (
	ListingStatusDraft     = "draft"
	ListingStatusPending   = "pending"
	ListingStatusPublished = "published"
	ListingStatusRejected  = "rejected"
)

// PermanentExpiry is stored as the VIP expiration of listings promoted by a
// package without a duration.
var PermanentExpiry = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Listing is owned by the listing service. Only the promotion columns are
// written from here.
type Listing struct {
	ID                   uint       `gorm:"primarykey" json:"id"`
	OwnerID              uint       `gorm:"index;not null" json:"owner_id"`
	Title                string     `json:"title"`
	Status               string     `gorm:"size:32;not null;default:'draft'" json:"status"`
	IsPromoted           bool       `gorm:"not null;default:false" json:"is_promoted"`
	PromotionTier        string     `gorm:"size:32" json:"promotion_tier"`
	CurrentVIPExpiration *time.Time `gorm:"column:current_vip_expiration" json:"current_vip_expiration"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// IsPermanentlyPromoted reports whether the listing carries an unbounded promotion.
func (l *Listing) IsPermanentlyPromoted() bool {
	return l.CurrentVIPExpiration != nil && !l.CurrentVIPExpiration.Before(PermanentExpiry)
}
