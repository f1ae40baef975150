package models

import "time"

// SubscriptionGrant records one funded promotion interval of a package on a
// listing. Rows are inserted once and never updated.
type SubscriptionGrant struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ListingID uint      `gorm:"index;not null" json:"listing_id"`
	PackageID uint      `gorm:"index;not null" json:"package_id"`
	StartsAt  time.Time `gorm:"not null" json:"starts_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (SubscriptionGrant) TableName() string {
	return "vip_subscription_grants"
}
