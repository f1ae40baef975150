package vip

import (
	"time"

	"vipwallet/internal/models"
)

const secondsPerDay = 24 * 60 * 60

// Window is the promotion interval funded by one purchase.
type Window struct {
	StartsAt  time.Time
	ExpiresAt time.Time
	Permanent bool
}

// ComputeWindow stacks a new purchase onto the listing's current expiration.
// A promotion that has not expired yet is extended from its end; otherwise the
// window starts at now. A nil duration, or a listing that is already promoted
// permanently, yields models.PermanentExpiry.
func ComputeWindow(now time.Time, current *time.Time, durationDays *int) Window {
	start := now
	if current != nil && current.After(now) {
		start = *current
	}

	if durationDays == nil || !start.Before(models.PermanentExpiry) {
		return Window{StartsAt: start, ExpiresAt: models.PermanentExpiry, Permanent: true}
	}

	// Calendar days on the UTC clock; a duration reaching the sentinel is permanent.
	start = start.UTC()
	daysLeft := (models.PermanentExpiry.Unix() - start.Unix()) / secondsPerDay
	if int64(*durationDays) > daysLeft {
		return Window{StartsAt: start, ExpiresAt: models.PermanentExpiry, Permanent: true}
	}

	expires := start.AddDate(0, 0, *durationDays)
	if !expires.Before(models.PermanentExpiry) {
		expires = models.PermanentExpiry
	}
	return Window{
		StartsAt:  start,
		ExpiresAt: expires,
		Permanent: expires.Equal(models.PermanentExpiry),
	}
}
