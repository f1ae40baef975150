package vip

import (
	"math"
	"testing"
	"time"

	"vipwallet/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestComputeWindow(t *testing.T) {
	now := testNow
	past := now.Add(-48 * time.Hour)
	future := now.Add(10 * 24 * time.Hour)
	permanent := models.PermanentExpiry

	tests := []struct {
		name      string
		current   *time.Time
		duration  *int
		wantStart time.Time
		wantEnd   time.Time
		permanent bool
	}{
		{
			name:      "not promoted starts now",
			duration:  days(30),
			wantStart: now,
			wantEnd:   now.Add(30 * 24 * time.Hour),
		},
		{
			name:      "expired promotion starts now",
			current:   &past,
			duration:  days(30),
			wantStart: now,
			wantEnd:   now.Add(30 * 24 * time.Hour),
		},
		{
			name:      "active promotion is extended",
			current:   &future,
			duration:  days(30),
			wantStart: future,
			wantEnd:   now.Add(40 * 24 * time.Hour),
		},
		{
			name:      "package without duration is permanent",
			current:   &future,
			wantStart: future,
			wantEnd:   models.PermanentExpiry,
			permanent: true,
		},
		{
			name:      "duration beyond the sentinel is permanent",
			current:   &future,
			duration:  days(200000),
			wantStart: future,
			wantEnd:   models.PermanentExpiry,
			permanent: true,
		},
		{
			name:      "largest int32 duration is permanent",
			duration:  days(math.MaxInt32),
			wantStart: now,
			wantEnd:   models.PermanentExpiry,
			permanent: true,
		},
		{
			name:      "long finite duration",
			duration:  days(150000),
			wantStart: now,
			wantEnd:   now.AddDate(0, 0, 150000),
		},
		{
			name:      "permanent listing stays permanent",
			current:   &permanent,
			duration:  days(7),
			wantStart: models.PermanentExpiry,
			wantEnd:   models.PermanentExpiry,
			permanent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWindow(now, tt.current, tt.duration)
			assert.True(t, tt.wantStart.Equal(w.StartsAt), "start %s", w.StartsAt)
			assert.True(t, tt.wantEnd.Equal(w.ExpiresAt), "end %s", w.ExpiresAt)
			assert.Equal(t, tt.permanent, w.Permanent)
			assert.False(t, w.ExpiresAt.Before(w.StartsAt))
		})
	}
}

func TestComputeWindow_NeverShortens(t *testing.T) {
	current := testNow.Add(90 * 24 * time.Hour)
	for _, d := range []int{1, 7, 30, 365, 106752, 200000, math.MaxInt32} {
		w := ComputeWindow(testNow, &current, days(d))
		assert.True(t, w.ExpiresAt.After(current), "duration %d gave %s", d, w.ExpiresAt)
		assert.False(t, w.ExpiresAt.After(models.PermanentExpiry))
	}
}
