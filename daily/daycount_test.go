package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ict = time.FixedZone("ICT", 7*3600)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, ict)
}

func TestCurrentDay(t *testing.T) {
	start := date(2025, time.November, 1)

	tests := []struct {
		name   string
		now    time.Time
		day    int
		future bool
	}{
		{"start date is day one", date(2025, time.November, 1).Add(9 * time.Hour), 1, false},
		{"tenth day", date(2025, time.November, 10), 10, false},
		{"last second of first day", date(2025, time.November, 2).Add(-time.Second), 1, false},
		{"month boundary", date(2025, time.December, 1), 31, false},
		{"future start clamps", date(2025, time.October, 20), 1, true},
		{"day before start clamps", date(2025, time.October, 31).Add(23 * time.Hour), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, future := CurrentDay(start, tt.now, ict)
			assert.Equal(t, tt.day, day)
			assert.Equal(t, tt.future, future)
		})
	}
}

func TestCurrentDay_UsesReferenceZone(t *testing.T) {
	// 2025-11-09 20:00 UTC is already 2025-11-10 in ICT.
	start := time.Date(2025, time.October, 31, 17, 0, 0, 0, time.UTC) // 2025-11-01 00:00 ICT
	now := time.Date(2025, time.November, 9, 20, 0, 0, 0, time.UTC)

	day, _ := CurrentDay(start, now, ict)
	assert.Equal(t, 10, day)

	day, _ = CurrentDay(start, now, time.UTC)
	assert.Equal(t, 10, day, "start is 2025-10-31 in UTC")
}

func TestCurrentDay_AcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	start := time.Date(2025, time.March, 8, 0, 0, 0, 0, ny)
	now := time.Date(2025, time.March, 10, 0, 30, 0, 0, ny) // a 23h day lies in between

	day, future := CurrentDay(start, now, ny)
	assert.Equal(t, 3, day)
	assert.False(t, future)
}

func TestDayBounds(t *testing.T) {
	now := time.Date(2025, time.November, 12, 15, 4, 5, 0, ict)
	from, to := DayBounds(now, ict)
	assert.True(t, from.Equal(date(2025, time.November, 12)))
	assert.True(t, to.Equal(date(2025, time.November, 13)))
	assert.False(t, now.Before(from))
	assert.True(t, now.Before(to))
}
