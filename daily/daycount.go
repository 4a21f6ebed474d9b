// Package daily decides which tasks a farm season shows as "to do" on a given
// day. It merges a care-plan template's day-ranged stages, the season's log
// entries and the hidden-task registry.
package daily

import "time"

// CurrentDay returns the 1-based day of the season that contains now, where
// the day of start is day 1. Both instants are reduced to their calendar date
// in loc. A start date after now is clamped to day 1 and reported through the
// second result so callers can flag the anomaly.
func CurrentDay(start, now time.Time, loc *time.Location) (day int, future bool) {
	diff := daysBetween(start, now, loc)
	if diff < 0 {
		return 1, true
	}
	return diff + 1, false
}

// daysBetween counts whole calendar days from a to b in loc.
func daysBetween(a, b time.Time, loc *time.Location) int {
	da, db := civil(a, loc), civil(b, loc)
	return int(db.Sub(da).Hours() / 24)
}

// civil maps t to midnight UTC of its calendar date in loc, which keeps day
// arithmetic free of DST shifts.
func civil(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayBounds returns [midnight, next midnight) of the calendar day of t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
