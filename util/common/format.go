package common

import (
	"time"
)

// Elapsed units, also used as translation keys.
const (
	ElapsedNow     = "now"
	ElapsedMinutes = "minutes"
	ElapsedHours   = "hours"
	ElapsedDays    = "days"
	ElapsedMonths  = "months"
	ElapsedYears   = "years"
)

// FormatElapsed buckets the time since t into a coarse unit and count.
// Days are compared before the remaining seconds of the partial day, so
// one day and two hours reads as one day.
func FormatElapsed(now, t time.Time) (unit string, count int) {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	seconds := int((d % (24 * time.Hour)) / time.Second)

	switch {
	case days > 365:
		return ElapsedYears, days / 365
	case days > 30:
		return ElapsedMonths, days / 30
	case days > 0:
		return ElapsedDays, days
	case seconds > 3600:
		return ElapsedHours, seconds / 3600
	case seconds > 60:
		return ElapsedMinutes, seconds / 60
	default:
		return ElapsedNow, 0
	}
}
