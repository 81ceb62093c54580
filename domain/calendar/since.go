package calendar

import (
	"fmt"
	"time"
)

// TimeSince renders the gap between t and now as "3 days ago", "1 hour ago"
// and so on, using the largest unit that is at least one. It returns
// "just now" when the gap is under a second or t is in the future.
func TimeSince(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < time.Second {
		return "just now"
	}

	days := int(diff / (24 * time.Hour))
	seconds := int((diff % (24 * time.Hour)) / time.Second)

	periods := []struct {
		n                int
		singular, plural string
	}{
		{days / 365, "year", "years"},
		{days / 30, "month", "months"},
		{days / 7, "week", "weeks"},
		{days, "day", "days"},
		{seconds / 3600, "hour", "hours"},
		{seconds / 60, "minute", "minutes"},
		{seconds, "second", "seconds"},
	}
	for _, p := range periods {
		if p.n == 0 {
			continue
		}
		unit := p.plural
		if p.n == 1 {
			unit = p.singular
		}
		return fmt.Sprintf("%d %s ago", p.n, unit)
	}
	return "just now"
}
