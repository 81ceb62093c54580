package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate is returned when year/month/day overrides name a day that
// does not exist on the calendar (e.g. February 30).
var ErrInvalidDate = errors.New("invalid date")

// DateRange is a reporting period bounded by two timestamps.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range, both ends included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// DateParts selects a day. Zero fields fall back to the matching field of
// Date, and a zero Date falls back to the current moment.
type DateParts struct {
	Year  int
	Month time.Month
	Day   int
	Date  time.Time
}

// BusinessDaysBetween counts the Monday-Friday days walked from the earlier
// of a and b up to, but not including, the later one. Argument order does
// not matter.
func BusinessDaysBetween(a, b time.Time) int {
	oldest, youngest := a, b
	if b.Before(a) {
		oldest, youngest = b, a
	}

	days := 0
	for d := oldest; d.Before(youngest); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}

// MonthRange returns the first and last day of t's month. Start is at
// midnight; End keeps the same clock time as Start, it is not pushed to
// the end of the day.
func MonthRange(t time.Time) DateRange {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, t.Nanosecond(), t.Location())
	end := start.AddDate(0, 1, -1)
	return DateRange{Start: start, End: end}
}

// WeekRange returns the ISO week holding t: Monday 00:00:00 through
// Sunday 23:59:59.
func WeekRange(t time.Time) DateRange {
	// Weekday counts from Sunday; shift so Monday is 0.
	offset := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -offset)
	sunday := monday.AddDate(0, 0, 6)

	return DateRange{
		Start: atClock(monday, 0, 0, 0),
		End:   atClock(sunday, 23, 59, 59),
	}
}

// MakeStartDate resolves p and moves it to 00:00:00.
func MakeStartDate(p DateParts) (time.Time, error) {
	d, err := MungeDate(p)
	if err != nil {
		return time.Time{}, err
	}
	return atClock(d, 0, 0, 0), nil
}

// MakeEndDate resolves p and moves it to 23:59:59.
func MakeEndDate(p DateParts) (time.Time, error) {
	d, err := MungeDate(p)
	if err != nil {
		return time.Time{}, err
	}
	return atClock(d, 23, 59, 59), nil
}

// MungeDate takes p.Date, or now, and replaces its year, month and day with
// any of those supplied in p. Sub-second precision is dropped.
func MungeDate(p DateParts) (time.Time, error) {
	base := p.Date
	if base.IsZero() {
		base = time.Now()
	}

	year, month, day := base.Date()
	if p.Year != 0 {
		year = p.Year
	}
	if p.Month != 0 {
		month = p.Month
	}
	if p.Day != 0 {
		day = p.Day
	}

	d := time.Date(year, month, day, base.Hour(), base.Minute(), base.Second(), 0, base.Location())
	// time.Date normalizes out-of-range values; a changed field means the
	// requested day does not exist.
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}
	return d, nil
}

func atClock(t time.Time, hour, min, sec int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, min, sec, 0, t.Location())
}

// MonthPeriod covers month m of year y from midnight on the first through
// 23:59:59 on the last day. Zero y or m fall back to now's.
func MonthPeriod(y int, m time.Month, now time.Time) (DateRange, error) {
	start, err := MakeStartDate(DateParts{Year: y, Month: m, Day: 1, Date: now})
	if err != nil {
		return DateRange{}, err
	}
	r := MonthRange(start)
	end, err := MakeEndDate(DateParts{Date: r.End})
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: r.Start, End: end}, nil
}
