package util

import "time"

// DateOnly truncates t to midnight of its calendar day in loc
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// CalculateActualDate returns the actual date for a target day in a given month,
// handling months with fewer days (e.g., day 31 in February returns Feb 28/29)
func CalculateActualDate(year int, month time.Month, targetDay int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	// Get last day of month by going to day 0 of next month
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()

	actualDay := targetDay
	if actualDay > lastDay {
		actualDay = lastDay
	}

	return time.Date(year, month, actualDay, 0, 0, 0, 0, loc)
}

// AddMonthsClamped adds n calendar months to the date of t, keeping the
// day-of-month and clamping it to the end of shorter months (Jan 31 + 1 = Feb 28/29)
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	// Normalise through day 1 so AddDate never overflows into the following month
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	return CalculateActualDate(first.Year(), first.Month(), d, t.Location())
}

// DaysBetween returns the whole calendar days from `from` to `to` in loc.
// It is negative when `to` is before `from`.
func DaysBetween(from, to time.Time, loc *time.Location) int {
	a := DateOnly(from, loc)
	b := DateOnly(to, loc)
	// Compare as UTC civil dates so DST transitions do not produce 23h/25h days
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
