package hotel

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = time.DateOnly

// ParseDate parses an ISO-8601 calendar date. An empty string yields the zero
// time and no error.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, ErrInvalidArgument)
	}

	return d, nil
}

func FormatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}

	return d.Format(DateLayout)
}

// Day drops the time-of-day part and normalizes to UTC.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}

	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether [aFrom, aTo) and [bFrom, bTo) share a night.
// Back-to-back stays do not overlap.
func Overlaps(aFrom, aTo, bFrom, bTo time.Time) bool {
	return aFrom.Before(bTo) && bFrom.Before(aTo)
}

// Nights counts whole days between arrival and departure, 1 when either is missing.
func Nights(arrival, departure time.Time) int {
	if arrival.IsZero() || departure.IsZero() {
		return 1
	}

	return int(Day(departure).Sub(Day(arrival)).Hours() / 24) //nolint:gomnd
}
