// Package aggregate reduces merged report collections into the counts
// the dashboard and charts consume: by category, by calendar date, and
// by hour of day, optionally narrowed by a time window and by the
// current principal's role.
//
// All date/hour truncation is done in UTC, uniformly. The screens this
// replaces mixed local-time and UTC truncation between charts; one
// explicit policy keeps every view in agreement.
package aggregate

import (
	"fmt"
	"time"
)

// Period names a relative time window anchored at "now".
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParsePeriod validates a period string from a query parameter.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// StartOf returns the inclusive lower bound for the period, in UTC.
// PeriodAll returns the zero time, meaning no bound. The week starts
// on Sunday, matching the console's original behavior.
func StartOf(p Period, now time.Time) time.Time {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch p {
	case PeriodToday:
		return midnight
	case PeriodWeek:
		return midnight.AddDate(0, 0, -int(now.Weekday()))
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case PeriodYear:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

// InWindow reports whether a report filed at t satisfies the bound.
// A zero bound admits everything.
func InWindow(t, bound time.Time) bool {
	if bound.IsZero() {
		return true
	}
	return !t.Before(bound)
}
