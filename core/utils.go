package core

import (
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02" // ISO calendar date
	MonthLayout = "2006-01"
)

var NowFunc = time.Now // mockable

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// FormatDate formats `t` as an ISO calendar date in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns today's ISO calendar date.
func Today() string {
	return FormatDate(NowFunc())
}

// MonthStart returns the first day of `t`'s year/month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthEnd returns the last day of `t`'s year/month.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}
