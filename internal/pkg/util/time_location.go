package util

import (
	"time"

	"github.com/pkg/errors"
)

const DateLayout = "2006-01-02"

// Loc is the accounting timezone. Periods, snapshots and day counts are all
// computed on UTC dates.
var Loc = time.UTC

// DateOf truncates t to midnight of its UTC day.
func DateOf(t time.Time) time.Time {
	t = t.In(Loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Loc)
}

func DateString(t time.Time) string {
	return t.In(Loc).Format(DateLayout)
}

// ParseDate accepts either a bare date or an RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(DateLayout, s, Loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse date %q", s)
	}
	return DateOf(t), nil
}

// WholeDays is floor((to - from) / 24h), negative when to is before from.
func WholeDays(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}
