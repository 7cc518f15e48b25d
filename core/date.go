package core

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pkg/errors"
)

var NowFunc = time.Now // mockable

// ParseDate parses a calendar date written as YYYY-MM-DD (month and day may be unpadded),
// optionally followed by a time part: an ISO-8601 timestamp is truncated to its date portion.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse("2006-1-2", s)
	if err != nil {
		return civil.Date{}, errors.Wrapf(err, "parsing date %q", s)
	}
	return civil.DateOf(t), nil
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) civil.Date {
	return civil.DateOf(NowFunc().In(loc))
}

// DaysIn returns the number of days of the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstOfMonth returns the first day of d's month.
func FirstOfMonth(d civil.Date) civil.Date {
	return civil.Date{Year: d.Year, Month: d.Month, Day: 1}
}

// FormatDMY formats d as DD-MM-YYYY.
func FormatDMY(d civil.Date) string {
	return d.In(time.UTC).Format("02-01-2006")
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From civil.Date
	To   civil.Date
}

// Bounds returns the instants delimiting the range in loc: [From 00:00, To+1 00:00).
func (r DateRange) Bounds(loc *time.Location) (time.Time, time.Time) {
	return r.From.In(loc), r.To.AddDays(1).In(loc)
}

// Contains reports whether d lies in the range.
func (r DateRange) Contains(d civil.Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}
