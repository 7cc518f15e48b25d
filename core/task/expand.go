package task

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/attendix/attendix/core"
)

// Expand returns the occurrence dates of r in ascending order, without duplicates.
//
// Monthly rules clamp MonthDay to the last day of shorter months, so every month touched
// by [Anchor, End] yields exactly one date as long as that date lies inside the range.
func Expand(r Rule) []civil.Date {
	switch r.Type {
	case RecurrenceDaily:
		return walkDays(r.Anchor, r.End, func(civil.Date) bool { return true })
	case RecurrenceWeekly:
		wanted := make(map[time.Weekday]bool, len(r.Weekdays))
		for _, sym := range r.Weekdays {
			if wd, ok := weekdaySymbols[sym]; ok {
				wanted[wd] = true
			}
		}
		return walkDays(r.Anchor, r.End, func(d civil.Date) bool {
			return wanted[d.In(time.UTC).Weekday()]
		})
	case RecurrenceMonthly:
		return expandMonthly(r)
	default:
		return []civil.Date{r.Anchor}
	}
}

func walkDays(from, to civil.Date, keep func(civil.Date) bool) []civil.Date {
	var dates []civil.Date
	for d := from; !d.After(to); d = d.AddDays(1) {
		if keep(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

func expandMonthly(r Rule) []civil.Date {
	var dates []civil.Date
	for cursor := core.FirstOfMonth(r.Anchor); !cursor.After(r.End); cursor = nextMonth(cursor) {
		day := r.MonthDay
		if last := core.DaysIn(cursor.Year, cursor.Month); day > last {
			day = last
		}
		candidate := civil.Date{Year: cursor.Year, Month: cursor.Month, Day: day}
		if !candidate.Before(r.Anchor) && !candidate.After(r.End) {
			dates = append(dates, candidate)
		}
	}
	return dates
}

func nextMonth(d civil.Date) civil.Date {
	if d.Month == time.December {
		return civil.Date{Year: d.Year + 1, Month: time.January, Day: 1}
	}
	return civil.Date{Year: d.Year, Month: d.Month + 1, Day: 1}
}
