// Package calendar builds rows for the date dimension table.
package calendar

import (
	"fmt"
	"time"

	"agroetl/internal/normalize"
	"agroetl/internal/schema"
)

// MaxDays bounds a single Build call.
const MaxDays = 366 * 200

// Day is one row of the calendar dimension.
type Day struct {
	DateKey       string
	Year          int
	Month         int
	Day           int
	Weekday       int // 0 = Monday
	IsBusinessDay bool
}

// Row returns the day aligned to the columns of t.
func (d Day) Row(t schema.FactTable) []any {
	row := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		switch c.Name {
		case "date_key":
			row[i] = d.DateKey
		case "year":
			row[i] = d.Year
		case "month":
			row[i] = d.Month
		case "day":
			row[i] = d.Day
		case "weekday":
			row[i] = d.Weekday
		case "is_business_day":
			row[i] = d.IsBusinessDay
		}
	}
	return row
}

// Build returns one Day per date in [from, to], both inclusive. Only the
// calendar date of each bound is used. Weekends are not business days;
// holidays are not modelled.
func Build(from, to time.Time) ([]Day, error) {
	start := dateOf(from)
	end := dateOf(to)
	if end.Before(start) {
		return nil, fmt.Errorf("calendar: range end %s before start %s",
			end.Format(normalize.DateLayout), start.Format(normalize.DateLayout))
	}
	n := int(end.Sub(start).Hours()/24) + 1
	if n > MaxDays {
		return nil, fmt.Errorf("calendar: range of %d days exceeds %d", n, MaxDays)
	}

	days := make([]Day, 0, n)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := (int(d.Weekday()) + 6) % 7
		days = append(days, Day{
			DateKey:       d.Format(normalize.DateLayout),
			Year:          d.Year(),
			Month:         int(d.Month()),
			Day:           d.Day(),
			Weekday:       wd,
			IsBusinessDay: wd < 5,
		})
	}
	return days, nil
}

// Span parses the smallest and largest date keys in keys. ok is false when
// keys holds no parseable date.
func Span(keys []string) (from, to time.Time, ok bool) {
	for _, k := range keys {
		d, err := time.Parse(normalize.DateLayout, k)
		if err != nil {
			continue
		}
		if !ok || d.Before(from) {
			from = d
		}
		if !ok || d.After(to) {
			to = d
		}
		ok = true
	}
	return from, to, ok
}

// Rows renders days for table t.
func Rows(t schema.FactTable, days []Day) [][]any {
	out := make([][]any, len(days))
	for i, d := range days {
		out[i] = d.Row(t)
	}
	return out
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
