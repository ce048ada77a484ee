// Package analytics is the aggregation engine behind every dashboard page.
//
// All functions are pure: they read the records they are given, never
// mutate them, and never return errors. Malformed input degrades to an
// empty or pass-through result so a chart can always be drawn.
package analytics

import (
	"strings"

	"salesdash/internal/core"
)

// Query selects a subset of records. Empty fields do not constrain.
type Query struct {
	Start   core.Date
	End     core.Date
	Country string
	State   string
	City    string
}

// FilterByDate returns the records whose order date falls within
// [start, end], both ends inclusive, compared by calendar date. Input order
// is preserved. A range with start after end matches nothing.
func FilterByDate(records []core.Record, start, end core.Date) []core.Record {
	start, end = core.DateOf(start.Time), core.DateOf(end.Time)
	out := make([]core.Record, 0)
	if start.After(end.Time) {
		return out
	}
	for _, r := range records {
		if inRange(r.OrderDate, start, end) {
			out = append(out, r)
		}
	}
	return out
}

func inRange(d, start, end core.Date) bool {
	d = core.DateOf(d.Time)
	if !start.IsEmpty() && d.Before(start.Time) {
		return false
	}
	if !end.IsEmpty() && d.After(end.Time) {
		return false
	}
	return true
}

// FilterByLocation keeps records matching every non-empty location value.
// Matching is case-insensitive.
func FilterByLocation(records []core.Record, country, state, city string) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if matches(r.Country, country) && matches(r.State, state) && matches(r.City, city) {
			out = append(out, r)
		}
	}
	return out
}

func matches(value, want string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(strings.TrimSpace(value), want)
}

// Filter applies q. A missing start or end leaves that side of the range
// open; when both are set the FilterByDate rules apply.
func Filter(records []core.Record, q Query) []core.Record {
	if !q.Start.IsEmpty() && !q.End.IsEmpty() {
		records = FilterByDate(records, q.Start, q.End)
	} else if !q.Start.IsEmpty() || !q.End.IsEmpty() {
		start, end := core.DateOf(q.Start.Time), core.DateOf(q.End.Time)
		out := make([]core.Record, 0, len(records))
		for _, r := range records {
			if inRange(r.OrderDate, start, end) {
				out = append(out, r)
			}
		}
		records = out
	}
	return FilterByLocation(records, q.Country, q.State, q.City)
}
