package analytics

import (
	"slices"
	"strings"

	"salesdash/internal/core"
)

// Locations lists the distinct location values available for cascading
// filters. States are narrowed by country and cities by country and state.
type Locations struct {
	Countries []string `json:"countries"`
	States    []string `json:"states"`
	Cities    []string `json:"cities"`
}

// LocationOptions collects the sorted distinct countries, states and cities.
func LocationOptions(records []core.Record, country, state string) Locations {
	countries := map[string]struct{}{}
	states := map[string]struct{}{}
	cities := map[string]struct{}{}
	for _, r := range records {
		addValue(countries, r.Country)
		if !matches(r.Country, country) {
			continue
		}
		addValue(states, r.State)
		if matches(r.State, state) {
			addValue(cities, r.City)
		}
	}
	return Locations{
		Countries: sortedKeys(countries),
		States:    sortedKeys(states),
		Cities:    sortedKeys(cities),
	}
}

func addValue(set map[string]struct{}, v string) {
	if v = strings.TrimSpace(v); v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Page returns the 1-based page of records of the given size and the total
// number of pages. Out-of-range pages are empty.
func Page(records []core.Record, page, size int) ([]core.Record, int) {
	if size <= 0 {
		return []core.Record{}, 0
	}
	pages := (len(records) + size - 1) / size
	if page < 1 || page > pages {
		return []core.Record{}, pages
	}
	start := (page - 1) * size
	end := min(start+size, len(records))
	return records[start:end:end], pages
}
