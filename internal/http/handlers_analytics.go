package http

import (
	"net/http"
	"strings"

	"salesdash/internal/analytics"
	"salesdash/internal/core"
)

const (
	defaultGranularity = core.Month
	defaultXMetric     = core.MetricSales
	defaultYMetric     = core.MetricProfit
	defaultBreakdown   = core.DimSubCategory
)

type summaryResponse struct {
	Year        int                         `json:"year"`
	Months      []analytics.MonthSummary    `json:"months"`
	Totals      analytics.Totals            `json:"totals"`
	TopProducts []analytics.ProductQuantity `json:"top_products"`
}

// handleSummary serves the yearly overview: per-month figures, year totals
// and best sellers.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, "summary", func(ds *core.Dataset) (any, error) {
		values := r.URL.Query()
		year, _, err := ParsePeriod(values, ds)
		if err != nil {
			return nil, err
		}
		top, err := parsePositive(values, "top", analytics.DefaultTopProducts)
		if err != nil {
			return nil, err
		}

		inYear := make([]core.Record, 0, len(ds.Orders))
		for _, rec := range ds.Orders {
			if !rec.OrderDate.IsEmpty() && rec.OrderDate.Year() == year {
				inYear = append(inYear, rec)
			}
		}
		return summaryResponse{
			Year:        year,
			Months:      analytics.MonthlySummary(inYear, year),
			Totals:      analytics.YearTotals(inYear, year),
			TopProducts: analytics.TopProducts(inYear, top),
		}, nil
	})
}

// handleDailySummary compares a month day by day with the month before.
func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, "daily", func(ds *core.Dataset) (any, error) {
		year, month, err := ParsePeriod(r.URL.Query(), ds)
		if err != nil {
			return nil, err
		}
		return analytics.CompareMonths(ds.Orders, year, month), nil
	})
}

type timelineResponse struct {
	Granularity core.Granularity   `json:"granularity"`
	Start       core.Date          `json:"start"`
	End         core.Date          `json:"end"`
	Buckets     []analytics.Bucket `json:"buckets"`
	Metric      core.Metric        `json:"metric,omitempty"`
	Series      []analytics.Point  `json:"series,omitempty"`
}

// handleTimeline regroups the filtered records into time buckets. An
// unknown granularity yields one bucket per record. With metric set, the
// response also carries that metric as a ready-to-plot series.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, "timeline", func(ds *core.Dataset) (any, error) {
		values := r.URL.Query()
		q, err := ParseQuery(values, ds)
		if err != nil {
			return nil, err
		}
		g := defaultGranularity
		if v := values.Get("granularity"); strings.TrimSpace(v) != "" {
			g = core.ParseGranularity(v)
		}

		buckets := analytics.AggregateByGranularity(analytics.Filter(ds.Orders, q), g)
		resp := timelineResponse{Granularity: g, Start: q.Start, End: q.End, Buckets: buckets}
		if m := core.ParseMetric(values.Get("metric")); m.IsValid() {
			resp.Metric = m
			resp.Series = analytics.Series(buckets, m)
		}
		return resp, nil
	})
}

// handleBubble groups the filtered records by a dimension and returns two
// metrics per group plus marker size hints. Unknown dimension or metric
// names give an empty table.
func (s *Server) handleBubble(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, "bubble", func(ds *core.Dataset) (any, error) {
		values := r.URL.Query()
		q, err := ParseQuery(values, ds)
		if err != nil {
			return nil, err
		}
		x, y, dim := defaultXMetric, defaultYMetric, defaultBreakdown
		if v := values.Get("x"); v != "" {
			x = core.ParseMetric(v)
		}
		if v := values.Get("y"); v != "" {
			y = core.ParseMetric(v)
		}
		if v := values.Get("breakdown"); v != "" {
			dim = core.ParseDimension(v)
		}
		return analytics.AggregateByDimension(analytics.Filter(ds.Orders, q), dim, x, y), nil
	})
}

type dimensionOption struct {
	Key   core.Dimension `json:"key"`
	Label string         `json:"label"`
}

type optionsResponse struct {
	analytics.Locations
	Granularities []core.Granularity `json:"granularities"`
	Metrics       []core.Metric      `json:"metrics"`
	Dimensions    []dimensionOption  `json:"dimensions"`
	Start         core.Date          `json:"start"`
	End           core.Date          `json:"end"`
	Years         []int              `json:"years"`
}

// handleOptions lists dropdown values. States and cities narrow with the
// country and state parameters.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, "options", func(ds *core.Dataset) (any, error) {
		values := r.URL.Query()
		first, last, _ := ds.Bounds()

		resp := optionsResponse{
			Locations:     analytics.LocationOptions(ds.Orders, sanitizeInput(values.Get("country")), sanitizeInput(values.Get("state"))),
			Granularities: core.Granularities(),
			Metrics:       core.Metrics(),
			Start:         first,
			End:           last,
			Years:         []int{},
		}
		for _, d := range core.Dimensions() {
			resp.Dimensions = append(resp.Dimensions, dimensionOption{Key: d, Label: d.Label()})
		}
		if !first.IsEmpty() {
			for y := first.Year(); y <= last.Year(); y++ {
				resp.Years = append(resp.Years, y)
			}
		}
		return resp, nil
	})
}
