package analytics

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"

	"salesdash/internal/core"
)

// minBubbleSize is the smallest marker diameter, in pixels.
const minBubbleSize = 4

// maxBubbleSize is the diameter, in pixels, of the largest marker.
const maxBubbleSize = 15

// BubbleRow is one group of a dimension breakdown.
type BubbleRow struct {
	Label string
	X     core.NullFloat
	Y     core.NullFloat
	Count int
}

// BubbleTable is the result of AggregateByDimension. Columns name the x
// metric, the y metric, the per-group record count and the dimension.
type BubbleTable struct {
	Dimension core.Dimension
	XMetric   core.Metric
	YMetric   core.Metric
	Columns   []string
	Rows      []BubbleRow
}

// Scale holds marker sizing hints for a bubble chart.
type Scale struct {
	SizeRef float64 `json:"sizeref"`
	SizeMin float64 `json:"sizemin"`
}

// AggregateByDimension groups records by dim and computes the x and y
// metrics for each group. Rows are ordered by label ascending. An unknown
// dimension or metric yields a table with its columns and no rows.
func AggregateByDimension(records []core.Record, dim core.Dimension, x, y core.Metric) BubbleTable {
	table := BubbleTable{
		Dimension: dim,
		XMetric:   x,
		YMetric:   y,
		Columns:   []string{string(x), string(y), dim.Label() + " Count", dim.Label()},
		Rows:      []BubbleRow{},
	}
	if !dim.IsValid() || !x.IsValid() || !y.IsValid() {
		return table
	}

	groups := make(map[string]*accumulator)
	for _, r := range records {
		label, ok := dim.Value(r)
		if !ok {
			continue
		}
		acc, ok := groups[label]
		if !ok {
			acc = newAccumulator()
			groups[label] = acc
		}
		acc.add(r)
	}

	byOrder := !dim.IsLineItemLevel()
	for label, acc := range groups {
		table.Rows = append(table.Rows, BubbleRow{
			Label: label,
			X:     acc.metric(x, byOrder),
			Y:     acc.metric(y, byOrder),
			Count: acc.count,
		})
	}
	slices.SortFunc(table.Rows, func(a, b BubbleRow) int { return cmp.Compare(a.Label, b.Label) })
	return table
}

// metric computes m for a dimension group. Discount and profit ratio are
// expressed as percentages.
func (a *accumulator) metric(m core.Metric, returnsByOrder bool) core.NullFloat {
	switch m {
	case core.MetricSales:
		return core.Float(a.sales.InexactFloat64())
	case core.MetricProfit:
		return core.Float(a.profit.InexactFloat64())
	case core.MetricDiscount:
		return scale(a.meanDiscount(), 100)
	case core.MetricQuantity:
		return core.Float(float64(a.quantity))
	case core.MetricDaysToShip:
		return a.meanDaysToShip()
	case core.MetricReturns:
		return core.Float(float64(a.returns(returnsByOrder)))
	case core.MetricProfitRatio:
		return scale(a.profitRatio(), 100)
	case core.MetricCount:
		return core.Float(float64(a.count))
	}
	return core.NullFloat{}
}

// Scale sizes markers by group count so the largest group is drawn at
// maxBubbleSize pixels across.
func (t BubbleTable) Scale() Scale {
	largest := 0
	for _, r := range t.Rows {
		largest = max(largest, r.Count)
	}
	if largest == 0 {
		return Scale{SizeRef: 1, SizeMin: minBubbleSize}
	}
	return Scale{
		SizeRef: 2 * float64(largest) / math.Pow(maxBubbleSize, 2),
		SizeMin: minBubbleSize,
	}
}

// Records returns the table as one map per row keyed by column name. When
// the x and y metrics are the same the two share a key, so each map holds
// three entries for the four columns.
func (t BubbleTable) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	if len(t.Columns) != 4 {
		return out
	}
	for _, r := range t.Rows {
		out = append(out, map[string]any{
			t.Columns[0]: r.X,
			t.Columns[1]: r.Y,
			t.Columns[2]: r.Count,
			t.Columns[3]: r.Label,
		})
	}
	return out
}

func (t BubbleTable) MarshalJSON() ([]byte, error) {
	columns := t.Columns
	if columns == nil {
		columns = []string{}
	}
	return json.Marshal(struct {
		Dimension core.Dimension   `json:"dimension"`
		X         core.Metric      `json:"x"`
		Y         core.Metric      `json:"y"`
		Columns   []string         `json:"columns"`
		Data      []map[string]any `json:"data"`
		Scale     Scale            `json:"scale"`
	}{t.Dimension, t.XMetric, t.YMetric, columns, t.Records(), t.Scale()})
}
