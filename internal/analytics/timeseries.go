package analytics

import (
	"slices"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

// Bucket is one period of a time series.
type Bucket struct {
	Date        core.Date       `json:"date"`
	Count       int             `json:"count"`
	DaysToShip  core.NullFloat  `json:"days_to_ship"`
	Discount    core.NullFloat  `json:"discount"`
	Profit      decimal.Decimal `json:"profit"`
	Quantity    int             `json:"quantity"`
	Sales       decimal.Decimal `json:"sales"`
	Returned    int             `json:"returned"`
	ProfitRatio core.NullFloat  `json:"profit_ratio"`
}

// Value returns the bucket's value for m as a float.
func (b Bucket) Value(m core.Metric) core.NullFloat {
	switch m {
	case core.MetricSales:
		return core.Float(b.Sales.InexactFloat64())
	case core.MetricProfit:
		return core.Float(b.Profit.InexactFloat64())
	case core.MetricDiscount:
		return b.Discount
	case core.MetricQuantity:
		return core.Float(float64(b.Quantity))
	case core.MetricDaysToShip:
		return b.DaysToShip
	case core.MetricReturns:
		return core.Float(float64(b.Returned))
	case core.MetricProfitRatio:
		return b.ProfitRatio
	case core.MetricCount:
		return core.Float(float64(b.Count))
	}
	return core.NullFloat{}
}

type periodKey struct {
	year   int
	period int
}

// AggregateByGranularity groups records into calendar periods and computes
// per-period metrics. Buckets are ordered by date ascending. Weekly buckets
// are keyed by ISO year and week and dated on that week's Monday; other
// buckets carry the earliest order date of their period.
//
// An unrecognised granularity yields one bucket per record, in input order.
func AggregateByGranularity(records []core.Record, g core.Granularity) []Bucket {
	if !g.IsValid() {
		out := make([]Bucket, 0, len(records))
		for _, r := range records {
			acc := newAccumulator()
			acc.add(r)
			out = append(out, acc.bucket(r.OrderDate))
		}
		return out
	}

	groups := make(map[periodKey]*accumulator)
	for _, r := range records {
		k := keyOf(r.OrderDate, g)
		acc, ok := groups[k]
		if !ok {
			acc = newAccumulator()
			groups[k] = acc
		}
		acc.add(r)
	}

	out := make([]Bucket, 0, len(groups))
	for _, acc := range groups {
		date := acc.minDate
		if g == core.Week {
			date = mondayOf(date)
		}
		out = append(out, acc.bucket(date))
	}
	slices.SortFunc(out, func(a, b Bucket) int { return a.Date.Compare(b.Date.Time) })
	return out
}

func keyOf(d core.Date, g core.Granularity) periodKey {
	switch g {
	case core.Week:
		y, w := d.ISOWeek()
		return periodKey{y, w}
	case core.Month:
		return periodKey{d.Year(), d.Month()}
	case core.Quarter:
		return periodKey{d.Year(), (d.Month() + 2) / 3}
	default:
		return periodKey{year: d.Year()}
	}
}

func mondayOf(d core.Date) core.Date {
	if d.IsEmpty() {
		return d
	}
	offset := (int(d.Weekday()) + 6) % 7
	return core.DateOf(d.AddDate(0, 0, -offset))
}

func (a *accumulator) bucket(date core.Date) Bucket {
	return Bucket{
		Date:        date,
		Count:       a.count,
		DaysToShip:  a.meanDaysToShip(),
		Discount:    a.meanDiscount(),
		Profit:      a.profit,
		Quantity:    a.quantity,
		Sales:       a.sales,
		Returned:    a.returns(false),
		ProfitRatio: a.profitRatio(),
	}
}

// Point is one plotted value of a series.
type Point struct {
	Date  core.Date      `json:"date"`
	Value core.NullFloat `json:"value"`
}

// Series extracts one metric from buckets, ready for plotting.
func Series(buckets []Bucket, m core.Metric) []Point {
	out := make([]Point, len(buckets))
	for i, b := range buckets {
		out[i] = Point{Date: b.Date, Value: b.Value(m)}
	}
	return out
}
