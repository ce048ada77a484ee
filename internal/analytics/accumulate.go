package analytics

import (
	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

var hundred = decimal.NewFromInt(100)

// accumulator folds records into the sums and means shared by every
// grouping.
type accumulator struct {
	count       int
	sales       decimal.Decimal
	profit      decimal.Decimal
	quantity    int
	discountSum decimal.Decimal
	discountN   int
	daysSum     int
	daysN       int
	returned    int
	// order ids of returned records, for order-level return counts
	returnedOrders map[string]struct{}
	minDate        core.Date
}

func newAccumulator() *accumulator {
	return &accumulator{returnedOrders: map[string]struct{}{}}
}

func (a *accumulator) add(r core.Record) {
	if a.count == 0 || r.OrderDate.Before(a.minDate.Time) {
		a.minDate = r.OrderDate
	}
	a.count++
	a.sales = a.sales.Add(r.Sales)
	a.profit = a.profit.Add(r.Profit)
	a.quantity += r.Quantity
	if r.Discount.Valid {
		a.discountSum = a.discountSum.Add(r.Discount.Decimal)
		a.discountN++
	}
	if days, ok := r.DaysToShip(); ok {
		a.daysSum += days
		a.daysN++
	}
	if r.Returned {
		a.returned++
		a.returnedOrders[r.OrderID] = struct{}{}
	}
}

func (a *accumulator) meanDiscount() core.NullFloat {
	if a.discountN == 0 {
		return core.NullFloat{}
	}
	return core.Float(a.discountSum.Div(decimal.NewFromInt(int64(a.discountN))).InexactFloat64())
}

func (a *accumulator) meanDaysToShip() core.NullFloat {
	if a.daysN == 0 {
		return core.NullFloat{}
	}
	return core.Float(float64(a.daysSum) / float64(a.daysN))
}

// profitRatio is profit/sales, undefined when sales is zero.
func (a *accumulator) profitRatio() core.NullFloat {
	return ratio(a.profit, a.sales)
}

// returns counts returned line items, or distinct returned orders when
// byOrder is set.
func (a *accumulator) returns(byOrder bool) int {
	if byOrder {
		return len(a.returnedOrders)
	}
	return a.returned
}

func ratio(num, den decimal.Decimal) core.NullFloat {
	if den.IsZero() {
		return core.NullFloat{}
	}
	return core.Float(num.Div(den).InexactFloat64())
}

func scale(v core.NullFloat, by float64) core.NullFloat {
	if !v.Valid {
		return v
	}
	return core.Float(v.Float64 * by)
}
