package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

// DefaultTopProducts is the default length of the best-seller list.
const DefaultTopProducts = 10

// MonthSummary is the sales and profit of one calendar month.
type MonthSummary struct {
	Month       int             `json:"month"`
	Name        string          `json:"name"`
	Sales       decimal.Decimal `json:"sales"`
	Profit      decimal.Decimal `json:"profit"`
	ProfitRatio core.NullFloat  `json:"profit_ratio"`
}

// Totals are the headline figures of a period.
type Totals struct {
	Sales       decimal.Decimal `json:"sales"`
	Profit      decimal.Decimal `json:"profit"`
	ProfitRatio core.NullFloat  `json:"profit_ratio"`
	Orders      int             `json:"orders"`
	Quantity    int             `json:"quantity"`
}

// ProductQuantity is one entry of the best-seller list.
type ProductQuantity struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// DaySummary is the sales and profit of one calendar day.
type DaySummary struct {
	Date        core.Date       `json:"date"`
	Day         int             `json:"day"`
	Sales       decimal.Decimal `json:"sales"`
	Profit      decimal.Decimal `json:"profit"`
	ProfitRatio core.NullFloat  `json:"profit_ratio"`
	Count       int             `json:"count"`
}

// MonthComparison puts the daily figures of a month next to those of the
// month before it.
type MonthComparison struct {
	Year          int          `json:"year"`
	Month         int          `json:"month"`
	Current       []DaySummary `json:"current"`
	PreviousYear  int          `json:"previous_year"`
	PreviousMonth int          `json:"previous_month"`
	Previous      []DaySummary `json:"previous"`
}

// MonthlySummary returns per-month sales and profit for year, January to
// December. Months without records are omitted.
func MonthlySummary(records []core.Record, year int) []MonthSummary {
	var months [13]*accumulator
	for _, r := range records {
		if r.OrderDate.IsEmpty() || r.OrderDate.Year() != year {
			continue
		}
		m := r.OrderDate.Month()
		if months[m] == nil {
			months[m] = newAccumulator()
		}
		months[m].add(r)
	}
	out := make([]MonthSummary, 0, 12)
	for m := 1; m <= 12; m++ {
		acc := months[m]
		if acc == nil {
			continue
		}
		out = append(out, MonthSummary{
			Month:       m,
			Name:        time.Month(m).String(),
			Sales:       acc.sales,
			Profit:      acc.profit,
			ProfitRatio: acc.profitRatio(),
		})
	}
	return out
}

// YearTotals sums the records of one year.
func YearTotals(records []core.Record, year int) Totals {
	var t Totals
	orders := make(map[string]struct{})
	for _, r := range records {
		if r.OrderDate.IsEmpty() || r.OrderDate.Year() != year {
			continue
		}
		t.Sales = t.Sales.Add(r.Sales)
		t.Profit = t.Profit.Add(r.Profit)
		t.Quantity += r.Quantity
		orders[r.OrderID] = struct{}{}
	}
	t.Orders = len(orders)
	t.ProfitRatio = ratio(t.Profit, t.Sales)
	return t
}

// TopProducts ranks products by total quantity sold, highest first. Ties
// keep the order in which products first appear. n <= 0 means
// DefaultTopProducts.
func TopProducts(records []core.Record, n int) []ProductQuantity {
	if n <= 0 {
		n = DefaultTopProducts
	}
	type key struct{ id, name string }
	index := make(map[key]int)
	var out []ProductQuantity
	for _, r := range records {
		k := key{r.ProductID, r.ProductName}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, ProductQuantity{ProductID: r.ProductID, ProductName: r.ProductName})
		}
		out[i].Quantity += r.Quantity
	}
	slices.SortStableFunc(out, func(a, b ProductQuantity) int { return cmp.Compare(b.Quantity, a.Quantity) })
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []ProductQuantity{}
	}
	return out
}

// DailySummary returns per-day figures for one month, ordered by date.
func DailySummary(records []core.Record, year, month int) []DaySummary {
	days := make(map[int]*accumulator)
	for _, r := range records {
		d := r.OrderDate
		if d.IsEmpty() || d.Year() != year || d.Month() != month {
			continue
		}
		acc, ok := days[d.Day()]
		if !ok {
			acc = newAccumulator()
			days[d.Day()] = acc
		}
		acc.add(r)
	}
	out := make([]DaySummary, 0, len(days))
	for day, acc := range days {
		out = append(out, DaySummary{
			Date:        core.NewDate(year, month, day),
			Day:         day,
			Sales:       acc.sales,
			Profit:      acc.profit,
			ProfitRatio: acc.profitRatio(),
			Count:       acc.count,
		})
	}
	slices.SortFunc(out, func(a, b DaySummary) int { return cmp.Compare(a.Day, b.Day) })
	return out
}

// PreviousMonth returns the month before (year, month).
func PreviousMonth(year, month int) (int, int) {
	if month <= 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// CompareMonths returns the daily figures of (year, month) and of the
// month before it.
func CompareMonths(records []core.Record, year, month int) MonthComparison {
	py, pm := PreviousMonth(year, month)
	return MonthComparison{
		Year:          year,
		Month:         month,
		Current:       DailySummary(records, year, month),
		PreviousYear:  py,
		PreviousMonth: pm,
		Previous:      DailySummary(records, py, pm),
	}
}

// LatestPeriod returns the year and month of the most recent order date.
func LatestPeriod(records []core.Record) (year, month int, ok bool) {
	var latest core.Date
	for _, r := range records {
		if r.OrderDate.After(latest.Time) {
			latest = r.OrderDate
		}
	}
	if latest.IsEmpty() {
		return 0, 0, false
	}
	return latest.Year(), latest.Month(), true
}
