package analytics

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/core"
)

func rec(orderID, productID string, date core.Date, sales float64) core.Record {
	return core.Record{
		OrderID:   orderID,
		ProductID: productID,
		OrderDate: date,
		ShipDate:  date,
		Sales:     decimal.NewFromFloat(sales),
		Profit:    decimal.NewFromFloat(sales / 10),
		Quantity:  1,
		Discount:  decimal.NewNullDecimal(decimal.Zero),
	}
}

func d(y, m, day int) core.Date { return core.NewDate(y, m, day) }

func monthFixture() []core.Record {
	return []core.Record{
		rec("A", "P1", d(2017, 1, 5), 100),
		rec("B", "P1", d(2017, 2, 10), 50),
		rec("C", "P2", d(2017, 2, 20), 150),
		rec("D", "P3", d(2017, 3, 1), 200),
	}
}

func TestFilterByDate(t *testing.T) {
	records := []core.Record{
		rec("A", "P1", d(2017, 1, 1), 1),
		rec("B", "P1", d(2017, 1, 15), 1),
		rec("C", "P1", d(2017, 1, 31), 1),
		rec("D", "P1", d(2017, 2, 1), 1),
	}

	got := FilterByDate(records, d(2017, 1, 1), d(2017, 1, 31))
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].OrderID)
	assert.Equal(t, "B", got[1].OrderID)
	assert.Equal(t, "C", got[2].OrderID)

	t.Run("single day", func(t *testing.T) {
		got := FilterByDate(records, d(2017, 1, 15), d(2017, 1, 15))
		require.Len(t, got, 1)
		assert.Equal(t, "B", got[0].OrderID)
	})

	t.Run("inverted range", func(t *testing.T) {
		got := FilterByDate(records, d(2017, 2, 1), d(2017, 1, 1))
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("does not modify input", func(t *testing.T) {
		before := append([]core.Record(nil), records...)
		FilterByDate(records, d(2017, 1, 10), d(2017, 1, 20))
		assert.Equal(t, before, records)
	})
}

func TestFilter(t *testing.T) {
	a := rec("A", "P1", d(2017, 1, 1), 1)
	a.Country, a.State, a.City = "United States", "Texas", "Houston"
	b := rec("B", "P1", d(2017, 3, 1), 1)
	b.Country, b.State, b.City = "United States", "California", "Los Angeles"
	records := []core.Record{a, b}

	assert.Len(t, Filter(records, Query{}), 2)
	assert.Len(t, Filter(records, Query{State: "texas"}), 1)
	assert.Len(t, Filter(records, Query{Start: d(2017, 2, 1)}), 1)
	assert.Len(t, Filter(records, Query{End: d(2017, 2, 1)}), 1)
	assert.Empty(t, Filter(records, Query{Start: d(2017, 2, 1), City: "Houston"}))
}

func TestAggregateByMonth(t *testing.T) {
	buckets := AggregateByGranularity(monthFixture(), core.Month)
	require.Len(t, buckets, 3)

	assert.Equal(t, d(2017, 1, 5), buckets[0].Date)
	assert.Equal(t, d(2017, 2, 10), buckets[1].Date)
	assert.Equal(t, d(2017, 3, 1), buckets[2].Date)

	assert.Equal(t, "100", buckets[0].Sales.String())
	assert.Equal(t, "200", buckets[1].Sales.String())
	assert.Equal(t, "200", buckets[2].Sales.String())
	assert.Equal(t, 2, buckets[1].Count)
}

func TestAggregateByWeek(t *testing.T) {
	// 2017-01-02 is a Monday; 2017-01-01 belongs to ISO week 52 of 2016.
	records := []core.Record{
		rec("A", "P1", d(2017, 1, 4), 10),
		rec("B", "P1", d(2017, 1, 8), 20),
		rec("C", "P1", d(2017, 1, 1), 30),
	}
	buckets := AggregateByGranularity(records, core.Week)
	require.Len(t, buckets, 2)
	assert.Equal(t, d(2016, 12, 26), buckets[0].Date)
	assert.Equal(t, "30", buckets[0].Sales.String())
	assert.Equal(t, d(2017, 1, 2), buckets[1].Date)
	assert.Equal(t, "30", buckets[1].Sales.String())
}

func TestAggregateByQuarterAndYear(t *testing.T) {
	records := append(monthFixture(), rec("E", "P1", d(2017, 4, 2), 5), rec("F", "P1", d(2018, 1, 1), 7))

	quarters := AggregateByGranularity(records, core.Quarter)
	require.Len(t, quarters, 3)
	assert.Equal(t, "500", quarters[0].Sales.String())
	assert.Equal(t, d(2017, 4, 2), quarters[1].Date)

	years := AggregateByGranularity(records, core.Year)
	require.Len(t, years, 2)
	assert.Equal(t, "505", years[0].Sales.String())
	assert.Equal(t, "7", years[1].Sales.String())
}

func TestAggregateConservesTotals(t *testing.T) {
	records := monthFixture()
	records[2].Returned = true

	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Sales)
	}
	for _, g := range core.Granularities() {
		buckets := AggregateByGranularity(records, g)
		sum := decimal.Zero
		count, returned := 0, 0
		for i, b := range buckets {
			sum = sum.Add(b.Sales)
			count += b.Count
			returned += b.Returned
			if i > 0 {
				assert.True(t, buckets[i-1].Date.Before(b.Date.Time), "granularity %s not ascending", g)
			}
		}
		assert.True(t, total.Equal(sum), "granularity %s", g)
		assert.Equal(t, len(records), count)
		assert.Equal(t, 1, returned)
	}
}

func TestAggregateUnknownGranularity(t *testing.T) {
	records := monthFixture()
	buckets := AggregateByGranularity(records, core.Granularity("fortnight"))
	require.Len(t, buckets, len(records))
	for i, b := range buckets {
		assert.Equal(t, records[i].OrderDate, b.Date)
		assert.Equal(t, 1, b.Count)
	}
}

func TestAggregateMetrics(t *testing.T) {
	a := rec("A", "P1", d(2017, 1, 1), 100)
	a.ShipDate = d(2017, 1, 5)
	a.Discount = decimal.NewNullDecimal(decimal.RequireFromString("0.2"))
	b := rec("B", "P1", d(2017, 1, 2), 0)
	b.Profit = decimal.NewFromInt(-10)
	b.ShipDate = core.Date{}
	b.Discount = decimal.NullDecimal{}

	buckets := AggregateByGranularity([]core.Record{a, b}, core.Month)
	require.Len(t, buckets, 1)
	got := buckets[0]
	assert.InDelta(t, 4.0, got.DaysToShip.Float64, 1e-9)
	assert.InDelta(t, 0.2, got.Discount.Float64, 1e-9)
	assert.InDelta(t, 0.0, got.ProfitRatio.Float64, 1e-9)

	zero := AggregateByGranularity([]core.Record{b}, core.Month)
	assert.False(t, zero[0].ProfitRatio.Valid)
	assert.False(t, zero[0].Discount.Valid)
	assert.False(t, zero[0].DaysToShip.Valid)

	points := Series(buckets, core.MetricSales)
	require.Len(t, points, 1)
	assert.InDelta(t, 100.0, points[0].Value.Float64, 1e-9)
}

func TestAggregateByDimension(t *testing.T) {
	mk := func(order, product, category, region string, sales float64, returned bool) core.Record {
		r := rec(order, product, d(2017, 1, 1), sales)
		r.Category, r.Region, r.Returned = category, region, returned
		return r
	}
	records := []core.Record{
		mk("O1", "P1", "Furniture", "West", 100, true),
		mk("O1", "P2", "Technology", "West", 300, true),
		mk("O2", "P3", "Furniture", "East", 50, false),
	}

	table := AggregateByDimension(records, core.DimCategory, core.MetricSales, core.MetricReturns)
	assert.Equal(t, []string{"Sales", "Returns", "Category Count", "Category"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Furniture", table.Rows[0].Label)
	assert.Equal(t, 2, table.Rows[0].Count)
	assert.InDelta(t, 150.0, table.Rows[0].X.Float64, 1e-9)
	assert.InDelta(t, 1.0, table.Rows[0].Y.Float64, 1e-9)

	t.Run("returns counted once per order", func(t *testing.T) {
		table := AggregateByDimension(records, core.DimRegion, core.MetricCount, core.MetricReturns)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "East", table.Rows[0].Label)
		assert.Equal(t, "West", table.Rows[1].Label)
		assert.InDelta(t, 2.0, table.Rows[1].X.Float64, 1e-9)
		assert.InDelta(t, 1.0, table.Rows[1].Y.Float64, 1e-9)
	})

	t.Run("percentages", func(t *testing.T) {
		table := AggregateByDimension(records, core.DimRegion, core.MetricProfitRatio, core.MetricDiscount)
		assert.InDelta(t, 10.0, table.Rows[0].X.Float64, 1e-9)
		assert.InDelta(t, 0.0, table.Rows[0].Y.Float64, 1e-9)
	})

	t.Run("line item dimensions count every returned line", func(t *testing.T) {
		lines := []core.Record{
			mk("O1", "P1", "Furniture", "West", 100, true),
			mk("O1", "P2", "Furniture", "West", 200, true),
		}
		lines[0].Segment, lines[1].Segment = "Consumer", "Consumer"

		byCategory := AggregateByDimension(lines, core.DimCategory, core.MetricSales, core.MetricReturns)
		require.Len(t, byCategory.Rows, 1)
		assert.InDelta(t, 2.0, byCategory.Rows[0].Y.Float64, 1e-9)

		for _, dim := range []core.Dimension{core.DimSegment, core.DimRegion} {
			table := AggregateByDimension(lines, dim, core.MetricSales, core.MetricReturns)
			require.Len(t, table.Rows, 1, "dimension %s", dim)
			assert.InDelta(t, 1.0, table.Rows[0].Y.Float64, 1e-9, "dimension %s", dim)
		}
	})

	t.Run("unknown dimension", func(t *testing.T) {
		table := AggregateByDimension(records, core.Dimension("planet"), core.MetricSales, core.MetricProfit)
		assert.Empty(t, table.Rows)
		assert.Equal(t, []string{"Sales", "Profit", "planet Count", "planet"}, table.Columns)
	})

	t.Run("unknown metric", func(t *testing.T) {
		table := AggregateByDimension(records, core.DimRegion, core.Metric("Vibes"), core.MetricProfit)
		assert.Empty(t, table.Rows)
		assert.Equal(t, []string{"Vibes", "Profit", "Region Count", "Region"}, table.Columns)
		assert.Empty(t, table.Records())
	})

	t.Run("same metric on both axes", func(t *testing.T) {
		table := AggregateByDimension(records, core.DimRegion, core.MetricSales, core.MetricSales)
		require.Len(t, table.Columns, 4)
		recs := table.Records()
		require.Len(t, recs, 2)
		assert.Len(t, recs[0], 3)
		assert.Equal(t, "East", recs[0]["Region"])
	})

	t.Run("counts sum to input", func(t *testing.T) {
		for _, dim := range core.Dimensions() {
			table := AggregateByDimension(records, dim, core.MetricSales, core.MetricProfit)
			total := 0
			for _, r := range table.Rows {
				total += r.Count
			}
			assert.Equal(t, len(records), total, "dimension %s", dim)
		}
	})
}

func TestBubbleScale(t *testing.T) {
	table := BubbleTable{Rows: []BubbleRow{{Count: 45}, {Count: 10}}}
	s := table.Scale()
	assert.InDelta(t, 0.4, s.SizeRef, 1e-9)
	assert.Equal(t, 4.0, s.SizeMin)
}

func TestBubbleTableJSON(t *testing.T) {
	records := []core.Record{rec("O1", "P1", d(2017, 1, 1), 10)}
	records[0].Segment = "Consumer"
	table := AggregateByDimension(records, core.DimSegment, core.MetricSales, core.MetricProfitRatio)

	b, err := json.Marshal(table)
	require.NoError(t, err)

	var got struct {
		Columns []string         `json:"columns"`
		Data    []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &got))
	require.Len(t, got.Data, 1)
	assert.Equal(t, "Consumer", got.Data[0]["Segment"])
	assert.EqualValues(t, 1, got.Data[0]["Segment Count"])
}

func TestMonthlySummary(t *testing.T) {
	records := append(monthFixture(), rec("X", "P1", d(2016, 12, 1), 999))
	months := MonthlySummary(records, 2017)
	require.Len(t, months, 3)
	assert.Equal(t, "January", months[0].Name)
	assert.Equal(t, 2, months[1].Month)
	assert.Equal(t, "200", months[1].Sales.String())

	totals := YearTotals(records, 2017)
	assert.Equal(t, "500", totals.Sales.String())
	assert.Equal(t, 4, totals.Orders)
	assert.InDelta(t, 0.1, totals.ProfitRatio.Float64, 1e-9)

	assert.Empty(t, MonthlySummary(records, 2020))
	assert.False(t, YearTotals(records, 2020).ProfitRatio.Valid)
}

func TestTopProducts(t *testing.T) {
	mk := func(id, name string, qty int) core.Record {
		r := rec("O", id, d(2017, 1, 1), 1)
		r.ProductName, r.Quantity = name, qty
		return r
	}
	records := []core.Record{
		mk("P1", "Chair", 2),
		mk("P2", "Desk", 5),
		mk("P3", "Lamp", 5),
		mk("P1", "Chair", 4),
	}

	top := TopProducts(records, 0)
	require.Len(t, top, 3)
	assert.Equal(t, ProductQuantity{"P1", "Chair", 6}, top[0])
	assert.Equal(t, "P2", top[1].ProductID)
	assert.Equal(t, "P3", top[2].ProductID)

	assert.Len(t, TopProducts(records, 1), 1)
	assert.NotNil(t, TopProducts(nil, 5))
}

func TestCompareMonths(t *testing.T) {
	records := []core.Record{
		rec("A", "P1", d(2017, 1, 3), 10),
		rec("B", "P1", d(2017, 1, 3), 5),
		rec("C", "P1", d(2016, 12, 30), 20),
	}

	cmp := CompareMonths(records, 2017, 1)
	assert.Equal(t, 2016, cmp.PreviousYear)
	assert.Equal(t, 12, cmp.PreviousMonth)
	require.Len(t, cmp.Current, 1)
	assert.Equal(t, 3, cmp.Current[0].Day)
	assert.Equal(t, 2, cmp.Current[0].Count)
	assert.Equal(t, "15", cmp.Current[0].Sales.String())
	require.Len(t, cmp.Previous, 1)
	assert.Equal(t, d(2016, 12, 30), cmp.Previous[0].Date)

	y, m, ok := LatestPeriod(records)
	require.True(t, ok)
	assert.Equal(t, 2017, y)
	assert.Equal(t, 1, m)

	_, _, ok = LatestPeriod(nil)
	assert.False(t, ok)
}

func TestLocationOptionsAndPage(t *testing.T) {
	mk := func(country, state, city string) core.Record {
		r := rec("O", "P", d(2017, 1, 1), 1)
		r.Country, r.State, r.City = country, state, city
		return r
	}
	records := []core.Record{
		mk("United States", "Texas", "Houston"),
		mk("United States", "Texas", "Dallas"),
		mk("United States", "Ohio", "Akron"),
	}

	opts := LocationOptions(records, "", "Texas")
	assert.Equal(t, []string{"United States"}, opts.Countries)
	assert.Equal(t, []string{"Ohio", "Texas"}, opts.States)
	assert.Equal(t, []string{"Dallas", "Houston"}, opts.Cities)

	rows, pages := Page(records, 2, 2)
	assert.Equal(t, 2, pages)
	require.Len(t, rows, 1)
	assert.Equal(t, "Akron", rows[0].City)

	rows, _ = Page(records, 3, 2)
	assert.Empty(t, rows)
}
