package memory

import (
	"github.com/shopspring/decimal"

	"salesdash/internal/core"
)

type sampleRow struct {
	order, product, name, category, sub string
	ordered, shipped                    core.Date
	city, state, region, segment, mode  string
	sales, profit, discount             string
	qty                                 int
}

var sampleRows = []sampleRow{
	{"CA-2016-152156", "FUR-BO-10001798", "Bush Somerset Collection Bookcase", "Furniture", "Bookcases",
		core.NewDate(2016, 11, 8), core.NewDate(2016, 11, 11), "Henderson", "Kentucky", "South", "Consumer", "Second Class", "261.96", "41.9136", "0", 2},
	{"CA-2016-152156", "FUR-CH-10000454", "Hon Deluxe Fabric Upholstered Stacking Chairs", "Furniture", "Chairs",
		core.NewDate(2016, 11, 8), core.NewDate(2016, 11, 11), "Henderson", "Kentucky", "South", "Consumer", "Second Class", "731.94", "219.582", "0", 3},
	{"CA-2016-138688", "OFF-LA-10000240", "Self-Adhesive Address Labels", "Office Supplies", "Labels",
		core.NewDate(2016, 6, 12), core.NewDate(2016, 6, 16), "Los Angeles", "California", "West", "Corporate", "Second Class", "14.62", "6.8714", "0", 2},
	{"US-2015-108966", "FUR-TA-10000577", "Bretford CR4500 Series Slim Rectangular Table", "Furniture", "Tables",
		core.NewDate(2015, 10, 11), core.NewDate(2015, 10, 18), "Fort Lauderdale", "Florida", "South", "Consumer", "Standard Class", "957.5775", "-383.031", "0.45", 5},
	{"CA-2017-114412", "OFF-PA-10002365", "Xerox 1967", "Office Supplies", "Paper",
		core.NewDate(2017, 1, 5), core.NewDate(2017, 1, 10), "Concord", "North Carolina", "South", "Consumer", "Standard Class", "15.552", "5.4432", "0.2", 3},
	{"CA-2017-161389", "OFF-BI-10003656", "Fellowes PB200 Plastic Comb Binding Machine", "Office Supplies", "Binders",
		core.NewDate(2017, 2, 10), core.NewDate(2017, 2, 15), "Seattle", "Washington", "West", "Consumer", "Standard Class", "407.976", "132.5922", "0.2", 3},
	{"US-2017-118983", "OFF-AP-10002311", "Holmes Replacement Filter", "Office Supplies", "Appliances",
		core.NewDate(2017, 2, 20), core.NewDate(2017, 2, 24), "Fort Worth", "Texas", "Central", "Home Office", "Standard Class", "68.81", "-123.858", "0.8", 5},
	{"CA-2017-105893", "OFF-ST-10004186", "Stur-D-Stor Shelving", "Office Supplies", "Storage",
		core.NewDate(2017, 3, 1), core.NewDate(2017, 3, 6), "Madison", "Wisconsin", "Central", "Consumer", "Standard Class", "665.88", "13.3176", "0", 6},
	{"CA-2017-167164", "TEC-PH-10002033", "Konftel 250 Conference Phone", "Technology", "Phones",
		core.NewDate(2017, 11, 22), core.NewDate(2017, 11, 24), "Houston", "Texas", "Central", "Corporate", "First Class", "911.424", "57.0", "0.2", 4},
	{"CA-2017-143336", "TEC-AC-10002167", "Imation 8GB Mini TravelDrive", "Technology", "Accessories",
		core.NewDate(2017, 12, 3), core.NewDate(2017, 12, 3), "San Francisco", "California", "West", "Consumer", "Same Day", "45.0", "4.95", "0", 3},
}

// SampleOrders is a small slice of the Superstore orders table used when no
// seed files are available.
func SampleOrders() []core.Record {
	out := make([]core.Record, 0, len(sampleRows))
	for i, s := range sampleRows {
		r := core.Record{
			RowID:       i + 1,
			OrderID:     s.order,
			OrderDate:   s.ordered,
			ShipDate:    s.shipped,
			ShipMode:    s.mode,
			CustomerID:  "CUST-" + s.order[len(s.order)-4:],
			Segment:     s.segment,
			Country:     "United States",
			City:        s.city,
			State:       s.state,
			Region:      s.region,
			ProductID:   s.product,
			Category:    s.category,
			SubCategory: s.sub,
			ProductName: s.name,
			Sales:       decimal.RequireFromString(s.sales),
			Quantity:    s.qty,
			Discount:    decimal.NewNullDecimal(decimal.RequireFromString(s.discount)),
			Profit:      decimal.RequireFromString(s.profit),
		}
		out = append(out, r)
	}
	return out
}

// SampleReturns marks a couple of the sample orders as returned.
func SampleReturns() map[string]bool {
	return map[string]bool{"US-2015-108966": true, "CA-2017-161389": true}
}
