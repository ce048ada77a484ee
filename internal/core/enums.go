package core

import "strings"

const (
	Week    Granularity = "week"
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

const (
	DimCountry     Dimension = "country"
	DimState       Dimension = "state"
	DimCity        Dimension = "city"
	DimRegion      Dimension = "region"
	DimCategory    Dimension = "category"
	DimSubCategory Dimension = "sub_category"
	DimSegment     Dimension = "segment"
	DimShipMode    Dimension = "ship_mode"
	DimProductName Dimension = "product_name"
	DimCustomerID  Dimension = "customer_id"
)

const (
	MetricSales       Metric = "Sales"
	MetricProfit      Metric = "Profit"
	MetricDiscount    Metric = "Discount"
	MetricQuantity    Metric = "Quantity"
	MetricDaysToShip  Metric = "Days to Ship"
	MetricReturns     Metric = "Returns"
	MetricProfitRatio Metric = "Profit Ratio"
	MetricCount       Metric = "Count"
)

type (
	// Granularity is the time bucket width used to regroup dated records.
	Granularity string

	// Dimension is a categorical attribute records can be grouped by.
	Dimension string

	// Metric is a per-group measure selectable as a chart axis.
	Metric string
)

var (
	granularities = []Granularity{Week, Month, Quarter, Year}

	dimensions = []Dimension{
		DimCountry, DimState, DimCity, DimRegion, DimCategory, DimSubCategory,
		DimSegment, DimShipMode, DimProductName, DimCustomerID,
	}

	dimensionLabels = map[Dimension]string{
		DimCountry:     "Country",
		DimState:       "State",
		DimCity:        "City",
		DimRegion:      "Region",
		DimCategory:    "Category",
		DimSubCategory: "Sub-Category",
		DimSegment:     "Segment",
		DimShipMode:    "Ship Mode",
		DimProductName: "Product Name",
		DimCustomerID:  "Customer ID",
	}

	metrics = []Metric{
		MetricSales, MetricProfit, MetricDiscount, MetricQuantity,
		MetricDaysToShip, MetricReturns, MetricProfitRatio, MetricCount,
	}
)

// normalizeName lowercases s and folds '-', ' ' and '_' to '_'.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// ParseGranularity never fails: an unknown value is returned as-is and
// reports false from IsValid.
func ParseGranularity(s string) Granularity {
	return Granularity(strings.ToLower(strings.TrimSpace(s)))
}

func (g Granularity) IsValid() bool {
	switch g {
	case Week, Month, Quarter, Year:
		return true
	default:
		return false
	}
}

// Granularities lists the supported granularities in display order.
func Granularities() []Granularity {
	return append([]Granularity(nil), granularities...)
}

// ParseDimension accepts the column name ("Sub-Category") or the key
// ("sub_category").
func ParseDimension(s string) Dimension {
	return Dimension(normalizeName(s))
}

func (d Dimension) IsValid() bool {
	_, ok := dimensionLabels[d]
	return ok
}

// Label is the display column name of the dimension.
func (d Dimension) Label() string {
	if l, ok := dimensionLabels[d]; ok {
		return l
	}
	return string(d)
}

// Value extracts the dimension's value from r.
func (d Dimension) Value(r Record) (string, bool) {
	switch d {
	case DimCountry:
		return r.Country, true
	case DimState:
		return r.State, true
	case DimCity:
		return r.City, true
	case DimRegion:
		return r.Region, true
	case DimCategory:
		return r.Category, true
	case DimSubCategory:
		return r.SubCategory, true
	case DimSegment:
		return r.Segment, true
	case DimShipMode:
		return r.ShipMode, true
	case DimProductName:
		return r.ProductName, true
	case DimCustomerID:
		return r.CustomerID, true
	default:
		return "", false
	}
}

// IsLineItemLevel reports whether returns for this dimension are attributed
// per line item rather than per order.
func (d Dimension) IsLineItemLevel() bool {
	switch d {
	case DimProductName, DimSubCategory, DimCategory:
		return true
	default:
		return false
	}
}

// Dimensions lists the supported grouping dimensions.
func Dimensions() []Dimension {
	return append([]Dimension(nil), dimensions...)
}

// ParseMetric matches a metric by name, ignoring case and separators.
func ParseMetric(s string) Metric {
	n := normalizeName(s)
	for _, m := range metrics {
		if normalizeName(string(m)) == n {
			return m
		}
	}
	return Metric(strings.TrimSpace(s))
}

func (m Metric) IsValid() bool {
	for _, known := range metrics {
		if m == known {
			return true
		}
	}
	return false
}

// Metrics lists the metrics selectable as chart axes.
func Metrics() []Metric {
	return append([]Metric(nil), metrics...)
}
