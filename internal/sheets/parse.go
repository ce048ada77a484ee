package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"salesdash/internal/core"
)

// Column headers of the orders and returns sheets.
const (
	ColRowID        = "Row ID"
	ColOrderID      = "Order ID"
	ColOrderDate    = "Order Date"
	ColShipDate     = "Ship Date"
	ColShipMode     = "Ship Mode"
	ColCustomerID   = "Customer ID"
	ColCustomerName = "Customer Name"
	ColSegment      = "Segment"
	ColCountry      = "Country"
	ColCity         = "City"
	ColState        = "State"
	ColPostalCode   = "Postal Code"
	ColRegion       = "Region"
	ColProductID    = "Product ID"
	ColCategory     = "Category"
	ColSubCategory  = "Sub-Category"
	ColProductName  = "Product Name"
	ColSales        = "Sales"
	ColQuantity     = "Quantity"
	ColDiscount     = "Discount"
	ColProfit       = "Profit"
	ColReturned     = "Returned"
)

// OrderColumns is the canonical column order of the orders sheet.
var OrderColumns = []string{
	ColRowID, ColOrderID, ColOrderDate, ColShipDate, ColShipMode, ColCustomerID,
	ColCustomerName, ColSegment, ColCountry, ColCity, ColState, ColPostalCode,
	ColRegion, ColProductID, ColCategory, ColSubCategory, ColProductName,
	ColSales, ColQuantity, ColDiscount, ColProfit,
}

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

var dateLayouts = []string{
	time.DateOnly,
	"1/2/2006",
	"1/2/06",
	"01-02-2006",
	"01-02-06",
	time.DateTime,
	time.RFC3339,
	"2006/01/02",
}

// header maps normalised column names to their index.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		key := normalize(c)
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", " ", "", "_", "").Replace(s)
}

func (h header) index(col string) int {
	if i, ok := h[normalize(col)]; ok {
		return i
	}
	return -1
}

func (h header) get(row []string, col string) string {
	return safeGet(row, h.index(col))
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return strings.TrimSpace(arr[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseOrders converts a header row and data rows into records. Columns are
// located by header name, so their order does not matter and unknown columns
// are ignored. Blank rows are skipped; any other malformed row fails the
// whole parse with an error naming its sheet row number.
func ParseOrders(cols []string, rows [][]string) ([]core.Record, error) {
	h := newHeader(cols)
	for _, required := range []string{ColOrderID, ColProductID} {
		if h.index(required) < 0 {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, required)
		}
	}
	out := make([]core.Record, 0, len(rows))
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		r, err := parseOrder(h, row)
		if err != nil {
			// +2: one for the header, one for 1-based sheet rows
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// ParseOrderFields parses a single order given as column name to value.
// Keys are matched like sheet headers, so "Order ID" and "order_id" are
// equivalent. Errors carry no row prefix.
func ParseOrderFields(fields map[string]string) (core.Record, error) {
	cols := make([]string, 0, len(fields))
	row := make([]string, 0, len(fields))
	for k, v := range fields {
		cols = append(cols, k)
		row = append(row, v)
	}
	return parseOrder(newHeader(cols), row)
}

func parseOrder(h header, row []string) (core.Record, error) {
	r := core.Record{
		OrderID:      h.get(row, ColOrderID),
		ShipMode:     h.get(row, ColShipMode),
		CustomerID:   h.get(row, ColCustomerID),
		CustomerName: h.get(row, ColCustomerName),
		Segment:      h.get(row, ColSegment),
		Country:      h.get(row, ColCountry),
		City:         h.get(row, ColCity),
		State:        h.get(row, ColState),
		PostalCode:   h.get(row, ColPostalCode),
		Region:       h.get(row, ColRegion),
		ProductID:    h.get(row, ColProductID),
		Category:     h.get(row, ColCategory),
		SubCategory:  h.get(row, ColSubCategory),
		ProductName:  h.get(row, ColProductName),
	}
	if err := r.ValidateKey(); err != nil {
		return r, err
	}

	var err error
	if r.RowID, err = parseInt(h.get(row, ColRowID)); err != nil {
		return r, fmt.Errorf("%s: %w", ColRowID, err)
	}
	if r.OrderDate, err = ParseDate(h.get(row, ColOrderDate)); err != nil {
		return r, fmt.Errorf("%s: %w", ColOrderDate, err)
	}
	if r.ShipDate, err = ParseDate(h.get(row, ColShipDate)); err != nil {
		return r, fmt.Errorf("%s: %w", ColShipDate, err)
	}
	if r.Sales, err = parseMoney(h.get(row, ColSales)); err != nil {
		return r, fmt.Errorf("%s: %w", ColSales, err)
	}
	if r.Profit, err = parseMoney(h.get(row, ColProfit)); err != nil {
		return r, fmt.Errorf("%s: %w", ColProfit, err)
	}
	if r.Quantity, err = parseInt(h.get(row, ColQuantity)); err != nil {
		return r, fmt.Errorf("%s: %w", ColQuantity, err)
	}
	if s := h.get(row, ColDiscount); s != "" {
		d, err := core.ParseFraction(s)
		if err != nil {
			return r, fmt.Errorf("%s: %w", ColDiscount, err)
		}
		r.Discount = decimal.NewNullDecimal(d)
	}
	return r, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return core.ParseAmount(s)
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := core.ParseAmount(s)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(d.IntPart()), nil
}

// ParseDate accepts ISO dates, US month/day/year forms and Excel serial
// day numbers. An empty string yields an empty date.
func ParseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("unrecognised date %q", s)
}

// ParseReturns builds the returns index from the returns sheet. Rows whose
// Returned cell is present and not "yes" are ignored; a sheet without a
// Returned column lists returned orders only.
func ParseReturns(cols []string, rows [][]string) (map[string]bool, error) {
	h := newHeader(cols)
	if h.index(ColOrderID) < 0 {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, ColOrderID)
	}
	hasFlag := h.index(ColReturned) >= 0
	out := make(map[string]bool)
	for _, row := range rows {
		id := h.get(row, ColOrderID)
		if id == "" {
			continue
		}
		if hasFlag && !isYes(h.get(row, ColReturned)) {
			continue
		}
		out[id] = true
	}
	return out, nil
}

func isYes(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

// ToStrings converts a row of loosely typed cell values to trimmed strings.
func ToStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// FormatRecord renders r as a row in OrderColumns order.
func FormatRecord(r core.Record) []string {
	discount := ""
	if r.Discount.Valid {
		discount = r.Discount.Decimal.String()
	}
	return []string{
		strconv.Itoa(r.RowID), r.OrderID, r.OrderDate.String(), r.ShipDate.String(),
		r.ShipMode, r.CustomerID, r.CustomerName, r.Segment, r.Country, r.City,
		r.State, r.PostalCode, r.Region, r.ProductID, r.Category, r.SubCategory,
		r.ProductName, r.Sales.String(), strconv.Itoa(r.Quantity), discount,
		r.Profit.String(),
	}
}
