package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Date is a calendar date. Time of day is always midnight UTC.
	Date struct {
		time.Time
	}

	Record struct {
		RowID        int
		OrderID      string
		OrderDate    Date
		ShipDate     Date
		ShipMode     string
		CustomerID   string
		CustomerName string
		Segment      string
		Country      string
		City         string
		State        string
		PostalCode   string
		Region       string
		ProductID    string
		Category     string
		SubCategory  string
		ProductName  string
		Sales        decimal.Decimal
		Quantity     int
		Discount     decimal.NullDecimal
		Profit       decimal.Decimal
		Returned     bool
	}
)

var (
	ErrMissingKey       = errors.New("Order ID and Product ID are required")
	ErrDuplicateOrder   = errors.New("order already exists")
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
	ErrDiscountRange    = errors.New("discount must be between 0 and 1")
)

// DuplicateOrderError reports an (order, product) pair that is already present.
type DuplicateOrderError struct {
	OrderID   string
	ProductID string
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("Order %s with product %s already exists", e.OrderID, e.ProductID)
}

func (e *DuplicateOrderError) Unwrap() error { return ErrDuplicateOrder }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date, keeping the wall-clock day of t's location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO (YYYY-MM-DD) date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty reports whether the date was never set.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" when empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// MarshalJSON encodes the date as an ISO string, or null when empty.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts an ISO date string, "" or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the whole days from a to b.
func DaysBetween(a, b Date) int {
	return int(b.Sub(a.Time).Hours() / 24)
}

// DaysToShip is ship date minus order date in days. ok is false when either
// date is missing.
func (r Record) DaysToShip() (days int, ok bool) {
	if r.OrderDate.IsEmpty() || r.ShipDate.IsEmpty() {
		return 0, false
	}
	return DaysBetween(r.OrderDate, r.ShipDate), true
}

// ValidateKey checks the fields that identify a line item.
func (r Record) ValidateKey() error {
	if strings.TrimSpace(r.OrderID) == "" || strings.TrimSpace(r.ProductID) == "" {
		return ErrMissingKey
	}
	return nil
}

// Validate checks a record before it is inserted into a dataset. Only the
// key is required; optional fields are checked when present.
func (r Record) Validate() error {
	if err := r.ValidateKey(); err != nil {
		return err
	}
	if r.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if r.Discount.Valid {
		if r.Discount.Decimal.IsNegative() || r.Discount.Decimal.GreaterThan(decimal.NewFromInt(1)) {
			return ErrDiscountRange
		}
	}
	return nil
}
