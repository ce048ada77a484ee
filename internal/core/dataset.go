package core

import (
	"slices"
	"strings"
)

// Dataset is the in-memory orders table plus the returns index it was joined
// against. Records are never modified after load; Append only adds rows.
type Dataset struct {
	Orders  []Record
	Returns map[string]bool
}

// NewDataset builds a dataset and joins the returns index into the orders.
func NewDataset(orders []Record, returns map[string]bool) *Dataset {
	if returns == nil {
		returns = map[string]bool{}
	}
	ds := &Dataset{Orders: orders, Returns: returns}
	ds.Join()
	return ds
}

// Join marks Returned on every record whose order id has a matching return.
// Orders without a return entry are not returned.
func (ds *Dataset) Join() {
	for i := range ds.Orders {
		ds.Orders[i].Returned = ds.Returns[ds.Orders[i].OrderID]
	}
}

// Len returns the number of records.
func (ds *Dataset) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.Orders)
}

// Snapshot returns a read-only view. The orders slice is clipped so a later
// Append on ds never writes into memory visible through the snapshot.
func (ds *Dataset) Snapshot() *Dataset {
	if ds == nil {
		return &Dataset{Returns: map[string]bool{}}
	}
	return &Dataset{Orders: slices.Clip(ds.Orders), Returns: ds.Returns}
}

// Has reports whether a line item with the given order and product exists.
func (ds *Dataset) Has(orderID, productID string) bool {
	orderID = strings.TrimSpace(orderID)
	productID = strings.TrimSpace(productID)
	for _, r := range ds.Orders {
		if r.OrderID == orderID && r.ProductID == productID {
			return true
		}
	}
	return false
}

// Append validates r and adds it to the end of the table. The returned
// error is ErrMissingKey, a *DuplicateOrderError, or a field validation error.
func (ds *Dataset) Append(r Record) error {
	r.OrderID = strings.TrimSpace(r.OrderID)
	r.ProductID = strings.TrimSpace(r.ProductID)
	if err := r.Validate(); err != nil {
		return err
	}
	if ds.Has(r.OrderID, r.ProductID) {
		return &DuplicateOrderError{OrderID: r.OrderID, ProductID: r.ProductID}
	}
	r.Returned = ds.Returns[r.OrderID]
	if r.RowID == 0 {
		r.RowID = ds.nextRowID()
	}
	ds.Orders = append(ds.Orders, r)
	return nil
}

func (ds *Dataset) nextRowID() int {
	maxID := 0
	for _, r := range ds.Orders {
		maxID = max(maxID, r.RowID)
	}
	return maxID + 1
}

// Bounds returns the earliest and latest order date. ok is false when no
// record carries an order date.
func (ds *Dataset) Bounds() (first, last Date, ok bool) {
	for _, r := range ds.Orders {
		if r.OrderDate.IsEmpty() {
			continue
		}
		if !ok || r.OrderDate.Before(first.Time) {
			first = r.OrderDate
		}
		if !ok || r.OrderDate.After(last.Time) {
			last = r.OrderDate
		}
		ok = true
	}
	return first, last, ok
}
