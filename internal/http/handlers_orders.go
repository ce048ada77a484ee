package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"salesdash/internal/analytics"
	"salesdash/internal/core"
	applog "salesdash/internal/log"
	"salesdash/internal/sheets"
)

// orderJSON is the wire form of one line item.
type orderJSON struct {
	RowID        int                 `json:"row_id"`
	OrderID      string              `json:"order_id"`
	OrderDate    core.Date           `json:"order_date"`
	ShipDate     core.Date           `json:"ship_date"`
	ShipMode     string              `json:"ship_mode,omitempty"`
	CustomerID   string              `json:"customer_id,omitempty"`
	CustomerName string              `json:"customer_name,omitempty"`
	Segment      string              `json:"segment,omitempty"`
	Country      string              `json:"country,omitempty"`
	City         string              `json:"city,omitempty"`
	State        string              `json:"state,omitempty"`
	PostalCode   string              `json:"postal_code,omitempty"`
	Region       string              `json:"region,omitempty"`
	ProductID    string              `json:"product_id"`
	Category     string              `json:"category,omitempty"`
	SubCategory  string              `json:"sub_category,omitempty"`
	ProductName  string              `json:"product_name,omitempty"`
	Sales        decimal.Decimal     `json:"sales"`
	Quantity     int                 `json:"quantity"`
	Discount     decimal.NullDecimal `json:"discount"`
	Profit       decimal.Decimal     `json:"profit"`
	Returned     bool                `json:"returned"`
}

func toOrderJSON(r core.Record) orderJSON {
	return orderJSON{
		RowID:        r.RowID,
		OrderID:      r.OrderID,
		OrderDate:    r.OrderDate,
		ShipDate:     r.ShipDate,
		ShipMode:     r.ShipMode,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		Segment:      r.Segment,
		Country:      r.Country,
		City:         r.City,
		State:        r.State,
		PostalCode:   r.PostalCode,
		Region:       r.Region,
		ProductID:    r.ProductID,
		Category:     r.Category,
		SubCategory:  r.SubCategory,
		ProductName:  r.ProductName,
		Sales:        r.Sales,
		Quantity:     r.Quantity,
		Discount:     r.Discount,
		Profit:       r.Profit,
		Returned:     r.Returned,
	}
}

type ordersPage struct {
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Pages    int         `json:"pages"`
	Total    int         `json:"total"`
	Start    core.Date   `json:"start"`
	End      core.Date   `json:"end"`
	Orders   []orderJSON `json:"orders"`
}

// handleListOrders serves the filtered, paginated orders table.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, "orders", func(ds *core.Dataset) (any, error) {
		values := r.URL.Query()
		q, err := ParseQuery(values, ds)
		if err != nil {
			return nil, err
		}
		page, size, err := ParsePage(values)
		if err != nil {
			return nil, err
		}

		matched := analytics.Filter(ds.Orders, q)
		rows, pages := analytics.Page(matched, page, size)
		out := ordersPage{
			Page:     page,
			PageSize: size,
			Pages:    pages,
			Total:    len(matched),
			Start:    q.Start,
			End:      q.End,
			Orders:   make([]orderJSON, 0, len(rows)),
		}
		for _, rec := range rows {
			out.Orders = append(out.Orders, toOrderJSON(rec))
		}
		return out, nil
	})
}

// handleCreateOrder adds one order from a JSON or form body. Keys may be
// sheet column names or their snake_case form. The order date defaults to
// today.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}

	fields := parser.Fields()
	rec, err := sheets.ParseOrderFields(fields)
	if err != nil {
		if resp := orderStatus(err); resp.statusCode != http.StatusInternalServerError {
			resp.Write(w)
			return
		}
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	if rec.OrderDate.IsEmpty() {
		rec.OrderDate = core.DateOf(time.Now())
	}

	stored, err := s.orders.AddOrder(r.Context(), rec)
	if err != nil {
		resp := orderStatus(err)
		if resp.statusCode == http.StatusInternalServerError {
			logger.ErrorContext(r.Context(), "Add order failed", applog.FieldError, err)
		}
		resp.Write(w)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		JSON(toOrderJSON(stored)).
		Write(w)
}
