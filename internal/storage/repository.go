// Package storage persists the dataset in SQLite so large spreadsheets are
// parsed once by the importer and loaded quickly afterwards.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"salesdash/internal/core"
	ports "salesdash/internal/sheets"

	_ "modernc.org/sqlite"
)

var (
	_ ports.DatasetLoader = (*SQLiteRepository)(nil)
	_ ports.DatasetWriter = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const insertOrder = `INSERT INTO orders (
    row_id, order_id, order_date, ship_date, ship_mode, customer_id, customer_name,
    segment, country, city, state, postal_code, region, product_id, category,
    sub_category, product_name, sales, quantity, discount, profit, position
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectOrders = `SELECT
    row_id, order_id, order_date, ship_date, ship_mode, customer_id, customer_name,
    segment, country, city, state, postal_code, region, product_id, category,
    sub_category, product_name, sales, quantity, discount, profit
FROM orders ORDER BY position`

// ImportDataset replaces the stored orders and returns with ds in a single
// transaction. Duplicate line items make the whole import fail.
func (r *SQLiteRepository) ImportDataset(ctx context.Context, ds *core.Dataset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM orders", "DELETE FROM returns"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	ins, err := tx.PrepareContext(ctx, insertOrder)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()

	for i, o := range ds.Orders {
		var discount sql.NullString
		if o.Discount.Valid {
			discount = sql.NullString{String: o.Discount.Decimal.String(), Valid: true}
		}
		_, err := ins.ExecContext(ctx,
			o.RowID, o.OrderID, o.OrderDate.String(), o.ShipDate.String(), o.ShipMode,
			o.CustomerID, o.CustomerName, o.Segment, o.Country, o.City, o.State,
			o.PostalCode, o.Region, o.ProductID, o.Category, o.SubCategory,
			o.ProductName, o.Sales.String(), o.Quantity, discount, o.Profit.String(), i)
		if err != nil {
			return fmt.Errorf("insert order %s/%s: %w", o.OrderID, o.ProductID, err)
		}
	}

	for id, returned := range ds.Returns {
		if !returned {
			continue
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO returns (order_id) VALUES (?)", id); err != nil {
			return fmt.Errorf("insert return %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Dataset imported to SQLite",
		"orders", len(ds.Orders),
		"returns", len(ds.Returns))
	return nil
}

// Load reads every stored order, in import order, and joins the returns.
func (r *SQLiteRepository) Load(ctx context.Context) (*core.Dataset, error) {
	returns, err := r.loadReturns(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, selectOrders)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []core.Record
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return core.NewDataset(orders, returns), nil
}

func (r *SQLiteRepository) loadReturns(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT order_id FROM returns")
	if err != nil {
		return nil, fmt.Errorf("query returns: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan return: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func scanOrder(rows *sql.Rows) (core.Record, error) {
	var (
		o                   core.Record
		orderDate, shipDate string
		sales, profit       string
		discount            sql.NullString
	)
	err := rows.Scan(&o.RowID, &o.OrderID, &orderDate, &shipDate, &o.ShipMode,
		&o.CustomerID, &o.CustomerName, &o.Segment, &o.Country, &o.City, &o.State,
		&o.PostalCode, &o.Region, &o.ProductID, &o.Category, &o.SubCategory,
		&o.ProductName, &sales, &o.Quantity, &discount, &profit)
	if err != nil {
		return o, fmt.Errorf("scan order: %w", err)
	}

	if o.OrderDate, err = ports.ParseDate(orderDate); err != nil {
		return o, err
	}
	if o.ShipDate, err = ports.ParseDate(shipDate); err != nil {
		return o, err
	}
	if o.Sales, err = decimal.NewFromString(sales); err != nil {
		return o, fmt.Errorf("order %s sales: %w", o.OrderID, err)
	}
	if o.Profit, err = decimal.NewFromString(profit); err != nil {
		return o, fmt.Errorf("order %s profit: %w", o.OrderID, err)
	}
	if discount.Valid {
		d, err := decimal.NewFromString(discount.String)
		if err != nil {
			return o, fmt.Errorf("order %s discount: %w", o.OrderID, err)
		}
		o.Discount = decimal.NewNullDecimal(d)
	}
	return o, nil
}

// Stats reports the number of stored orders and returns.
func (r *SQLiteRepository) Stats(ctx context.Context) (orders, returns int, err error) {
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&orders); err != nil {
		return 0, 0, fmt.Errorf("count orders: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM returns").Scan(&returns); err != nil {
		return 0, 0, fmt.Errorf("count returns: %w", err)
	}
	return orders, returns, nil
}
