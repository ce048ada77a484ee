// Package memory is a dataset source backed by CSV seed files, with a small
// built-in sample when no seeds are present.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"salesdash/internal/core"
	ports "salesdash/internal/sheets"
)

// Seed file names looked up in the data directory.
const (
	OrdersFile  = "orders.csv"
	ReturnsFile = "returns.csv"
)

var _ ports.DatasetLoader = (*Store)(nil)

// Store holds a dataset in memory. Load returns a fresh copy each time, so
// callers may append to it without affecting the store.
type Store struct {
	mu      sync.Mutex
	orders  []core.Record
	returns map[string]bool
}

func New(orders []core.Record, returns map[string]bool) *Store {
	return &Store{orders: orders, returns: returns}
}

// NewFromFiles reads orders.csv and returns.csv from base. A missing
// orders file falls back to the built-in sample; a missing returns file means
// nothing was returned. Malformed files are an error.
func NewFromFiles(base string) (*Store, error) {
	cols, rows, err := readCSV(filepath.Join(base, OrdersFile))
	if errors.Is(err, fs.ErrNotExist) {
		return New(SampleOrders(), SampleReturns()), nil
	}
	if err != nil {
		return nil, err
	}
	orders, err := ports.ParseOrders(cols, rows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", OrdersFile, err)
	}

	returns := map[string]bool{}
	cols, rows, err = readCSV(filepath.Join(base, ReturnsFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if returns, err = ports.ParseReturns(cols, rows); err != nil {
			return nil, fmt.Errorf("parse %s: %w", ReturnsFile, err)
		}
	}
	return New(orders, returns), nil
}

// Load returns a copy of the stored dataset with returns joined in.
func (s *Store) Load(ctx context.Context) (*core.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := append([]core.Record(nil), s.orders...)
	returns := make(map[string]bool, len(s.returns))
	for k, v := range s.returns {
		returns[k] = v
	}
	return core.NewDataset(orders, returns), nil
}

// ImportDataset replaces the stored data with ds.
func (s *Store) ImportDataset(_ context.Context, ds *core.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]core.Record(nil), ds.Orders...)
	s.returns = make(map[string]bool, len(ds.Returns))
	for k, v := range ds.Returns {
		s.returns[k] = v
	}
	return nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%s: empty file", filepath.Base(path))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s header: %w", filepath.Base(path), err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return header, rows, nil
}

// WriteCSV writes ds as orders.csv and returns.csv under base.
func WriteCSV(base string, ds *core.Dataset) error {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return err
	}
	rows := make([][]string, 0, len(ds.Orders)+1)
	rows = append(rows, ports.OrderColumns)
	for _, r := range ds.Orders {
		rows = append(rows, ports.FormatRecord(r))
	}
	if err := writeCSV(filepath.Join(base, OrdersFile), rows); err != nil {
		return err
	}
	returns := [][]string{{ports.ColReturned, ports.ColOrderID}}
	for id, ok := range ds.Returns {
		if ok {
			returns = append(returns, []string{"Yes", id})
		}
	}
	return writeCSV(filepath.Join(base, ReturnsFile), returns)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
