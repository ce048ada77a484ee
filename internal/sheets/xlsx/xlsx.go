// Package xlsx loads the dataset from an Excel workbook holding an orders
// sheet and a returns sheet.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"salesdash/internal/core"
	ports "salesdash/internal/sheets"
)

var (
	_ ports.DatasetLoader = (*Workbook)(nil)
	_ ports.DatasetWriter = (*Workbook)(nil)
)

// Workbook reads and writes a Superstore-style workbook on disk.
type Workbook struct {
	path         string
	ordersSheet  string
	returnsSheet string
}

// New returns a workbook source. Empty sheet names use the defaults.
func New(path, ordersSheet, returnsSheet string) *Workbook {
	if ordersSheet == "" {
		ordersSheet = ports.DefaultOrdersSheet
	}
	if returnsSheet == "" {
		returnsSheet = ports.DefaultReturnsSheet
	}
	return &Workbook{path: path, ordersSheet: ordersSheet, returnsSheet: returnsSheet}
}

// Load opens the workbook and parses both sheets. A workbook without a
// returns sheet loads with no returns.
func (w *Workbook) Load(ctx context.Context) (*core.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	defer f.Close()

	cols, rows, err := readSheet(f, w.ordersSheet)
	if err != nil {
		return nil, err
	}
	orders, err := ports.ParseOrders(cols, rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", w.ordersSheet, err)
	}

	returns := map[string]bool{}
	if idx, _ := f.GetSheetIndex(w.returnsSheet); idx >= 0 {
		cols, rows, err := readSheet(f, w.returnsSheet)
		if err != nil {
			return nil, err
		}
		if returns, err = ports.ParseReturns(cols, rows); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", w.returnsSheet, err)
		}
	} else {
		slog.WarnContext(ctx, "Returns sheet not found, loading without returns", "sheet", w.returnsSheet, "path", w.path)
	}
	return core.NewDataset(orders, returns), nil
}

func readSheet(f *excelize.File, sheet string) ([]string, [][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %s: %w", sheet, errEmptySheet)
	}
	return rows[0], rows[1:], nil
}

var errEmptySheet = errors.New("no header row")

// ImportDataset writes ds to a new workbook at the configured path,
// replacing any existing file.
func (w *Workbook) ImportDataset(_ context.Context, ds *core.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", w.ordersSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, w.ordersSheet, 1, ports.OrderColumns); err != nil {
		return err
	}
	for i, r := range ds.Orders {
		if err := writeRow(f, w.ordersSheet, i+2, ports.FormatRecord(r)); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(w.returnsSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", w.returnsSheet, err)
	}
	if err := writeRow(f, w.returnsSheet, 1, []string{ports.ColReturned, ports.ColOrderID}); err != nil {
		return err
	}
	row := 2
	for id, returned := range ds.Returns {
		if !returned {
			continue
		}
		if err := writeRow(f, w.returnsSheet, row, []string{"Yes", id}); err != nil {
			return err
		}
		row++
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
