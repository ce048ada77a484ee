package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salesdash/internal/sheets/memory"
)

func TestWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "superstore.xlsx")
	src, err := memory.New(memory.SampleOrders(), memory.SampleReturns()).Load(context.Background())
	require.NoError(t, err)

	wb := New(path, "", "")
	require.NoError(t, wb.ImportDataset(context.Background(), src))

	got, err := wb.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, src.Len(), got.Len())
	for i := range src.Orders {
		assert.Equal(t, src.Orders[i].OrderID, got.Orders[i].OrderID)
		assert.Equal(t, src.Orders[i].OrderDate, got.Orders[i].OrderDate)
		assert.True(t, src.Orders[i].Profit.Equal(got.Orders[i].Profit))
		assert.Equal(t, src.Orders[i].Returned, got.Orders[i].Returned)
	}
}

func TestLoadWithoutReturnsSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Order ID", "Product ID", "Order Date", "Sales"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"O1", "P1", "2017-01-05", 12.5}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := New(path, "Sheet1", "").Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "12.5", ds.Orders[0].Sales.String())
	assert.False(t, ds.Orders[0].Returned)
}

func TestLoadMissingWorkbook(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.xlsx"), "", "").Load(context.Background())
	assert.Error(t, err)
}

func TestLoadMissingOrdersSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := New(path, "", "").Load(context.Background())
	assert.Error(t, err)
}
