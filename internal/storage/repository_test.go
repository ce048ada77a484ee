package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/core"
	"salesdash/internal/sheets/memory"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "salesdash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestImportAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	src, err := memory.New(memory.SampleOrders(), memory.SampleReturns()).Load(ctx)
	require.NoError(t, err)
	src.Orders[0].Discount = decimal.NullDecimal{}
	src.Orders[1].ShipDate = core.Date{}

	require.NoError(t, repo.ImportDataset(ctx, src))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, src.Len(), got.Len())
	for i, want := range src.Orders {
		have := got.Orders[i]
		assert.Equal(t, want.OrderID, have.OrderID)
		assert.Equal(t, want.ProductID, have.ProductID)
		assert.Equal(t, want.OrderDate, have.OrderDate)
		assert.Equal(t, want.ShipDate, have.ShipDate)
		assert.True(t, want.Sales.Equal(have.Sales))
		assert.True(t, want.Profit.Equal(have.Profit))
		assert.Equal(t, want.Discount.Valid, have.Discount.Valid)
		assert.Equal(t, want.Returned, have.Returned)
	}

	orders, returns, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, src.Len(), orders)
	assert.Equal(t, len(memory.SampleReturns()), returns)
}

func TestImportReplacesExistingData(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	first := core.NewDataset([]core.Record{{OrderID: "O1", ProductID: "P1"}, {OrderID: "O2", ProductID: "P1"}}, map[string]bool{"O1": true})
	require.NoError(t, repo.ImportDataset(ctx, first))

	second := core.NewDataset([]core.Record{{OrderID: "O3", ProductID: "P9"}}, nil)
	require.NoError(t, repo.ImportDataset(ctx, second))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "O3", got.Orders[0].OrderID)
	assert.Empty(t, got.Returns)
}

func TestImportRejectsDuplicatesAtomically(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	good := core.NewDataset([]core.Record{{OrderID: "O1", ProductID: "P1"}}, nil)
	require.NoError(t, repo.ImportDataset(ctx, good))

	dup := &core.Dataset{Orders: []core.Record{{OrderID: "O2", ProductID: "P1"}, {OrderID: "O2", ProductID: "P1"}}}
	require.Error(t, repo.ImportDataset(ctx, dup))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "O1", got.Orders[0].OrderID)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salesdash.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
