package sheets

import (
	"context"

	"salesdash/internal/core"
)

// Ports for outbound adapters.
type (
	// DatasetLoader reads the full orders table and returns index from a source.
	DatasetLoader interface {
		Load(ctx context.Context) (*core.Dataset, error)
	}

	// DatasetWriter replaces the contents of a source with ds.
	DatasetWriter interface {
		ImportDataset(ctx context.Context, ds *core.Dataset) error
	}
)

// Default sheet names of the Superstore workbook.
const (
	DefaultOrdersSheet  = "Orders"
	DefaultReturnsSheet = "Returns"
)
