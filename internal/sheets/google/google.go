package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"salesdash/internal/core"
	ports "salesdash/internal/sheets"
)

// Ensure interface conformance
var _ ports.DatasetLoader = (*Client)(nil)

// Options configures a Sheets client.
type Options struct {
	SpreadsheetID string
	OrdersSheet   string
	ReturnsSheet  string
	// Service account credentials; JSON takes precedence over File.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ordersSheet   string
	returnsSheet  string
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional sheet names: ORDERS_SHEET_NAME (default "Orders"),
// RETURNS_SHEET_NAME (default "Returns").
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Options{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		OrdersSheet:     os.Getenv("ORDERS_SHEET_NAME"),
		ReturnsSheet:    os.Getenv("RETURNS_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	orders := strings.TrimSpace(opts.OrdersSheet)
	if orders == "" {
		orders = ports.DefaultOrdersSheet
	}
	returns := strings.TrimSpace(opts.ReturnsSheet)
	if returns == "" {
		returns = ports.DefaultReturnsSheet
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, ordersSheet: orders, returnsSheet: returns}, nil
}

// newSheetsService initializes a read-only Sheets Service using Service
// Account credentials, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Load reads the orders and returns sheets concurrently and joins them.
func (c *Client) Load(ctx context.Context) (*core.Dataset, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	var orders, returns [][]any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = c.readSheet(gctx, c.ordersSheet)
		return err
	})
	g.Go(func() (err error) {
		returns, err = c.readSheet(gctx, c.returnsSheet)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return datasetFromValues(orders, returns)
}

func (c *Client) readSheet(ctx context.Context, sheetName string) ([][]any, error) {
	rng := fmt.Sprintf("'%s'", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// datasetFromValues converts the value matrices returned by the Sheets API.
// The first row of each matrix is its header. An empty returns sheet is
// allowed.
func datasetFromValues(orders, returns [][]any) (*core.Dataset, error) {
	if len(orders) == 0 {
		return nil, errors.New("orders sheet is empty")
	}
	records, err := ports.ParseOrders(ports.ToStrings(orders[0]), toRows(orders[1:]))
	if err != nil {
		return nil, fmt.Errorf("orders sheet: %w", err)
	}
	index := map[string]bool{}
	if len(returns) > 0 {
		index, err = ports.ParseReturns(ports.ToStrings(returns[0]), toRows(returns[1:]))
		if err != nil {
			return nil, fmt.Errorf("returns sheet: %w", err)
		}
	}
	return core.NewDataset(records, index), nil
}

func toRows(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = ports.ToStrings(row)
	}
	return out
}
