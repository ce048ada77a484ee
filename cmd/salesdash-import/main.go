// Command salesdash-import copies the dataset of the configured backend
// into a SQLite database, an xlsx workbook or a directory of CSV seeds.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"salesdash/internal/amqp"
	"salesdash/internal/cli"
	"salesdash/internal/config"
	"salesdash/internal/core"
	applog "salesdash/internal/log"
	"salesdash/internal/sheets"
	"salesdash/internal/sheets/memory"
	"salesdash/internal/sheets/xlsx"
)

// Import targets.
const (
	targetSQLite = "sqlite"
	targetXLSX   = "xlsx"
	targetCSV    = "csv"
)

//nolint:gochecknoglobals // Command flags need to be global for cobra
var (
	importTarget string
	importOut    string
	importNotify bool
	importReason string
)

//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "salesdash-import",
	Short: "Copy the configured dataset into another storage format",
	Long: `salesdash-import loads the orders and returns of the backend selected by
DATA_BACKEND and writes them to a SQLite database, an xlsx workbook or a
directory of CSV seeds. The target is replaced, not appended to.

Examples:
  # Seed the SQLite database from the bundled workbook
  DATA_BACKEND=xlsx salesdash-import --target sqlite --out ./data/salesdash.db

  # Export Google Sheets data to CSV seeds and ask running servers to reload
  DATA_BACKEND=sheets salesdash-import --target csv --out ./data --notify`,
	RunE: runImport,
}

func init() {
	rootCmd.Flags().StringVar(&importTarget, "target", targetSQLite, "Target format: sqlite, xlsx or csv")
	rootCmd.Flags().StringVar(&importOut, "out", "", "Target path (defaults to SQLITE_DB_PATH, DATA_FILE or DATA_DIR)")
	rootCmd.Flags().BoolVar(&importNotify, "notify", false, "Publish a reload request once the import succeeds")
	rootCmd.Flags().StringVar(&importReason, "reason", "import", "Reason attached to the reload request")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentImport)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	source := cli.CreateBackend(ctx, logger, cfg)
	defer source.Close()

	start := time.Now()
	ds, err := source.Backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s dataset: %w", cfg.DataBackend, err)
	}

	out := importOut
	if out == "" {
		out = defaultOut(cfg, importTarget)
	}
	if err := writeDataset(ctx, logger, importTarget, out, ds); err != nil {
		return err
	}
	logger.Info("Import complete",
		applog.FieldBackend, cfg.DataBackend,
		"target", importTarget,
		"out", out,
		applog.FieldRows, ds.Len(),
		"returns", len(ds.Returns),
		"duration", time.Since(start))

	if importNotify {
		return notify(ctx, logger, cfg, importReason)
	}
	return nil
}

func defaultOut(cfg *config.Config, target string) string {
	switch target {
	case targetXLSX:
		return cfg.DataFile
	case targetCSV:
		return cfg.DataDir
	default:
		return cfg.SQLiteDBPath
	}
}

// writeDataset replaces the contents of the target at out with ds.
func writeDataset(ctx context.Context, logger *slog.Logger, target, out string, ds *core.Dataset) error {
	var w sheets.DatasetWriter
	switch target {
	case targetSQLite:
		repo := cli.InitSQLite(logger, out)
		defer repo.Close()
		w = repo
	case targetXLSX:
		w = xlsx.New(out, sheets.DefaultOrdersSheet, sheets.DefaultReturnsSheet)
	case targetCSV:
		if err := memory.WriteCSV(out, ds); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown target %q (use sqlite, xlsx or csv)", target)
	}
	if err := w.ImportDataset(ctx, ds); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

func notify(ctx context.Context, logger *slog.Logger, cfg *config.Config, reason string) error {
	if !cfg.AMQPEnabled() {
		logger.Warn("Reload notification skipped - no AMQP_URL provided")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	msg := amqp.NewReloadMessage("salesdash-import", reason)
	if err := client.PublishReload(ctx, msg); err != nil {
		return fmt.Errorf("publish reload request: %w", err)
	}
	logger.Info("Reload requested", "message_id", msg.ID)
	return nil
}
