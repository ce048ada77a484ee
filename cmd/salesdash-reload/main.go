// Command salesdash-reload asks running salesdash servers to reload their
// dataset by publishing a reload request to the AMQP queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"salesdash/internal/amqp"
	"salesdash/internal/cli"
	applog "salesdash/internal/log"
)

const source = "salesdash-reload"

//nolint:gochecknoglobals // Command flags need to be global for cobra
var (
	reloadReason  string
	reloadTimeout time.Duration
)

//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "salesdash-reload",
	Short: "Request a dataset reload from running servers",
	Long: `salesdash-reload publishes a reload request to the exchange and queue
configured by AMQP_URL, AMQP_EXCHANGE and AMQP_QUEUE. Every server consuming
the queue reloads its dataset from its configured backend.

Example:
  salesdash-reload --reason "returns sheet updated"`,
	RunE: runReload,
}

func init() {
	rootCmd.Flags().StringVar(&reloadReason, "reason", "", "Free-text reason recorded with the request")
	rootCmd.Flags().DurationVar(&reloadTimeout, "timeout", 10*time.Second, "Time allowed for connecting and publishing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var errAMQPDisabled = errors.New("AMQP_URL is not set")

func runReload(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentAMQP)

	if !cfg.AMQPEnabled() {
		return errAMQPDisabled
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), reloadTimeout)
	defer cancel()

	msg, err := publish(ctx, client, reloadReason)
	if err != nil {
		return err
	}
	logger.Info("Reload requested",
		"message_id", msg.ID,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"reason", msg.Reason)
	return nil
}

type reloadPublisher interface {
	PublishReload(ctx context.Context, msg *amqp.ReloadMessage) error
}

func publish(ctx context.Context, p reloadPublisher, reason string) (*amqp.ReloadMessage, error) {
	msg := amqp.NewReloadMessage(source, reason)
	if err := p.PublishReload(ctx, msg); err != nil {
		return nil, fmt.Errorf("publish reload request: %w", err)
	}
	return msg, nil
}
