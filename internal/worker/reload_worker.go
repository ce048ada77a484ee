// Package worker handles dataset reload requests arriving over AMQP.
package worker

import (
	"context"
	"log/slog"

	"salesdash/internal/amqp"
	applog "salesdash/internal/log"
	"salesdash/internal/services"
)

// Reloader replaces the served dataset with a fresh load from its source.
type Reloader interface {
	Reload(ctx context.Context, trigger string) (services.ReloadResult, error)
}

// ReloadWorker turns reload messages into dataset reloads.
type ReloadWorker struct {
	orders Reloader
	logger *slog.Logger
}

func NewReloadWorker(orders Reloader, logger *slog.Logger) *ReloadWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadWorker{orders: orders, logger: applog.WithComponent(logger, applog.ComponentAMQP)}
}

// HandleReloadMessage reloads the dataset for msg. A failed reload is logged
// and acknowledged, leaving the previous dataset in place. Only cancellation
// is returned, which requeues the message.
func (w *ReloadWorker) HandleReloadMessage(ctx context.Context, msg *amqp.ReloadMessage) error {
	w.logger.InfoContext(ctx, "Processing reload message",
		"message_id", msg.ID,
		"source", msg.Source,
		"reason", msg.Reason)

	res, err := w.orders.Reload(ctx, services.TriggerAMQP)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.ErrorContext(ctx, "Reload request failed",
			"message_id", msg.ID,
			"source", msg.Source,
			"error", err)
		return nil
	}

	w.logger.InfoContext(ctx, "Dataset reloaded on request",
		"message_id", msg.ID,
		applog.FieldRows, res.Rows,
		applog.FieldVersion, res.Version,
		"duration", res.Duration)
	return nil
}

// Consumer delivers reload messages to a handler until ctx is done.
type Consumer interface {
	ConsumeReload(ctx context.Context, handler amqp.ReloadHandler) error
}

// Run consumes reload messages until ctx is cancelled.
func (w *ReloadWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Reload worker started")
	err := consumer.ConsumeReload(ctx, w.HandleReloadMessage)
	if ctx.Err() != nil {
		w.logger.InfoContext(ctx, "Reload worker stopped")
		return nil
	}
	return err
}
