package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"time"

	"salesdash/internal/amqp"
	"salesdash/internal/cli"
	apphttp "salesdash/internal/http"
	applog "salesdash/internal/log"
	"salesdash/internal/services"
	"salesdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	source := cli.CreateBackend(startupCtx, logger, cfg)
	defer source.Close()

	orders := services.NewOrderService(source.Backend, applog.WithComponent(logger, applog.ComponentOrders))
	res, err := orders.Reload(startupCtx, services.TriggerStartup)
	cancelStartup()
	if err != nil {
		logger.Error("Initial dataset load failed", "error", err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	logger.Info("Dataset loaded", applog.FieldRows, res.Rows, applog.FieldBackend, cfg.DataBackend, "duration", res.Duration)

	srv := apphttp.NewServer(":"+cfg.Port, orders, apphttp.Options{
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	cli.OnSignal(ctx, syscall.SIGHUP, func() {
		if _, err := orders.Reload(ctx, services.TriggerSignal); err != nil {
			logger.Error("Reload on SIGHUP failed", "error", err)
		}
	})

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		reloads := worker.NewReloadWorker(orders, logger)
		go func() {
			if err := reloads.Run(ctx, client); err != nil {
				logger.Error("Reload worker stopped", "error", err)
			}
		}()
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	logger.Info("Starting salesdash server", "port", cfg.Port, applog.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
