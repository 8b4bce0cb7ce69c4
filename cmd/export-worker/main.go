package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"moomoolah/internal/amqp"
	"moomoolah/internal/cli"
	"moomoolah/internal/config"
	"moomoolah/internal/log"
	"moomoolah/internal/services"
	"moomoolah/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting export-worker")

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		os.Exit(1)
	}
	if !cfg.ExportEnabled() {
		logger.Error("AMQP_URL is required to run the export worker")
		os.Exit(1)
	}

	if err := run(logger, cfg); err != nil {
		logger.Error("Export worker stopped", log.FieldError, err)
		os.Exit(1)
	}
}

func run(logger *log.Logger, cfg *config.Config) error {
	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)
	ctx = log.WithContext(ctx, logger.WithComponent(log.ComponentWorker))

	writer, err := cli.NewExportWriter(ctx, logger, cfg)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	exportWorker := worker.NewExportWorker(writer, logger.WithComponent(log.ComponentWorker))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exportWorker.Run(gctx, client)
	})
	g.Go(func() error {
		return publishOnStartup(gctx, logger, cfg, client)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Export worker finished",
		"exported", exportWorker.Exported(),
		"skipped", exportWorker.Skipped())
	return nil
}

// publishOnStartup queues the current forecast so the sink is fresh even when
// no change has been made since the last run. Failure is logged, not fatal.
func publishOnStartup(ctx context.Context, logger *log.Logger, cfg *config.Config, publisher services.Publisher) error {
	store, cleanup, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		logger.WarnContext(ctx, "Skipping startup export", log.FieldError, err)
		return nil
	}
	defer cleanup()

	exporter := services.NewForecastExporter(store, publisher, services.ForecastExporterConfig{Months: cfg.ForecastMonths})
	result, err := exporter.ExportNext(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		return nil
	case err != nil:
		logger.WarnContext(ctx, "Startup export failed", log.FieldError, err)
	default:
		logger.InfoContext(ctx, "Queued startup export", log.FieldMonths, len(result.Keys), log.FieldCurrency, result.Currency)
	}
	return nil
}
