// Package cli provides common initialization utilities shared by
// cmd/moomoolah and cmd/export-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moomoolah/internal/amqp"
	"moomoolah/internal/backend"
	"moomoolah/internal/config"
	"moomoolah/internal/export"
	"moomoolah/internal/export/elasticsearch"
	"moomoolah/internal/export/google"
	"moomoolah/internal/export/memory"
	"moomoolah/internal/log"
	"moomoolah/internal/state"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger. Unknown levels fall back to info.
func SetupLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	cfg := log.DefaultConfig()
	cfg.Level = lvl

	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", "error", err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig(logger *log.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		return nil, err
	}
	return cfg, nil
}

// OpenStore creates the configured state store. The returned cleanup closes it.
func OpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config, opts ...state.Option) (backend.Store, backend.CleanupFunc, error) {
	backendCfg, err := backend.FromAppConfig(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}

	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize backend",
			log.FieldBackend, cfg.DataBackend,
			log.FieldError, err)
		return nil, nil, err
	}
	return result.Store, result.Cleanup, nil
}

// OpenAMQP connects to the broker when AMQP_URL is set. It returns nil
// without error when export is disabled.
func OpenAMQP(ctx context.Context, logger *log.Logger, cfg *config.Config) (*amqp.Client, error) {
	if !cfg.ExportEnabled() {
		logger.DebugContext(ctx, "AMQP disabled, forecasts are exported in process")
		return nil, nil
	}
	client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	return client, nil
}

// NewExportWriter builds the sink selected by EXPORT_SINK.
func NewExportWriter(ctx context.Context, logger *log.Logger, cfg *config.Config) (export.ForecastWriter, error) {
	logger.InfoContext(ctx, "Initializing export sink", log.FieldSink, cfg.ExportSink)

	switch cfg.ExportSink {
	case "memory":
		return memory.New(), nil
	case "sheets":
		w, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("google sheets sink: %w", err)
		}
		return w, nil
	case "elasticsearch":
		w, err := elasticsearch.New(elasticsearch.Config{
			Addresses: cfg.ElasticsearchURLs,
			Index:     cfg.ElasticsearchIndex,
		})
		if err != nil {
			return nil, fmt.Errorf("elasticsearch sink: %w", err)
		}
		if err := w.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("elasticsearch sink: %w", err)
		}
		return w, nil
	default:
		return nil, fmt.Errorf("unknown export sink %q", cfg.ExportSink)
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
