package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"moomoolah/internal/amqp"
	"moomoolah/internal/core"
	"moomoolah/internal/state"
)

type (
	// StateLoader loads the persisted financial state.
	StateLoader interface {
		Load(ctx context.Context) (*state.FinancialState, error)
	}

	// Publisher hands one forecast message to the export pipeline.
	Publisher interface {
		PublishForecast(ctx context.Context, msg *amqp.ForecastMessage) error
	}

	// BatchPublisher is implemented by publishers that take a whole run of
	// months at once.
	BatchPublisher interface {
		PublishForecasts(ctx context.Context, msgs []*amqp.ForecastMessage) error
	}
)

var ErrNoPublisher = errors.New("no forecast publisher configured")

// ForecastExporterConfig holds configuration for the forecast exporter
type ForecastExporterConfig struct {
	// Months is how many months ExportNext publishes, starting with the current one (default: 12)
	Months int

	// Concurrency bounds how many messages are built in parallel (default: 4)
	Concurrency int
}

// DefaultForecastExporterConfig returns sensible defaults
func DefaultForecastExporterConfig() ForecastExporterConfig {
	return ForecastExporterConfig{
		Months:      12,
		Concurrency: 4,
	}
}

// ExportResult describes one export run.
type ExportResult struct {
	Currency string
	Keys     []string
}

// ForecastExporter computes forecasts from the stored state and publishes one
// message per month.
type ForecastExporter struct {
	store     StateLoader
	publisher Publisher
	config    ForecastExporterConfig
}

func NewForecastExporter(store StateLoader, publisher Publisher, config ForecastExporterConfig) *ForecastExporter {
	defaults := DefaultForecastExporterConfig()
	if config.Months <= 0 {
		config.Months = defaults.Months
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	return &ForecastExporter{
		store:     store,
		publisher: publisher,
		config:    config,
	}
}

// ExportNext publishes the configured number of months starting with the
// current month.
func (e *ForecastExporter) ExportNext(ctx context.Context) (ExportResult, error) {
	s, err := e.store.Load(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("load state: %w", err)
	}
	return e.ExportState(ctx, s, s.CurrentMonth(), e.config.Months)
}

// ExportRange publishes months consecutive months starting at start.
func (e *ForecastExporter) ExportRange(ctx context.Context, start core.Date, months int) (ExportResult, error) {
	s, err := e.store.Load(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("load state: %w", err)
	}
	return e.ExportState(ctx, s, start, months)
}

// ExportState publishes forecasts computed from an already loaded state.
func (e *ForecastExporter) ExportState(ctx context.Context, s *state.FinancialState, start core.Date, months int) (ExportResult, error) {
	if e.publisher == nil {
		return ExportResult{}, ErrNoPublisher
	}

	series, err := s.ForecastRange(start, months)
	if err != nil {
		return ExportResult{}, fmt.Errorf("compute forecast: %w", err)
	}

	currency := s.CurrencyCode()
	msgs, err := e.buildMessages(ctx, series, currency)
	if err != nil {
		return ExportResult{}, err
	}

	if batch, ok := e.publisher.(BatchPublisher); ok {
		if err := batch.PublishForecasts(ctx, msgs); err != nil {
			return ExportResult{}, fmt.Errorf("publish forecasts: %w", err)
		}
	} else {
		for _, msg := range msgs {
			if err := e.publisher.PublishForecast(ctx, msg); err != nil {
				return ExportResult{}, fmt.Errorf("publish forecast %s: %w", msg.Key, err)
			}
		}
	}

	slog.InfoContext(ctx, "Exported forecasts",
		"months", len(msgs),
		"currency", currency,
		"first", series.Keys()[0])

	return ExportResult{Currency: currency, Keys: series.Keys()}, nil
}

// buildMessages converts and validates each month concurrently, keeping
// series order.
func (e *ForecastExporter) buildMessages(ctx context.Context, series state.ForecastSeries, currency string) ([]*amqp.ForecastMessage, error) {
	msgs := make([]*amqp.ForecastMessage, len(series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Concurrency)
	for i, f := range series {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			msg := amqp.NewForecastMessage(f, currency)
			if err := msg.Validate(); err != nil {
				return fmt.Errorf("forecast %s: %w", f.Key(), err)
			}
			msgs[i] = msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return msgs, nil
}
