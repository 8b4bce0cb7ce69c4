package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moomoolah/internal/amqp"
	"moomoolah/internal/backend"
	"moomoolah/internal/cli"
	"moomoolah/internal/config"
	"moomoolah/internal/core"
	"moomoolah/internal/log"
	"moomoolah/internal/services"
	"moomoolah/internal/state"
	"moomoolah/internal/worker"
)

// app holds what every command needs.
type app struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *log.Logger
	out     io.Writer
	now     func() time.Time
	store   backend.Store
	cleanup backend.CleanupFunc
	amqp    *amqp.Client
	entries *services.EntryService
}

func newApp(out io.Writer) (*app, error) {
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return openApp(context.Background(), cfg, logger, out, time.Now)
}

// openApp wires the store and, when AMQP_URL is set, the broker. Changes made
// through the entry service are republished when the broker is available.
func openApp(ctx context.Context, cfg *config.Config, logger *log.Logger, out io.Writer, now func() time.Time) (*app, error) {
	store, cleanup, err := cli.OpenStore(ctx, logger, cfg, state.WithClock(now))
	if err != nil {
		return nil, err
	}

	a := &app{
		ctx:     log.WithContext(ctx, logger.WithComponent(log.ComponentCLI)),
		cfg:     cfg,
		logger:  logger,
		out:     out,
		now:     now,
		store:   store,
		cleanup: cleanup,
	}

	client, err := cli.OpenAMQP(ctx, logger, cfg)
	if err != nil {
		// Local changes still work without the broker.
		logger.WarnContext(ctx, "Forecast export unavailable", log.FieldError, err)
	}
	a.amqp = client

	var exporter *services.ForecastExporter
	if client != nil {
		exporter = services.NewForecastExporter(store, client, a.exporterConfig())
	}
	a.entries = services.NewEntryService(store, exporter)
	return a, nil
}

func (a *app) exporterConfig() services.ForecastExporterConfig {
	c := services.DefaultForecastExporterConfig()
	c.Months = a.cfg.ForecastMonths
	return c
}

// publisher returns the broker when connected and otherwise writes straight
// to the export sink.
func (a *app) publisher() (services.Publisher, error) {
	if a.amqp != nil {
		return a.amqp, nil
	}
	writer, err := cli.NewExportWriter(a.ctx, a.logger, a.cfg)
	if err != nil {
		return nil, err
	}
	return worker.DirectPublisher{Worker: worker.NewExportWorker(writer, a.logger)}, nil
}

func (a *app) Close() error {
	var errs []error
	if a.amqp != nil {
		errs = append(errs, a.amqp.Close())
	}
	if a.cleanup != nil {
		errs = append(errs, a.cleanup())
	}
	return errors.Join(errs...)
}

func (a *app) state() (*state.FinancialState, error) {
	return a.entries.State(a.ctx)
}

func (a *app) today() core.Date {
	return core.DateOf(a.now())
}

func parseEntryType(s string) (core.EntryType, error) {
	typ := core.EntryType(strings.ToUpper(strings.TrimSpace(s)))
	if !typ.IsValid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidEntryType, s)
	}
	return typ, nil
}

func parseRecurrenceType(s string) (core.RecurrenceType, error) {
	typ := core.RecurrenceType(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if !typ.IsValid() {
		return "", fmt.Errorf("%w: unknown recurrence %q", core.ErrInvalidRecurrence, s)
	}
	return typ, nil
}

// parseMonth accepts YYYY-MM or a full date and returns the first of that month.
func parseMonth(s string, fallback core.Date) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback.FirstOfMonth(0), nil
	}
	if len(s) == len("2006-01") {
		s += "-01"
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, err
	}
	return d.FirstOfMonth(0), nil
}

// parseAmount reads a plain decimal, or an amount written in the state's
// currency format when it carries the currency symbol.
func parseAmount(text, currency string) (decimal.Decimal, error) {
	if f, ok := core.LookupCurrency(currency); ok && strings.Contains(text, f.Symbol) {
		return f.Parse(text)
	}
	return core.ParseAmount(text)
}
