package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"moomoolah/internal/amqp"
	"moomoolah/internal/cache"
	"moomoolah/internal/core"
	"moomoolah/internal/export"
	"moomoolah/internal/log"
)

// Consumer delivers forecast messages until its context ends.
type Consumer interface {
	ConsumeForecasts(ctx context.Context, handler func(context.Context, *amqp.ForecastMessage) error) error
}

const (
	latestCacheSize = 1024
	latestCacheTTL  = 24 * time.Hour
)

// ExportWorker writes forecast messages to an export sink. A message older
// than the last one written for the same month is skipped, so redelivered
// messages cannot overwrite newer figures.
type ExportWorker struct {
	writer export.ForecastWriter
	log    *log.StructuredLogger

	mu     sync.Mutex
	latest cache.Cache[time.Time]

	exported atomic.Int64
	skipped  atomic.Int64
}

// NewExportWorker creates a worker. A nil logger falls back to the default.
func NewExportWorker(writer export.ForecastWriter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &ExportWorker{
		writer: writer,
		log:    log.NewStructuredLogger(logger),
		latest: cache.NewLRUCache[time.Time](latestCacheSize, latestCacheTTL),
	}
}

// Run consumes messages until ctx ends, which is a clean stop.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	err := consumer.ConsumeForecasts(ctx, w.HandleForecastMessage)
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}

// HandleForecastMessage writes a single forecast message to the sink.
func (w *ExportWorker) HandleForecastMessage(ctx context.Context, msg *amqp.ForecastMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	undo, ok := w.claim(msg)
	if !ok {
		w.skipStale(ctx, msg)
		return nil
	}

	ref, err := w.writer.WriteForecast(ctx, msg.ToForecast(), msg.Currency)
	if err != nil {
		undo()
		w.log.LogError(ctx, "Failed to export forecast", err, log.ComponentWorker, log.OpExport,
			log.NewFields().WithForecast(msg.Key, msg.Currency, msg.Balance.String()))
		return fmt.Errorf("write forecast %s: %w", msg.Key, err)
	}

	w.exported.Add(1)
	w.log.LogForecastExported(ctx, msg.Key, msg.Currency, msg.Balance.String(), ref)
	return nil
}

// HandleForecastBatch writes msgs, in one round trip when the sink supports
// it and all messages share a currency.
func (w *ExportWorker) HandleForecastBatch(ctx context.Context, msgs []*amqp.ForecastMessage) error {
	batch, ok := w.writer.(export.BatchWriter)
	if !ok || len(msgs) == 0 || !sameCurrency(msgs) {
		for _, msg := range msgs {
			if err := w.HandleForecastMessage(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	}

	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return err
		}
	}

	var (
		claimed   []*amqp.ForecastMessage
		undo      []func()
		forecasts []core.MonthlyForecast
	)
	for _, msg := range msgs {
		restore, ok := w.claim(msg)
		if !ok {
			w.skipStale(ctx, msg)
			continue
		}
		claimed = append(claimed, msg)
		undo = append(undo, restore)
		forecasts = append(forecasts, msg.ToForecast())
	}
	if len(forecasts) == 0 {
		return nil
	}

	written, err := batch.WriteForecasts(ctx, forecasts, msgs[0].Currency)
	w.exported.Add(int64(written))
	if err != nil {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		w.log.LogError(ctx, "Failed to export forecast batch", err, log.ComponentWorker, log.OpExport, nil)
		return fmt.Errorf("write %d forecasts: %w", len(forecasts), err)
	}

	for _, msg := range claimed {
		w.log.LogForecastExported(ctx, msg.Key, msg.Currency, msg.Balance.String(), "batch")
	}
	return nil
}

// Exported returns how many forecasts were written.
func (w *ExportWorker) Exported() int64 {
	return w.exported.Load()
}

// Skipped returns how many stale messages were dropped.
func (w *ExportWorker) Skipped() int64 {
	return w.skipped.Load()
}

// claim records msg as the latest for its month unless a newer one was
// already written. undo puts back the previous record if msg is still the
// latest.
func (w *ExportWorker) claim(msg *amqp.ForecastMessage) (undo func(), ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev, hadPrev := w.latest.Get(msg.Key)
	if hadPrev && msg.Timestamp.Before(prev) {
		return nil, false
	}
	w.latest.Set(msg.Key, msg.Timestamp)

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if last, ok := w.latest.Get(msg.Key); !ok || !last.Equal(msg.Timestamp) {
			return
		}
		if hadPrev {
			w.latest.Set(msg.Key, prev)
		} else {
			w.latest.Delete(msg.Key)
		}
	}, true
}

func (w *ExportWorker) skipStale(ctx context.Context, msg *amqp.ForecastMessage) {
	w.skipped.Add(1)
	log.FromContext(ctx).WithComponent(log.ComponentWorker).DebugContext(ctx, "Skipping stale forecast message",
		log.FieldMonthKey, msg.Key,
		"timestamp", msg.Timestamp)
}

func sameCurrency(msgs []*amqp.ForecastMessage) bool {
	for _, msg := range msgs[1:] {
		if msg.Currency != msgs[0].Currency {
			return false
		}
	}
	return true
}

// DirectPublisher hands messages straight to a worker, for running without a
// broker.
type DirectPublisher struct {
	Worker *ExportWorker
}

func (p DirectPublisher) PublishForecast(ctx context.Context, msg *amqp.ForecastMessage) error {
	return p.Worker.HandleForecastMessage(ctx, msg)
}

func (p DirectPublisher) PublishForecasts(ctx context.Context, msgs []*amqp.ForecastMessage) error {
	return p.Worker.HandleForecastBatch(ctx, msgs)
}
