package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/shopspring/decimal"

	"moomoolah/internal/core"
	"moomoolah/internal/export"
)

const (
	DefaultIndex = "moomoolah-forecasts"

	esFlush   = 2048
	esWorkers = 2
)

var (
	_ export.ForecastWriter = (*Writer)(nil)
	_ export.BatchWriter    = (*Writer)(nil)
)

type Config struct {
	Addresses []string
	Index     string
}

// Writer indexes forecasts as one document per month, keyed by month key.
type Writer struct {
	es    *elasticsearch.Client
	index string
}

// New creates a Writer. No request is made until the first write.
func New(cfg Config) (*Writer, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("at least one Elasticsearch address is required")
	}
	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}

	retryBackoff := backoff.NewExponentialBackOff()

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,

		// Retry on 429 TooManyRequests statuses
		RetryOnStatus: []int{502, 503, 504, 429},

		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},

		MaxRetries: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &Writer{es: es, index: index}, nil
}

// EnsureIndex creates the index when it does not exist yet.
func (w *Writer) EnsureIndex(ctx context.Context) error {
	res, err := w.es.Indices.Create(w.index, w.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("create index %s: %w", w.index, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("create index %s: %s", w.index, res.Status())
	}
	// 400 is resource_already_exists_exception
	slog.DebugContext(ctx, "Elasticsearch index ready", "index", w.index, "status", res.StatusCode)
	return nil
}

// WriteForecast indexes one forecast and returns "<index>/<id>".
func (w *Writer) WriteForecast(ctx context.Context, f core.MonthlyForecast, currency string) (string, error) {
	data, err := forecastDocument(f, currency, time.Now())
	if err != nil {
		return "", err
	}

	res, err := w.es.Index(
		w.index,
		bytes.NewReader(data),
		w.es.Index.WithDocumentID(f.Key()),
		w.es.Index.WithContext(ctx),
	)
	if err != nil {
		return "", fmt.Errorf("index forecast %s: %w", f.Key(), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("index forecast %s: %s: %s", f.Key(), res.Status(), bytes.TrimSpace(body))
	}
	return w.index + "/" + f.Key(), nil
}

// WriteForecasts indexes fs through the bulk API and returns how many
// documents were stored.
func (w *Writer) WriteForecasts(ctx context.Context, fs []core.MonthlyForecast, currency string) (int, error) {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         w.index,
		FlushBytes:    esFlush,
		Client:        w.es,
		NumWorkers:    esWorkers,
		FlushInterval: 10 * time.Second,
	})
	if err != nil {
		return 0, fmt.Errorf("create bulk indexer: %w", err)
	}

	now := time.Now()
	for _, f := range fs {
		data, err := forecastDocument(f, currency, now)
		if err != nil {
			bi.Close(ctx)
			return 0, err
		}

		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: f.Key(),
			Body:       bytes.NewReader(data),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					slog.ErrorContext(ctx, "Failed to index forecast", "month_key", item.DocumentID, "error", err)
				} else {
					slog.ErrorContext(ctx, "Failed to index forecast",
						"month_key", item.DocumentID,
						"error_type", res.Error.Type,
						"reason", res.Error.Reason)
				}
			},
		})
		if err != nil {
			bi.Close(ctx)
			return 0, fmt.Errorf("queue forecast %s: %w", f.Key(), err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return 0, fmt.Errorf("flush bulk indexer: %w", err)
	}

	stats := bi.Stats()
	written := int(stats.NumFlushed - stats.NumFailed)
	if stats.NumFailed > 0 {
		return written, fmt.Errorf("failed indexing %d of %d forecasts", stats.NumFailed, len(fs))
	}
	slog.InfoContext(ctx, "Indexed forecasts", "index", w.index, "count", written)
	return written, nil
}

type categoryAmount struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

type document struct {
	Key           string           `json:"key"`
	Month         string           `json:"month"`
	Currency      string           `json:"currency"`
	Income        []categoryAmount `json:"income"`
	Expenses      []categoryAmount `json:"expenses"`
	TotalIncome   json.Number      `json:"total_income"`
	TotalExpenses json.Number      `json:"total_expenses"`
	Balance       json.Number      `json:"balance"`
	ExportedAt    time.Time        `json:"exported_at"`
}

// forecastDocument renders f as an index document. Amounts are JSON numbers
// carrying the exact decimal text.
func forecastDocument(f core.MonthlyForecast, currency string, exportedAt time.Time) ([]byte, error) {
	if f.Month.IsEmpty() {
		return nil, errors.New("forecast has no month")
	}
	if !core.IsKnownCurrency(currency) {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCurrency, currency)
	}

	doc := document{
		Key:           f.Key(),
		Month:         f.Month.String(),
		Currency:      currency,
		Income:        amounts(f.IncomeCategories(), f.IncomeByCategory),
		Expenses:      amounts(f.ExpenseCategories(), f.ExpensesByCategory),
		TotalIncome:   number(f.TotalIncome()),
		TotalExpenses: number(f.TotalExpenses()),
		Balance:       number(f.Balance()),
		ExportedAt:    exportedAt.UTC(),
	}
	return json.Marshal(doc)
}

func amounts(categories []string, m map[string]decimal.Decimal) []categoryAmount {
	out := make([]categoryAmount, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryAmount{Category: c, Amount: number(m[c])})
	}
	return out
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
