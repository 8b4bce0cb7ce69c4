package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"moomoolah/internal/core"
	"moomoolah/internal/export"
)

var _ export.ForecastWriter = (*Store)(nil)

// Record is one stored forecast.
type Record struct {
	Forecast core.MonthlyForecast
	Currency string
	Ref      string
}

// Store keeps exported forecasts in memory, one per month key.
type Store struct {
	mu     sync.Mutex
	writes int
	byKey  map[string]Record
}

func New() *Store {
	return &Store{byKey: map[string]Record{}}
}

// WriteForecast stores f, replacing any earlier forecast for the same month,
// and returns a synthetic reference.
func (s *Store) WriteForecast(ctx context.Context, f core.MonthlyForecast, currency string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Month.IsEmpty() {
		return "", fmt.Errorf("forecast has no month")
	}
	if !core.IsKnownCurrency(currency) {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownCurrency, currency)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	ref := fmt.Sprintf("mem:%d", s.writes)
	s.byKey[f.Key()] = Record{Forecast: f, Currency: currency, Ref: ref}
	return ref, nil
}

// Forecasts returns the stored records ordered by month.
func (s *Store) Forecasts() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.byKey))
	for _, r := range s.byKey {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Forecast.Month.Time.Before(out[j].Forecast.Month.Time)
	})
	return out
}

// Get returns the record stored for a month key.
func (s *Store) Get(key string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byKey[key]
	return r, ok
}
