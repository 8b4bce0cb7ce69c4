package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moomoolah/internal/amqp"
	"moomoolah/internal/core"
	"moomoolah/internal/state"
)

var testClock = state.WithClock(func() time.Time {
	return time.Date(2024, 10, 15, 9, 0, 0, 0, time.UTC)
})

// memStore round-trips the state through its JSON form like the file store.
type memStore struct {
	data    []byte
	saves   int
	loadErr error
	saveErr error
}

func (m *memStore) Load(_ context.Context) (*state.FinancialState, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return state.New(testClock), nil
	}
	return state.Decode(m.data, testClock)
}

func (m *memStore) Save(_ context.Context, s *state.FinancialState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	m.data = data
	m.saves++
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) PublishForecast(_ context.Context, msg *amqp.ForecastMessage) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, msg.Key)
	return nil
}

type batchPublisher struct {
	recordingPublisher
	batches int
}

func (p *batchPublisher) PublishForecasts(ctx context.Context, msgs []*amqp.ForecastMessage) error {
	p.batches++
	for _, msg := range msgs {
		if err := p.PublishForecast(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func salary() core.FinancialEntry {
	return core.FinancialEntry{
		Amount:      decimal.RequireFromString("3000"),
		Description: "Salary",
		Type:        core.Income,
		Category:    "Job",
		Recurrence:  core.NewRecurrence(core.Monthly, core.NewDate(2024, 1, 1), 1),
	}
}

func rent() core.FinancialEntry {
	return core.FinancialEntry{
		Amount:      decimal.RequireFromString("1200.50"),
		Description: "Rent",
		Type:        core.Expense,
		Category:    "Housing",
		Recurrence:  core.NewRecurrence(core.Monthly, core.NewDate(2024, 1, 1), 1),
	}
}

func TestForecastExporter_ExportNext(t *testing.T) {
	store := &memStore{}
	s := state.New(testClock)
	require.NoError(t, s.AddEntry(salary()))
	require.NoError(t, store.Save(context.Background(), s))

	pub := &recordingPublisher{}
	exporter := NewForecastExporter(store, pub, ForecastExporterConfig{Months: 4, Concurrency: 2})

	result, err := exporter.ExportNext(context.Background())
	require.NoError(t, err)

	want := []string{"2024-10", "2024-11", "2024-12", "2025-1"}
	assert.Equal(t, want, result.Keys)
	assert.Equal(t, want, pub.keys, "messages are published in month order")
	assert.Equal(t, "EUR", result.Currency)
}

func TestForecastExporter_ExportRangeUsesBatch(t *testing.T) {
	store := &memStore{}
	pub := &batchPublisher{}
	exporter := NewForecastExporter(store, pub, ForecastExporterConfig{})

	result, err := exporter.ExportRange(context.Background(), core.NewDate(2023, 11, 20), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-11", "2023-12", "2024-1"}, result.Keys)
	assert.Equal(t, 1, pub.batches)
	assert.Len(t, pub.keys, 3)
}

func TestForecastExporter_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no publisher", func(t *testing.T) {
		_, err := NewForecastExporter(&memStore{}, nil, DefaultForecastExporterConfig()).ExportNext(ctx)
		assert.ErrorIs(t, err, ErrNoPublisher)
	})

	t.Run("load failure", func(t *testing.T) {
		store := &memStore{loadErr: state.ErrFileAccess}
		_, err := NewForecastExporter(store, &recordingPublisher{}, DefaultForecastExporterConfig()).ExportNext(ctx)
		assert.ErrorIs(t, err, state.ErrFileAccess)
	})

	t.Run("invalid month count", func(t *testing.T) {
		_, err := NewForecastExporter(&memStore{}, &recordingPublisher{}, DefaultForecastExporterConfig()).
			ExportRange(ctx, core.NewDate(2024, 1, 1), 0)
		assert.ErrorIs(t, err, state.ErrInvalidArgument)
	})

	t.Run("publish failure", func(t *testing.T) {
		pub := &recordingPublisher{err: amqp.ErrCircuitOpen}
		_, err := NewForecastExporter(&memStore{}, pub, DefaultForecastExporterConfig()).ExportNext(ctx)
		assert.ErrorIs(t, err, amqp.ErrCircuitOpen)
	})
}

func TestEntryService_Mutations(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	svc := NewEntryService(store, nil)

	require.NoError(t, svc.AddEntry(ctx, salary()))
	require.NoError(t, svc.AddEntry(ctx, rent()))
	require.NoError(t, svc.AddCategory(ctx, core.Expense, "Travel"))
	require.NoError(t, svc.SetCurrency(ctx, "USD"))
	assert.Equal(t, 4, store.saves)

	fs, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", fs.CurrencyCode())
	assert.Equal(t, []string{"Housing", "Travel"}, fs.ExpenseCategories())

	updated := rent()
	updated.Amount = decimal.RequireFromString("1300")
	require.NoError(t, svc.UpdateEntry(ctx, core.Expense, 0, updated))

	removed, err := svc.RemoveEntryAt(ctx, core.Expense, 0)
	require.NoError(t, err)
	assert.True(t, removed.Equal(updated))

	fs, err = svc.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, fs.ExpenseEntries())
	assert.Len(t, fs.IncomeEntries(), 1)
}

func TestEntryService_FailedChangeIsNotSaved(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	svc := NewEntryService(store, nil)

	_, err := svc.RemoveEntryAt(ctx, core.Income, 3)
	assert.ErrorIs(t, err, state.ErrEntryNotFound)

	err = svc.SetCurrency(ctx, "XYZ")
	assert.ErrorIs(t, err, core.ErrUnknownCurrency)

	assert.Zero(t, store.saves)
}

func TestEntryService_SaveFailure(t *testing.T) {
	store := &memStore{saveErr: state.ErrFileAccess}
	pub := &recordingPublisher{}
	exporter := NewForecastExporter(store, pub, ForecastExporterConfig{Months: 2})
	svc := NewEntryService(store, exporter)

	err := svc.AddEntry(context.Background(), salary())
	assert.ErrorIs(t, err, state.ErrFileAccess)
	assert.Empty(t, pub.keys, "nothing is published when the save fails")
}

func TestEntryService_RepublishesAfterSave(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	pub := &recordingPublisher{}
	exporter := NewForecastExporter(store, pub, ForecastExporterConfig{Months: 2})
	svc := NewEntryService(store, exporter)

	require.NoError(t, svc.AddEntry(ctx, rent()))
	assert.Equal(t, []string{"2024-10", "2024-11"}, pub.keys)

	pub.err = errors.New("broker down")
	assert.NoError(t, svc.AddEntry(ctx, salary()), "publish failures do not fail the change")
	assert.Equal(t, 2, store.saves)
}
