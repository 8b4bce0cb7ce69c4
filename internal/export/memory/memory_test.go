package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"moomoolah/internal/core"
)

func forecast(year, month int, expense string) core.MonthlyForecast {
	return core.MonthlyForecast{
		Month:              core.NewDate(year, month, 1),
		IncomeByCategory:   map[string]decimal.Decimal{},
		ExpensesByCategory: map[string]decimal.Decimal{"Rent": decimal.RequireFromString(expense)},
	}
}

func TestStoreWriteAndList(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.WriteForecast(ctx, forecast(2024, 3, "900"), "EUR")
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected write: ref=%q err=%v", ref, err)
	}
	if _, err := s.WriteForecast(ctx, forecast(2024, 1, "800"), "EUR"); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := s.Forecasts()
	if len(got) != 2 || got[0].Forecast.Key() != "2024-1" || got[1].Forecast.Key() != "2024-3" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestStoreReplacesSameMonth(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.WriteForecast(ctx, forecast(2024, 3, "900"), "EUR"); err != nil {
		t.Fatalf("write: %v", err)
	}
	ref, err := s.WriteForecast(ctx, forecast(2024, 3, "950"), "USD")
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected rewrite: ref=%q err=%v", ref, err)
	}

	if n := len(s.Forecasts()); n != 1 {
		t.Fatalf("expected one record, got %d", n)
	}
	r, ok := s.Get("2024-3")
	if !ok || r.Currency != "USD" || !r.Forecast.TotalExpenses().Equal(decimal.RequireFromString("950")) {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestStoreRejectsBadInput(t *testing.T) {
	s := New()

	if _, err := s.WriteForecast(context.Background(), core.MonthlyForecast{}, "EUR"); err == nil {
		t.Error("expected error for missing month")
	}
	if _, err := s.WriteForecast(context.Background(), forecast(2024, 1, "1"), "XYZ"); !errors.Is(err, core.ErrUnknownCurrency) {
		t.Errorf("expected ErrUnknownCurrency, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.WriteForecast(ctx, forecast(2024, 1, "1"), "EUR"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
