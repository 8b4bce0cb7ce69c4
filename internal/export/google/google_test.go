package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moomoolah/internal/core"
)

func sampleForecast() core.MonthlyForecast {
	return core.MonthlyForecast{
		Month: core.NewDate(2024, 2, 1),
		IncomeByCategory: map[string]decimal.Decimal{
			"Job": decimal.RequireFromString("1000"),
		},
		ExpensesByCategory: map[string]decimal.Decimal{
			"Rent": decimal.RequireFromString("680"),
			"Fees": decimal.RequireFromString("0.30"),
		},
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Forecast", 2024, "2024 Forecast"},
		{"  Forecast  ", 2025, "2025 Forecast"},
		{"2023 Forecast", 2024, "2023 Forecast"},
		{"1800 Forecast", 2024, "2024 1800 Forecast"},
		{"", 2024, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestForecastRows(t *testing.T) {
	rows, err := forecastRows(sampleForecast(), "EUR")
	if err != nil {
		t.Fatalf("forecastRows: %v", err)
	}

	want := [][]any{
		{"2024-2", KindIncome, "Job", 1000.0, "€1,000.00", "EUR"},
		{"2024-2", KindExpense, "Fees", 0.3, "€0.30", "EUR"},
		{"2024-2", KindExpense, "Rent", 680.0, "€680.00", "EUR"},
		{"2024-2", KindBalance, "", 319.7, "€319.70", "EUR"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %v", len(rows), len(want), rows)
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %v, want %v", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestForecastRows_Invalid(t *testing.T) {
	if _, err := forecastRows(sampleForecast(), "XYZ"); !errors.Is(err, core.ErrUnknownCurrency) {
		t.Errorf("expected ErrUnknownCurrency, got %v", err)
	}
	if _, err := forecastRows(core.MonthlyForecast{}, "EUR"); err == nil {
		t.Error("expected error for forecast without month")
	}
}

func TestNew_MissingConfig(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil || !strings.Contains(err.Error(), "spreadsheet ID") {
		t.Errorf("expected spreadsheet ID error, got %v", err)
	}
	_, err := New(context.Background(), Config{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected credentials error, got %v", err)
	}
	_, err = New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/non/existent.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("expected file error, got %v", err)
	}
}

func TestWriter_WriteForecast(t *testing.T) {
	var gotPath, gotInput string
	var gotBody gsheet.ValueRange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInput = r.URL.Query().Get("valueInputOption")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"spreadsheetId":"sheet-id","updates":{"updatedRange":"2024 Forecast!A10:F13","updatedRows":4}}`))
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	w := newWriter(svc, "sheet-id", "Forecast")

	ref, err := w.WriteForecast(context.Background(), sampleForecast(), "EUR")
	if err != nil {
		t.Fatalf("WriteForecast: %v", err)
	}
	if ref != "2024 Forecast!A10:F13" {
		t.Errorf("ref = %q", ref)
	}
	if !strings.Contains(gotPath, "/spreadsheets/sheet-id/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotPath, "2024 Forecast") {
		t.Errorf("path %q does not target the yearly tab", gotPath)
	}
	if gotInput != "RAW" {
		t.Errorf("valueInputOption = %q, want RAW", gotInput)
	}
	if len(gotBody.Values) != 4 {
		t.Errorf("sent %d rows, want 4", len(gotBody.Values))
	}
}

func TestWriter_NotInitialized(t *testing.T) {
	w := &Writer{spreadsheetID: "id", sheetBase: "Forecast"}
	if _, err := w.WriteForecast(context.Background(), sampleForecast(), "EUR"); err == nil {
		t.Error("expected error without service")
	}
}
