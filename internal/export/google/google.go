package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moomoolah/internal/core"
	"moomoolah/internal/export"
)

// Row kinds written in the second column.
const (
	KindIncome  = "INCOME"
	KindExpense = "EXPENSE"
	KindBalance = "BALANCE"
)

var _ export.ForecastWriter = (*Writer)(nil)

type Config struct {
	SpreadsheetID string
	// SheetName is the base tab name; the forecast's year is prefixed to it.
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Writer appends forecasts to yearly tabs of a spreadsheet.
type Writer struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

// New creates a Writer authenticated with service account credentials.
func New(ctx context.Context, cfg Config) (*Writer, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := newSheetsService(ctx, cfg.CredentialsJSON, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newWriter(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

func newWriter(svc *gsheet.Service, spreadsheetID, sheetBase string) *Writer {
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = "Forecast"
	}
	return &Writer{svc: svc, spreadsheetID: strings.TrimSpace(spreadsheetID), sheetBase: sheetBase}
}

// newSheetsService initializes a Sheets Service using Service Account credentials,
// preferring inline JSON over a credentials file.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)

	var creds []byte
	switch {
	case credentialsJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		creds = []byte(credentialsJSON)
	case credentialsFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", credentialsFile)
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteForecast appends one row per category plus a balance row to the tab
// for the forecast's year and returns the updated range.
func (w *Writer) WriteForecast(ctx context.Context, f core.MonthlyForecast, currency string) (string, error) {
	if w.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rows, err := forecastRows(f, currency)
	if err != nil {
		return "", err
	}

	sheet := yearPrefixedName(w.sheetBase, f.Month.Year())
	rng := fmt.Sprintf("%s!A:F", sheet)
	vr := &gsheet.ValueRange{Values: rows}

	resp, err := w.svc.Spreadsheets.Values.Append(w.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append forecast %s to sheet %s: %w", f.Key(), sheet, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// forecastRows lays out a forecast as sheet rows: month key, kind, category,
// amount, formatted amount, currency. Categories are sorted, income first.
func forecastRows(f core.MonthlyForecast, currency string) ([][]any, error) {
	if f.Month.IsEmpty() {
		return nil, errors.New("forecast has no month")
	}
	format, ok := core.LookupCurrency(currency)
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCurrency, currency)
	}

	key := f.Key()
	row := func(kind, category string, amount decimal.Decimal) []any {
		return []any{key, kind, category, amount.InexactFloat64(), format.Format(amount), currency}
	}

	rows := make([][]any, 0, len(f.IncomeByCategory)+len(f.ExpensesByCategory)+1)
	for _, c := range f.IncomeCategories() {
		rows = append(rows, row(KindIncome, c, f.IncomeByCategory[c]))
	}
	for _, c := range f.ExpenseCategories() {
		rows = append(rows, row(KindExpense, c, f.ExpensesByCategory[c]))
	}
	rows = append(rows, row(KindBalance, "", f.Balance()))
	return rows, nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
