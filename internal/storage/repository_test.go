package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moomoolah/internal/core"
	"moomoolah/internal/state"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "data", "moomoolah.db")
	repo, err := NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, dbPath
}

func testState(t *testing.T) *state.FinancialState {
	t.Helper()
	s := state.New(state.WithCurrency("USD"))
	salary := core.FinancialEntry{
		Amount:      decimal.RequireFromString("2500.75"),
		Description: "Salary",
		Type:        core.Income,
		Category:    "Job",
		Recurrence:  core.NewRecurrence(core.Monthly, core.NewDate(2022, 1, 1), 1),
	}
	internet := core.FinancialEntry{
		Amount:      decimal.RequireFromString("80"),
		Description: "Internet",
		Type:        core.Expense,
		Category:    "Essentials",
		Recurrence:  core.NewRecurrence(core.Monthly, core.NewDate(2024, 2, 5), 3),
	}
	insurance := core.FinancialEntry{
		Amount:      decimal.RequireFromString("320.10"),
		Description: "Car insurance",
		Type:        core.Expense,
		Category:    "Car",
		Recurrence:  core.NewRecurrence(core.Annual, core.NewDate(2021, 9, 1), 1),
	}
	insurance.Recurrence.EndDate = core.NewDate(2027, 9, 1)
	for _, e := range []core.FinancialEntry{salary, internet, insurance} {
		require.NoError(t, s.AddEntry(e))
	}
	require.NoError(t, s.AddCategory(core.Expense, "Travel"))
	return s
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	want := testState(t)

	require.NoError(t, repo.SaveState(ctx, want))
	got, err := repo.LoadState(ctx)
	require.NoError(t, err)

	for _, typ := range core.EntryTypes() {
		we, ge := want.Entries(typ), got.Entries(typ)
		require.Len(t, ge, len(we))
		for i := range we {
			assert.True(t, we[i].Equal(ge[i]), "%s entry %d", typ, i)
		}
		assert.Equal(t, want.Categories(typ), got.Categories(typ))
	}
	assert.Equal(t, "USD", got.CurrencyCode())

	n, err := repo.EntryCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestSQLiteRepository_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	s := testState(t)
	require.NoError(t, repo.SaveState(ctx, s))

	require.NoError(t, s.RemoveEntryAt(core.Expense, 0))
	require.NoError(t, s.SetCurrencyCode("JPY"))
	require.NoError(t, repo.SaveState(ctx, s))

	got, err := repo.LoadState(ctx)
	require.NoError(t, err)
	require.Len(t, got.ExpenseEntries(), 1)
	assert.Equal(t, "Car insurance", got.ExpenseEntries()[0].Description)
	assert.Equal(t, "JPY", got.CurrencyCode())
}

func TestSQLiteRepository_EmptyDatabase(t *testing.T) {
	repo, _ := newTestRepo(t)
	got, err := repo.LoadState(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.IncomeEntries())
	assert.Empty(t, got.ExpenseEntries())
	assert.Equal(t, core.DefaultCurrency, got.CurrencyCode())
}

func TestSQLiteRepository_MalformedRow(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	require.NoError(t, repo.queries.CreateEntry(ctx, CreateEntryParams{
		EntryType:      "EXPENSE",
		Amount:         "12",
		RecurrenceType: "WEEKLY",
		StartDate:      "2024-01-01",
		Every:          1,
	}))

	_, err := repo.LoadState(ctx)
	assert.ErrorIs(t, err, state.ErrMalformedState)
	assert.ErrorIs(t, err, core.ErrInvalidRecurrence)
}

func TestSQLiteRepository_OwnerOnlyFile(t *testing.T) {
	_, dbPath := newTestRepo(t)
	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCreateOwnerOnly(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")
	require.NoError(t, createOwnerOnly(dbPath))

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "created before sqlite opens it")
	assert.Zero(t, info.Size())

	require.NoError(t, createOwnerOnly(dbPath), "existing file is left alone")
}

func TestRunMigrations_Idempotent(t *testing.T) {
	_, dbPath := newTestRepo(t)
	assert.NoError(t, RunMigrations(dbPath))
}
