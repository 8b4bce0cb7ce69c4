package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"moomoolah/internal/core"
	"moomoolah/internal/state"

	_ "modernc.org/sqlite"
)

const settingCurrencyCode = "currency_code"

// SQLiteRepository keeps a FinancialState in a SQLite database. Saves replace
// the stored state as a whole inside one transaction.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := createOwnerOnly(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if err := os.Chmod(dbPath, state.StateFileMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("restrict database permissions: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

// createOwnerOnly creates path with mode 0600 when missing, so sqlite never
// creates it with the umask default.
func createOwnerOnly(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, state.StateFileMode)
	if err != nil {
		return fmt.Errorf("create database file: %w", err)
	}
	return f.Close()
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveState replaces the stored entries, categories and currency with s.
func (r *SQLiteRepository) SaveState(ctx context.Context, s *state.FinancialState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteAllEntries(ctx); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if err := q.DeleteAllCategories(ctx); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	count := 0
	for _, typ := range core.EntryTypes() {
		for i, e := range s.Entries(typ) {
			if err := q.CreateEntry(ctx, entryParams(i, e)); err != nil {
				return fmt.Errorf("insert %s entry %d: %w", typ, i, err)
			}
			count++
		}
		for _, name := range s.Categories(typ) {
			if err := q.CreateCategory(ctx, string(typ), name); err != nil {
				return fmt.Errorf("insert %s category %q: %w", typ, name, err)
			}
		}
	}

	if err := q.UpsertSetting(ctx, settingCurrencyCode, s.CurrencyCode()); err != nil {
		return fmt.Errorf("save currency: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "State saved to SQLite",
		"entries", count,
		"currency", s.CurrencyCode())
	return nil
}

// LoadState rebuilds a FinancialState from the database. An empty database
// yields an empty state in the default currency. Rows that do not form valid
// entries yield state.ErrMalformedState.
func (r *SQLiteRepository) LoadState(ctx context.Context, opts ...state.Option) (*state.FinancialState, error) {
	rows, err := r.queries.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	s := state.New(opts...)
	for _, row := range rows {
		entry, err := entryFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", state.ErrMalformedState, row.ID, err)
		}
		if err := s.AddEntry(entry); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", state.ErrMalformedState, row.ID, err)
		}
	}

	categories, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		if err := s.AddCategory(core.EntryType(c.EntryType), c.Name); err != nil {
			return nil, fmt.Errorf("%w: category %q: %w", state.ErrMalformedState, c.Name, err)
		}
	}

	code, err := r.queries.GetSetting(ctx, settingCurrencyCode)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("get currency: %w", err)
	default:
		if err := s.SetCurrencyCode(code); err != nil {
			return nil, fmt.Errorf("%w: %w", state.ErrMalformedState, err)
		}
	}

	slog.DebugContext(ctx, "State loaded from SQLite",
		"entries", len(rows),
		"currency", s.CurrencyCode())
	return s, nil
}

// EntryCount returns the number of stored entries of both types.
func (r *SQLiteRepository) EntryCount(ctx context.Context) (int64, error) {
	n, err := r.queries.CountEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func entryParams(position int, e core.FinancialEntry) CreateEntryParams {
	p := CreateEntryParams{
		EntryType:      string(e.Type),
		Position:       int64(position),
		Amount:         e.Amount.String(),
		Description:    e.Description,
		Category:       e.Category,
		RecurrenceType: string(e.Recurrence.Type),
		StartDate:      e.Recurrence.StartDate.String(),
		Every:          int64(e.Recurrence.Every),
	}
	if !e.Recurrence.EndDate.IsEmpty() {
		p.EndDate = sql.NullString{String: e.Recurrence.EndDate.String(), Valid: true}
	}
	return p
}

func entryFromRow(row Entry) (core.FinancialEntry, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.FinancialEntry{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, row.Amount)
	}
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.FinancialEntry{}, err
	}
	var end core.Date
	if row.EndDate.Valid {
		if end, err = core.ParseDate(row.EndDate.String); err != nil {
			return core.FinancialEntry{}, err
		}
	}
	return core.FinancialEntry{
		Amount:      amount,
		Description: row.Description,
		Type:        core.EntryType(row.EntryType),
		Category:    row.Category,
		Recurrence: core.Recurrence{
			StartDate: start,
			Type:      core.RecurrenceType(row.RecurrenceType),
			Every:     int(row.Every),
			EndDate:   end,
		},
	}, nil
}
