package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"moomoolah/internal/core"
	"moomoolah/internal/state"
)

// StateStore loads and saves the financial state.
type StateStore interface {
	StateLoader
	Save(ctx context.Context, s *state.FinancialState) error
}

// EntryService applies changes to the stored state and, when an exporter is
// configured, republishes the forecast after every successful save.
type EntryService struct {
	store    StateStore
	exporter *ForecastExporter
}

// NewEntryService creates the service. exporter may be nil.
func NewEntryService(store StateStore, exporter *ForecastExporter) *EntryService {
	return &EntryService{
		store:    store,
		exporter: exporter,
	}
}

// State loads the current state.
func (s *EntryService) State(ctx context.Context) (*state.FinancialState, error) {
	fs, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return fs, nil
}

// AddEntry appends entry to the list matching its type.
func (s *EntryService) AddEntry(ctx context.Context, entry core.FinancialEntry) error {
	return s.mutate(ctx, func(fs *state.FinancialState) error {
		return fs.AddEntry(entry)
	})
}

// RemoveEntryAt removes the entry at index in the typ list.
func (s *EntryService) RemoveEntryAt(ctx context.Context, typ core.EntryType, index int) (core.FinancialEntry, error) {
	var removed core.FinancialEntry
	err := s.mutate(ctx, func(fs *state.FinancialState) error {
		entries := fs.Entries(typ)
		if err := fs.RemoveEntryAt(typ, index); err != nil {
			return err
		}
		removed = entries[index]
		return nil
	})
	return removed, err
}

// UpdateEntry replaces the entry at index in the typ list.
func (s *EntryService) UpdateEntry(ctx context.Context, typ core.EntryType, index int, entry core.FinancialEntry) error {
	return s.mutate(ctx, func(fs *state.FinancialState) error {
		return fs.UpdateEntry(typ, index, entry)
	})
}

// AddCategory registers a category without adding an entry.
func (s *EntryService) AddCategory(ctx context.Context, typ core.EntryType, category string) error {
	return s.mutate(ctx, func(fs *state.FinancialState) error {
		return fs.AddCategory(typ, category)
	})
}

// SetCurrency changes the display currency.
func (s *EntryService) SetCurrency(ctx context.Context, code string) error {
	return s.mutate(ctx, func(fs *state.FinancialState) error {
		return fs.SetCurrencyCode(code)
	})
}

// mutate loads the state, applies fn and saves. Nothing is saved when fn fails.
func (s *EntryService) mutate(ctx context.Context, fn func(*state.FinancialState) error) error {
	fs, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := fn(fs); err != nil {
		return err
	}
	if err := s.store.Save(ctx, fs); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	s.republish(ctx, fs)
	return nil
}

func (s *EntryService) republish(ctx context.Context, fs *state.FinancialState) {
	if s.exporter == nil {
		return
	}
	result, err := s.exporter.ExportState(ctx, fs, fs.CurrentMonth(), s.exporter.config.Months)
	if err != nil {
		// The change is saved locally; export catches up on the next run.
		level := slog.LevelError
		if errors.Is(err, ErrNoPublisher) {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Failed to republish forecast", "error", err)
		return
	}
	slog.DebugContext(ctx, "Republished forecast", "months", len(result.Keys))
}
