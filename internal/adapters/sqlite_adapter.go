package adapters

import (
	"context"

	"moomoolah/internal/state"
	"moomoolah/internal/storage"
)

// SQLiteAdapter adapts SQLiteRepository to the backend.Store port so the CLI
// and the exporter work unchanged on either backend.
type SQLiteAdapter struct {
	repo *storage.SQLiteRepository
	opts []state.Option
}

func NewSQLiteAdapter(repo *storage.SQLiteRepository, opts ...state.Option) *SQLiteAdapter {
	return &SQLiteAdapter{
		repo: repo,
		opts: opts,
	}
}

// Load implements backend.Store
func (a *SQLiteAdapter) Load(ctx context.Context) (*state.FinancialState, error) {
	return a.repo.LoadState(ctx, a.opts...)
}

// Save implements backend.Store
func (a *SQLiteAdapter) Save(ctx context.Context, s *state.FinancialState) error {
	return a.repo.SaveState(ctx, s)
}

// Close implements backend.Store
func (a *SQLiteAdapter) Close() error {
	return a.repo.Close()
}
