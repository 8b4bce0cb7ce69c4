package adapters

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"moomoolah/internal/state"
)

// JSONFileAdapter stores the state in a single owner-only JSON file.
type JSONFileAdapter struct {
	path string
	opts []state.Option
}

func NewJSONFileAdapter(path string, opts ...state.Option) *JSONFileAdapter {
	return &JSONFileAdapter{
		path: path,
		opts: opts,
	}
}

func (a *JSONFileAdapter) Path() string {
	return a.path
}

// Load implements backend.Store. A file that does not exist yet yields an
// empty state; any other read failure is returned.
func (a *JSONFileAdapter) Load(ctx context.Context) (*state.FinancialState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := state.FromJSONFile(a.path, a.opts...)
	if errors.Is(err, os.ErrNotExist) {
		slog.InfoContext(ctx, "State file not found, starting empty", "path", a.path)
		return state.New(a.opts...), nil
	}
	return s, err
}

// Save implements backend.Store
func (a *JSONFileAdapter) Save(ctx context.Context, s *state.FinancialState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ToJSONFile(a.path); err != nil {
		return err
	}
	slog.DebugContext(ctx, "State saved to file", "path", a.path)
	return nil
}

// Close implements backend.Store
func (a *JSONFileAdapter) Close() error {
	return nil
}
