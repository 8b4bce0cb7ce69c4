package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moomoolah/internal/state"
)

func TestJSONFileAdapter_MissingFileStartsEmpty(t *testing.T) {
	a := NewJSONFileAdapter(filepath.Join(t.TempDir(), "state.json"), state.WithCurrency("JPY"))
	s, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.ExpenseEntries())
	assert.Equal(t, "JPY", s.CurrencyCode())
}

func TestJSONFileAdapter_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewJSONFileAdapter(path).Load(context.Background())
	assert.ErrorIs(t, err, state.ErrMalformedState)
}

func TestJSONFileAdapter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewJSONFileAdapter(filepath.Join(t.TempDir(), "state.json"))
	assert.ErrorIs(t, a.Save(ctx, state.New()), context.Canceled)
	_, err := a.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
