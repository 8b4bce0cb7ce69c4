package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moomoolah/internal/config"
	"moomoolah/internal/export/memory"
	"moomoolah/internal/log"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataBackend:     "json",
		StateFile:       filepath.Join(t.TempDir(), "state.json"),
		DefaultCurrency: "GBP",
		ForecastMonths:  12,
		HistoryMonths:   6,
		ExportSink:      "memory",
		LogLevel:        "info",
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug")
	assert.True(t, logger.Enabled(context.Background(), -4))

	logger = SetupLogger("chatty")
	assert.False(t, logger.Enabled(context.Background(), -4), "unknown levels fall back to info")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	store, cleanup, err := OpenStore(ctx, log.New(log.DefaultConfig()), testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	s, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GBP", s.CurrencyCode(), "new states use the configured default currency")
}

func TestOpenStore_InvalidBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataBackend = "csv"
	_, _, err := OpenStore(context.Background(), log.New(log.DefaultConfig()), cfg)
	assert.Error(t, err)
}

func TestOpenAMQP_Disabled(t *testing.T) {
	client, err := OpenAMQP(context.Background(), log.New(log.DefaultConfig()), testConfig(t))
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewExportWriter(t *testing.T) {
	ctx := context.Background()
	logger := log.New(log.DefaultConfig())

	cfg := testConfig(t)
	w, err := NewExportWriter(ctx, logger, cfg)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, w)

	cfg.ExportSink = "sheets"
	_, err = NewExportWriter(ctx, logger, cfg)
	assert.Error(t, err, "sheets sink needs a spreadsheet and credentials")

	cfg.ExportSink = "ftp"
	_, err = NewExportWriter(ctx, logger, cfg)
	assert.Error(t, err)
}
