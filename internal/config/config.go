package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"moomoolah/internal/core"
)

type Config struct {
	// Storage
	DataBackend  string
	StateFile    string
	SQLiteDBPath string

	// Display
	DefaultCurrency string
	ForecastMonths  int
	HistoryMonths   int

	// AMQP (empty URL disables export)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Export sink used by the worker
	ExportSink string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Elasticsearch
	ElasticsearchURLs  []string
	ElasticsearchIndex string

	LogLevel string
}

var (
	validBackends    = []string{"json", "sqlite"}
	validExportSinks = []string{"memory", "sheets", "elasticsearch"}
	validLogLevels   = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	serviceAccountFile := getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	if serviceAccountFile == "" {
		serviceAccountFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")
	}

	return &Config{
		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", "json")),
		StateFile:    getEnv("STATE_FILE", "./data/state.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/moomoolah.db"),

		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", core.DefaultCurrency)),
		ForecastMonths:  getEnvInt("FORECAST_MONTHS", 12),
		HistoryMonths:   getEnvInt("HISTORY_MONTHS", 6),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moomoolah"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "forecast_export"),

		ExportSink: strings.ToLower(getEnv("EXPORT_SINK", "memory")),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Forecast"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: serviceAccountFile,

		ElasticsearchURLs:  getEnvList("ELASTICSEARCH_URLS"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "moomoolah-forecasts"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if !oneOf(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "json":
		if c.StateFile == "" {
			errors = append(errors, "state file path cannot be empty when using json backend")
		} else if msg := ensureDir(c.StateFile, "state file"); msg != "" {
			errors = append(errors, msg)
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(c.SQLiteDBPath, "SQLite database"); msg != "" {
			errors = append(errors, msg)
		}
	}

	if !core.IsKnownCurrency(c.DefaultCurrency) {
		errors = append(errors, fmt.Sprintf("unknown default currency '%s': must be one of %v", c.DefaultCurrency, core.CurrencyCodes()))
	}

	if c.ForecastMonths < 1 || c.ForecastMonths > 120 {
		errors = append(errors, fmt.Sprintf("invalid forecast months %d: must be between 1 and 120", c.ForecastMonths))
	}
	if c.HistoryMonths < 1 || c.HistoryMonths > 120 {
		errors = append(errors, fmt.Sprintf("invalid history months %d: must be between 1 and 120", c.HistoryMonths))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !oneOf(validExportSinks, c.ExportSink) {
		errors = append(errors, fmt.Sprintf("invalid export sink '%s': must be one of %v", c.ExportSink, validExportSinks))
	}

	switch c.ExportSink {
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets export")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets export")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case "elasticsearch":
		if len(c.ElasticsearchURLs) == 0 {
			errors = append(errors, "at least one Elasticsearch URL is required when using elasticsearch export")
		}
		for _, raw := range c.ElasticsearchURLs {
			if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				errors = append(errors, fmt.Sprintf("invalid Elasticsearch URL '%s': must be http or https", raw))
			}
		}
		if c.ElasticsearchIndex == "" {
			errors = append(errors, "Elasticsearch index cannot be empty when using elasticsearch export")
		}
	}

	if !oneOf(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ExportEnabled reports whether forecasts can be published for export.
func (c *Config) ExportEnabled() bool {
	return c.AMQPURL != ""
}

// ensureDir creates the parent directory of path owner-only when missing and
// returns a message when that fails.
func ensureDir(path, what string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Sprintf("cannot create %s directory '%s': %v", what, dir, err)
		}
	}
	return ""
}

func oneOf(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
