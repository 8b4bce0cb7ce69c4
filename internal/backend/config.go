package backend

import (
	"fmt"

	"moomoolah/internal/config"
	"moomoolah/internal/state"
)

// FromAppConfig converts the application config to backend config. The
// configured default currency applies to states that do not carry their own.
func FromAppConfig(appConfig *config.Config, opts ...state.Option) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	stateOpts := append([]state.Option{state.WithCurrency(appConfig.DefaultCurrency)}, opts...)

	return Config{
		Type:         backendType,
		StateFile:    appConfig.StateFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		StateOptions: stateOpts,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case JSONBackend:
		if c.StateFile == "" {
			return fmt.Errorf("state file path is required for json backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{JSONBackend, SQLiteBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
