package testsupport

import (
	"path/filepath"
	"testing"

	"lectern/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithModel overrides the engine model on the test config.
func WithModel(model string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.Model = model
	}
}

// WithBackendPreference overrides the backend preference on the test config.
func WithBackendPreference(backend string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.Backend = backend
	}
}
