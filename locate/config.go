package locate

import (
	"github.com/hazyhaar/domfind/locate/internal/config"
)

// Config is the top-level domfind configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls the rod-managed Chrome.
type BrowserConfig = config.BrowserConfig

// CDPConfig points at an existing Chrome for the cdp backend.
type CDPConfig = config.CDPConfig

// RetryConfig is the default poll interval and timeout.
type RetryConfig = config.RetryConfig

// QueryLogConfig controls the SQLite query log.
type QueryLogConfig = config.QueryLogConfig

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config { return config.Default() }

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}
