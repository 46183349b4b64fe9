// CLAUDE:SUMMARY Defines domfind config structs, parses YAML files with defaults and resolves retry policy values.
// Package config handles domfind configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the retry policy.
const (
	DefaultRetryInterval = 100 * time.Millisecond
	DefaultRetryTimeout  = 10 * time.Second
)

// Config is the top-level domfind configuration.
type Config struct {
	Backend  string         `yaml:"backend"` // auto | http | rod | cdp
	Browser  BrowserConfig  `yaml:"browser"`
	CDP      CDPConfig      `yaml:"cdp"`
	Retry    RetryConfig    `yaml:"retry"`
	QueryLog QueryLogConfig `yaml:"querylog"`
}

// BrowserConfig controls the Rod-managed Chrome.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	ResourceBlocking []string      `yaml:"resource_blocking"`
	NavigateTimeout  time.Duration `yaml:"navigate_timeout"`
	MemoryLimit      int64         `yaml:"memory_limit"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	XvfbDisplay      string        `yaml:"xvfb_display"`
}

// CDPConfig points at an already-running Chrome for the chromedp backend.
type CDPConfig struct {
	DebugURL string `yaml:"debug_url"`
}

// RetryConfig is the default polling policy.
type RetryConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// QueryLogConfig enables the SQLite query log when Path is set.
type QueryLogConfig struct {
	Path string `yaml:"path"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = "auto"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.NavigateTimeout <= 0 {
		c.Browser.NavigateTimeout = 30 * time.Second
	}
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.CDP.DebugURL == "" {
		c.CDP.DebugURL = "http://localhost:9222"
	}
	if c.Retry.Interval <= 0 {
		c.Retry.Interval = DefaultRetryInterval
	}
	if c.Retry.Timeout <= 0 {
		c.Retry.Timeout = DefaultRetryTimeout
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case "auto", "http", "rod", "cdp":
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	switch c.Browser.Stealth {
	case "headless", "headful":
	default:
		return fmt.Errorf("config: unknown stealth mode %q", c.Browser.Stealth)
	}
	return nil
}

// ResolveInterval returns user when set, the configured default otherwise.
func (r RetryConfig) ResolveInterval(user time.Duration) time.Duration {
	if user > 0 {
		return user
	}
	if r.Interval > 0 {
		return r.Interval
	}
	return DefaultRetryInterval
}

// ResolveTimeout returns user when set, the configured default otherwise.
func (r RetryConfig) ResolveTimeout(user time.Duration) time.Duration {
	if user > 0 {
		return user
	}
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultRetryTimeout
}
