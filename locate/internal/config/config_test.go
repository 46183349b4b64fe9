package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Backend != "auto" {
		t.Errorf("Backend: got %q, want auto", cfg.Backend)
	}
	if cfg.Retry.Interval != DefaultRetryInterval || cfg.Retry.Timeout != DefaultRetryTimeout {
		t.Errorf("Retry: got %+v", cfg.Retry)
	}
	if cfg.Browser.NavigateTimeout != 30*time.Second {
		t.Errorf("NavigateTimeout: got %v", cfg.Browser.NavigateTimeout)
	}
	if cfg.CDP.DebugURL != "http://localhost:9222" {
		t.Errorf("DebugURL: got %q", cfg.CDP.DebugURL)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domfind.yaml")
	data := `
backend: rod
browser:
  stealth: headful
  resource_blocking: [images, fonts]
retry:
  interval: 250ms
  timeout: 3s
querylog:
  path: db/queries.db
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Backend != "rod" || cfg.Browser.Stealth != "headful" {
		t.Errorf("got backend=%q stealth=%q", cfg.Backend, cfg.Browser.Stealth)
	}
	if len(cfg.Browser.ResourceBlocking) != 2 {
		t.Errorf("ResourceBlocking: got %v", cfg.Browser.ResourceBlocking)
	}
	if cfg.Retry.Interval != 250*time.Millisecond || cfg.Retry.Timeout != 3*time.Second {
		t.Errorf("Retry: got %+v", cfg.Retry)
	}
	if cfg.QueryLog.Path != "db/queries.db" {
		t.Errorf("QueryLog.Path: got %q", cfg.QueryLog.Path)
	}
}

func TestParse_UnknownBackend(t *testing.T) {
	if _, err := Parse([]byte("backend: selenium")); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestResolve(t *testing.T) {
	r := RetryConfig{Interval: 50 * time.Millisecond, Timeout: 2 * time.Second}

	if got := r.ResolveInterval(0); got != 50*time.Millisecond {
		t.Errorf("ResolveInterval(0): got %v", got)
	}
	if got := r.ResolveInterval(time.Second); got != time.Second {
		t.Errorf("ResolveInterval(1s): got %v", got)
	}
	if got := r.ResolveTimeout(0); got != 2*time.Second {
		t.Errorf("ResolveTimeout(0): got %v", got)
	}
	if got := (RetryConfig{}).ResolveTimeout(0); got != DefaultRetryTimeout {
		t.Errorf("zero config ResolveTimeout: got %v", got)
	}
}
