// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoad covers a valid file with defaults applied, invalid JSON, an unknown
// alignment, and a nonexistent explicit path.
func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `{
        "apiBaseURL": "http://api.local:9000",
        "models": [{"id": "xgb", "name": "Gradient Boosted", "color": "#ff0000"}],
        "cache": {"redisAddr": "localhost:6379", "ttlSeconds": 60}
    }`)

	cfg, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.ConfigPath != path {
		t.Fatalf("expected config path %q, got %q", path, cfg.ConfigPath)
	}
	if cfg.APIBaseURL != "http://api.local:9000" {
		t.Fatalf("unexpected api base url %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Fatalf("expected default request timeout of 30s, got %v", cfg.RequestTimeout())
	}
	if cfg.CacheTTL() != time.Minute {
		t.Fatalf("expected cache ttl of 1m, got %v", cfg.CacheTTL())
	}
	if cfg.Alignment != AlignTimestamp {
		t.Fatalf("expected timestamp alignment by default, got %q", cfg.Alignment)
	}
	if cfg.Server.Addr != ":8000" || cfg.Server.OutputsDir != "outputs" {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}

	if _, err := Load(nil, writeTempConfig(t, `{ "models": [`)); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}
	if _, err := Load(nil, writeTempConfig(t, `{"alignment": "diagonal"}`)); err == nil {
		t.Fatal("Load() with unknown alignment should have failed")
	}
	if _, err := Load(nil, filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("Load() with nonexistent file should have failed")
	}
}

func TestModelNameAndColor(t *testing.T) {
	t.Parallel()

	cfg := Config{Models: []ModelInfo{{ID: "xgb", Name: "Boosted", Color: "#111111"}, {ID: "prophet", Name: "Prophet"}}}

	tests := []struct {
		id        string
		wantName  string
		wantColor string
	}{
		{"xgb", "Boosted", "#111111"},
		{"rf", "Random Forest", "#10b981"},
		{"prophet", "Prophet", ""},
		{"mystery", "mystery", ""},
	}
	for _, tt := range tests {
		if got := cfg.ModelName(tt.id); got != tt.wantName {
			t.Errorf("ModelName(%q) = %q, want %q", tt.id, got, tt.wantName)
		}
		if got := cfg.ModelColor(tt.id); got != tt.wantColor {
			t.Errorf("ModelColor(%q) = %q, want %q", tt.id, got, tt.wantColor)
		}
	}

	table := cfg.ModelTable()
	if len(table) != 5 || table[0].ID != "xgb" || table[1].ID != "prophet" {
		t.Fatalf("unexpected model table: %+v", table)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cfg := Config{RequestsPerSecond: -1}
	if err := cfg.Normalize(); err == nil {
		t.Fatal("expected error for negative rate")
	}

	cfg = Config{Alignment: AlignIndex}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if cfg.Alignment != AlignIndex || cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Fatalf("unexpected normalized config: %+v", cfg)
	}
}

func TestLogFilePath(t *testing.T) {
	t.Parallel()

	if got := (Config{}).LogFilePath(); got != "gridcast.log" {
		t.Fatalf("expected default log path, got %q", got)
	}
	if got := (Config{LogFile: "logs/x.log"}).LogFilePath(); got != "logs/x.log" {
		t.Fatalf("expected configured log path, got %q", got)
	}
}

func TestShowConfig(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ShowConfig(&buf, "", nil, Defaults())
	out := buf.String()
	for _, want := range []string{"No config file loaded", "http://localhost:8000", "Rate Limit:      off", "xgb"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
