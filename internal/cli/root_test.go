// internal/cli/root_test.go
package gridcast

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/mwiater/gridcast/internal/logging"
)

func resetFlag(name string) {
	flag := rootCmd.PersistentFlags().Lookup(name)
	if flag == nil {
		return
	}
	_ = flag.Value.Set(flag.DefValue)
	flag.Changed = false
}

// resetCommandState restores the package-level flag state shared by every command.
func resetCommandState(t *testing.T) {
	t.Helper()
	for _, name := range append([]string{"config"}, boundFlags...) {
		resetFlag(name)
	}
	currentConfig = nil
	rankGranularity = "D"
	compareGranularity = "D"
	compareLimit = 24
	compareExport = ""
	listAvailable = false
	color.NoColor = true
	t.Cleanup(func() { _ = logging.Close() })
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	logPath := filepath.Join(t.TempDir(), "gridcast.log")
	rootCmd.SetArgs(append(args, "--logFile", logPath))
	_, err := rootCmd.ExecuteC()
	return stdout.String(), stderr.String(), err
}

// TestRootCmd verifies running the root command with an invalid subcommand reports an error.
func TestRootCmd(t *testing.T) {
	resetCommandState(t)

	_, stderr, err := execute(t, "nonexistent")
	if err == nil {
		t.Error("Expected an error for a nonexistent command, but got none")
	}
	expected := "unknown command \"nonexistent\" for \"gridcast\""
	if !strings.Contains(stderr, expected) {
		t.Errorf("Expected output to contain '%s', but got '%s'", expected, stderr)
	}
}

func TestShowConfigFlagsOverrideFile(t *testing.T) {
	resetCommandState(t)
	path := writeTempConfig(t, `{"apiBaseURL": "http://from-config:1", "timeout": 3}`)

	out, _, err := execute(t, "show", "config", "--config", path, "--apiBaseURL", "http://from-flag:2")
	if err != nil {
		t.Fatalf("show config error: %v", err)
	}
	for _, want := range []string{"Config file: " + path, "API Base URL:    http://from-flag:2", "Timeout:         3s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	resetCommandState(t)
	out, _, err = execute(t, "show", "config", "--config", path)
	if err != nil {
		t.Fatalf("show config error: %v", err)
	}
	if !strings.Contains(out, "API Base URL:    http://from-config:1") {
		t.Fatalf("expected the file value without a flag:\n%s", out)
	}
	resetCommandState(t)
}

func TestMissingExplicitConfigFails(t *testing.T) {
	resetCommandState(t)

	_, _, err := execute(t, "show", "config", "--config", filepath.Join(t.TempDir(), "missing.json"))
	resetCommandState(t)
	if err == nil || !strings.Contains(err.Error(), "failed to load config") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestListCommands(t *testing.T) {
	resetCommandState(t)

	out, _, err := execute(t, "list", "commands")
	if err != nil {
		t.Fatalf("list commands error: %v", err)
	}
	for _, want := range []string{"Commands and Subcommands:", "gridcast rank", "gridcast compare", "gridcast list granularities", "gridcast serve"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "completion") {
		t.Fatalf("completion should be filtered:\n%s", out)
	}
}

func TestListGranularities(t *testing.T) {
	resetCommandState(t)

	out, _, err := execute(t, "list", "granularities")
	if err != nil {
		t.Fatalf("list granularities error: %v", err)
	}
	for _, want := range []string{"  H  hourly   24 hours", "  D  daily    7 days", "  Y  yearly   1 year"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
