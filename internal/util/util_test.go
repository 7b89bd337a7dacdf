// internal/util/util_test.go
package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "daily", "metrics_xgb_7.json")
	if err := WriteFile(path, []byte(`{"smape":1}`)); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	if err := WriteFile(path, []byte(`{"smape":2}`)); err != nil {
		t.Fatalf("overwrite returned error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != `{"smape":2}` {
		t.Fatalf("unexpected file contents: %q", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected temporary files to be cleaned up, found %d entries", len(entries))
	}
}

func TestTruncateAndPad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		width int
		trunc string
		right string
		left  string
	}{
		{name: "fits", in: "xgb", width: 5, trunc: "xgb", right: "xgb  ", left: "  xgb"},
		{name: "exact", in: "ebm", width: 3, trunc: "ebm", right: "ebm", left: "ebm"},
		{name: "cut", in: "Random Forest", width: 8, trunc: "Random …", right: "Random …", left: "Random …"},
		{name: "zero", in: "rf", width: 0, trunc: "", right: "", left: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.width); got != tt.trunc {
				t.Fatalf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.trunc)
			}
			if got := PadRight(tt.in, tt.width); got != tt.right {
				t.Fatalf("PadRight(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.right)
			}
			if got := PadLeft(tt.in, tt.width); got != tt.left {
				t.Fatalf("PadLeft(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.left)
			}
		})
	}
}

func TestWrapToWidth(t *testing.T) {
	t.Parallel()

	got := WrapToWidth("XGBoost has the lowest SMAPE\n\nsupercalifragilistic", 10)
	want := strings.Join([]string{
		"XGBoost",
		"has the",
		"lowest",
		"SMAPE",
		"",
		"supercalif",
		"ragilistic",
	}, "\n")
	if got != want {
		t.Fatalf("unexpected wrap:\n%s\nwant:\n%s", got, want)
	}
	if WrapToWidth("unchanged", 0) != "unchanged" {
		t.Fatal("non-positive width should return input")
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	if Clamp(-1, 0, 3) != 0 || Clamp(5, 0, 3) != 3 || Clamp(2, 0, 3) != 2 {
		t.Fatal("Clamp out of range")
	}
}
