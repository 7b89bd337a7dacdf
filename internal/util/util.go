// internal/util/util.go
package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// WriteFile writes data to path with 0o644 permissions, creating parent
// directories as needed. The file is written to a temporary sibling and
// renamed into place so readers never observe a partial payload.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}

// Truncate shortens text to at most width terminal cells, ending with an
// ellipsis when anything was cut.
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= width {
		return text
	}
	var b strings.Builder
	used := 0
	for _, r := range text {
		w := lipgloss.Width(string(r))
		if used+w > width-1 {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return b.String() + "…"
}

// PadRight truncates or pads text with spaces to exactly width cells.
func PadRight(text string, width int) string {
	text = Truncate(text, width)
	if gap := width - lipgloss.Width(text); gap > 0 {
		text += strings.Repeat(" ", gap)
	}
	return text
}

// PadLeft is PadRight with the padding in front, for numeric columns.
func PadLeft(text string, width int) string {
	text = Truncate(text, width)
	if gap := width - lipgloss.Width(text); gap > 0 {
		text = strings.Repeat(" ", gap) + text
	}
	return text
}

// WrapToWidth wraps text on word boundaries to lines of at most width cells.
// Words longer than width are split. Existing line breaks are kept.
func WrapToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		var cur strings.Builder
		curWidth := 0
		flush := func() {
			if curWidth > 0 {
				out = append(out, cur.String())
				cur.Reset()
				curWidth = 0
			}
		}
		for _, w := range words {
			ww := lipgloss.Width(w)
			switch {
			case curWidth > 0 && curWidth+1+ww <= width:
				cur.WriteByte(' ')
				cur.WriteString(w)
				curWidth += 1 + ww
			case ww <= width:
				flush()
				cur.WriteString(w)
				curWidth = ww
			default:
				flush()
				for _, chunk := range splitCells(w, width) {
					out = append(out, chunk)
				}
			}
		}
		flush()
	}
	return strings.Join(out, "\n")
}

func splitCells(word string, width int) []string {
	var chunks []string
	var b strings.Builder
	used := 0
	for _, r := range word {
		w := lipgloss.Width(string(r))
		if used+w > width && used > 0 {
			chunks = append(chunks, b.String())
			b.Reset()
			used = 0
		}
		b.WriteRune(r)
		used += w
	}
	if used > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
