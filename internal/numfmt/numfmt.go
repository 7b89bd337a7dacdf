// internal/numfmt/numfmt.go
// Package numfmt renders demand values as short, human-readable strings.
// Output is lossy and intended for display only.
package numfmt

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter scales values to k/M suffixes and groups small integers using a locale printer.
type Formatter struct {
	printer *message.Printer
}

var defaultFormatter = &Formatter{printer: message.NewPrinter(language.English)}

// New returns a Formatter for the BCP 47 language tag (e.g. "en-GB", "de").
// An empty tag selects English.
func New(tag string) (*Formatter, error) {
	if tag == "" {
		return defaultFormatter, nil
	}
	t, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", tag, err)
	}
	return &Formatter{printer: message.NewPrinter(t)}, nil
}

// Format renders v; nil renders as "-".
func (f *Formatter) Format(v *float64) string {
	if v == nil {
		return "-"
	}
	return f.FormatFloat(*v)
}

// FormatFloat renders v: |v| >= 1e6 as "2.50M", |v| >= 1000 as "1.5k",
// anything else rounded to an integer with locale grouping. NaN and ±Inf
// render as "-".
func (f *Formatter) FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case abs >= 1000:
		return fmt.Sprintf("%.1fk", v/1000)
	}
	return f.printer.Sprintf("%d", int64(math.Round(v)))
}

// Format renders v with the default English formatter.
func Format(v *float64) string { return defaultFormatter.Format(v) }

// FormatFloat renders v with the default English formatter.
func FormatFloat(v float64) string { return defaultFormatter.FormatFloat(v) }

// Percent renders a percentage with two decimals, or "-" for nil/NaN/Inf.
func Percent(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *v)
}
