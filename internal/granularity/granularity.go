// internal/granularity/granularity.go
// Package granularity describes the temporal resolutions forecasts are trained at
// and how timestamps at each resolution are labelled for display.
package granularity

import (
	"errors"
	"fmt"
	"strings"
)

// Code is the single-letter granularity identifier used by the outputs API.
type Code string

const (
	Hourly  Code = "H"
	Daily   Code = "D"
	Weekly  Code = "W"
	Monthly Code = "M"
	Yearly  Code = "Y"
)

// ErrUnknownCode is returned when a granularity code is not one of H, D, W, M, Y.
var ErrUnknownCode = errors.New("unknown granularity code")

// Config holds the fixed settings for a granularity level.
type Config struct {
	Code               Code
	Name               string
	Unit               string
	DefaultHorizon     int
	DefaultTestPeriods int
	Folder             string
}

var ordered = []Code{Hourly, Daily, Weekly, Monthly, Yearly}

var configs = map[Code]Config{
	Hourly:  {Code: Hourly, Name: "hourly", Unit: "hour", DefaultHorizon: 24, DefaultTestPeriods: 168, Folder: "hourly"},
	Daily:   {Code: Daily, Name: "daily", Unit: "day", DefaultHorizon: 7, DefaultTestPeriods: 7, Folder: "daily"},
	Weekly:  {Code: Weekly, Name: "weekly", Unit: "week", DefaultHorizon: 4, DefaultTestPeriods: 4, Folder: "weekly"},
	Monthly: {Code: Monthly, Name: "monthly", Unit: "month", DefaultHorizon: 3, DefaultTestPeriods: 3, Folder: "monthly"},
	Yearly:  {Code: Yearly, Name: "yearly", Unit: "year", DefaultHorizon: 1, DefaultTestPeriods: 1, Folder: "yearly"},
}

// ParseCode converts a user-supplied code to a Code, ignoring case and surrounding space.
func ParseCode(s string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := configs[c]; !ok {
		return "", fmt.Errorf("%w: %q. Valid codes: H, D, W, M, Y", ErrUnknownCode, s)
	}
	return c, nil
}

// Config returns the settings for c.
func (c Code) Config() (Config, bool) {
	cfg, ok := configs[c]
	return cfg, ok
}

// Valid reports whether c is a known granularity.
func (c Code) Valid() bool {
	_, ok := configs[c]
	return ok
}

// Unit returns the horizon unit word (hour, day, ...) or "period" for unknown codes.
func (c Code) Unit() string {
	if cfg, ok := configs[c]; ok {
		return cfg.Unit
	}
	return "period"
}

// Name returns the display name (hourly, daily, ...) or the raw code.
func (c Code) Name() string {
	if cfg, ok := configs[c]; ok {
		return cfg.Name
	}
	return string(c)
}

func (c Code) String() string { return string(c) }

// All returns every granularity in H, D, W, M, Y order.
func All() []Config {
	out := make([]Config, 0, len(ordered))
	for _, c := range ordered {
		out = append(out, configs[c])
	}
	return out
}

// Codes returns every granularity code in H, D, W, M, Y order.
func Codes() []Code {
	return append([]Code(nil), ordered...)
}

// HorizonLabel renders a horizon with its unit, pluralised, e.g. "7 days".
func HorizonLabel(c Code, horizon int) string {
	unit := c.Unit()
	if horizon != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", horizon, unit)
}
