// internal/granularity/timelabel.go
package granularity

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// timestampLayouts are tried in order when parsing prediction timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 prediction timestamp. Timestamps without a
// zone are read as UTC. A trailing "Z" appended after an explicit offset
// ("+00:00Z") is tolerated.
func ParseTimestamp(ts string) (time.Time, bool) {
	s := strings.TrimSpace(ts)
	if s == "" {
		return time.Time{}, false
	}
	if strings.HasSuffix(s, "Z") && len(s) > 7 {
		if off := s[len(s)-7 : len(s)-1]; (off[0] == '+' || off[0] == '-') && off[3] == ':' {
			s = s[:len(s)-1]
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimeLabel maps a timestamp to its display label for the granularity code.
// Unknown codes and unparseable timestamps return ts unchanged.
func FormatTimeLabel(ts string, code Code) string {
	return formatTimeLabel(ts, code, "January 2006")
}

// FormatTimeLabelShort is FormatTimeLabel with abbreviated month names for M.
func FormatTimeLabelShort(ts string, code Code) string {
	return formatTimeLabel(ts, code, "Jan 2006")
}

func formatTimeLabel(ts string, code Code, monthLayout string) string {
	if !code.Valid() {
		return ts
	}
	t, ok := ParseTimestamp(ts)
	if !ok {
		return ts
	}
	switch code {
	case Hourly:
		return t.Format("Jan 2, 15:04")
	case Daily:
		return t.Format("Mon, Jan 2")
	case Weekly:
		_, week := ISOWeek(t)
		return fmt.Sprintf("Week %d", week)
	case Monthly:
		return t.Format(monthLayout)
	case Yearly:
		return t.Format("2006")
	}
	return ts
}

// ISOWeek returns the ISO-8601 week-numbering year and week of t's calendar date.
// The date is normalised to UTC midnight, moved to the Thursday of its week
// (Sunday counts as day 7), and the week is counted from January 1st of that
// Thursday's year.
func ISOWeek(t time.Time) (year, week int) {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	thursday := d.AddDate(0, 0, 4-weekday)
	yearStart := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := thursday.Sub(yearStart).Hours() / 24
	return thursday.Year(), int(math.Ceil((days + 1) / 7))
}
