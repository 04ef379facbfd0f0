// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPercent formats a 0-100 percentage with two decimals, e.g. "59.57%".
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatPercentShort formats a 0-100 percentage with no decimals.
func FormatPercentShort(pct float64) string {
	return fmt.Sprintf("%.0f%%", pct)
}

// FormatRatio formats attended/total, e.g. "59/100".
func FormatRatio(attended, total int) string {
	return strconv.Itoa(attended) + "/" + strconv.Itoa(total)
}

// Plural returns "1 class" / "3 classes" style counts.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006-01-02T15:04:05Z07:00",
	"Mon Jan 2 2006",
	"Jan 2, 2006",
}

// FormatDate renders a portal date as "Mon, Jan 2". "Today" and dates in
// unknown layouts are returned unchanged.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "Today" {
		return s
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Mon, Jan 2")
		}
	}
	return s
}

// FormatAge renders how long ago t was relative to now, e.g. "3 minutes ago".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a portal day name.
func FormatDayOfWeek(day string) string {
	day = strings.TrimSpace(day)
	if len(day) < 3 {
		return day
	}
	return strings.ToUpper(day[:1]) + strings.ToLower(day[1:3])
}
