package components

import (
	"fmt"
	"strings"

	"github.com/netrapro/netra/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders an indeterminate-style fill bar with percentage.
// pct is a 0..1 fraction.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	filledStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))

	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// AttendanceBar renders a labeled attendance bar colored by band, with a
// marker at the target percentage. pct and target are 0..100.
func AttendanceBar(label string, pct, target float64, labelW, barWidth int) string {
	t := theme.Active
	color := t.ForPercentage(pct)

	frac := pct / 100
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	if barWidth < 4 {
		barWidth = 4
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)
	rendered := bar.ViewAs(frac)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	out := labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncLabel(label, labelW))) +
		spaceStyle.Render(" ") +
		rendered +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%6.2f%%", pct))
	if target > 0 {
		out += dimStyle.Render(fmt.Sprintf("  / %.0f%%", target))
	}
	return out
}

// TargetMarker renders a ruler line with ▲ under the target position, sized
// to line up with an AttendanceBar using the same labelW and barWidth.
func TargetMarker(target float64, labelW, barWidth int) string {
	t := theme.Active
	pos := int(target / 100 * float64(barWidth))
	if pos >= barWidth {
		pos = barWidth - 1
	}
	if pos < 0 {
		pos = 0
	}
	style := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	return style.Render(strings.Repeat(" ", labelW+1+pos) + "▲")
}

func truncLabel(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

// AttendanceBarRow renders a table row: name, a pre-padded middle column,
// then a colored bar and percentage.
func AttendanceBarRow(name string, nameW int, middle string, pct float64, barWidth int) string {
	t := theme.Active
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	midStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	bar := AttendanceBar("", pct, 0, 0, barWidth)
	return nameStyle.Render(fmt.Sprintf("%-*s", nameW, name)) +
		space.Render(" ") +
		midStyle.Render(middle) +
		space.Render(" ") +
		bar
}
