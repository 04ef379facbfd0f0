package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/netrapro/netra/internal/attendance"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorYellow    = lipgloss.Color("#D0A215")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
	// LeftCols is how many leading columns are left-aligned; the rest are
	// right-aligned. Zero means 1.
	LeftCols int
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
// Cells may carry ANSI styling; widths are measured on visible text.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	left := t.LeftCols
	if left <= 0 {
		left = 1
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(l, mid, r string) {
		b.WriteString(dimStyle.Render(l))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(r))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + pad(h, widths[i], true) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		rule("├", "┼", "┤")
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(valueStyle.Render(" " + pad(cell, widths[i], i < left) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╰", "┴", "╯")
	return b.String()
}

// pad fills s with spaces to visible width w.
func pad(s string, w int, leftAlign bool) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if leftAlign {
		return s + strings.Repeat(" ", gap)
	}
	return strings.Repeat(" ", gap) + s
}

// InsightColor maps an insight to its display color.
func InsightColor(i attendance.Insight) lipgloss.Color {
	switch i {
	case attendance.Good:
		return ColorGreen
	case attendance.Warning:
		return ColorYellow
	default:
		return ColorRed
	}
}

// RenderInsight renders the insight label in its color.
func RenderInsight(i attendance.Insight) string {
	return lipgloss.NewStyle().Bold(true).Foreground(InsightColor(i)).Render(i.String())
}

// RenderPercent renders pct colored by its classification.
func RenderPercent(pct float64) string {
	return lipgloss.NewStyle().Foreground(InsightColor(attendance.Classify(pct))).Render(FormatPercent(pct))
}

// RenderStatusGlyph renders a period status as a colored single letter.
func RenderStatusGlyph(status *int) string {
	c := ColorTextMuted
	if status != nil {
		switch *status {
		case attendance.StatusPresent:
			c = ColorGreen
		case attendance.StatusAbsent:
			c = ColorRed
		}
	}
	return lipgloss.NewStyle().Foreground(c).Render(attendance.StatusGlyph(status))
}

// RenderProgressBar renders pct (0-100) as a bar with a marker at target.
func RenderProgressBar(pct, target float64, width int) string {
	if width <= 0 {
		return ""
	}
	pct = clamp(pct, 0, 100)

	filled := int(pct / 100 * float64(width))
	mark := int(clamp(target, 0, 100) / 100 * float64(width))
	if mark >= width {
		mark = width - 1
	}

	color := InsightColor(attendance.Classify(pct))
	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == mark && i >= filled:
			b.WriteString(mutedStyle.Render("┃"))
		case i < filled:
			b.WriteString(lipgloss.NewStyle().Foreground(color).Render("█"))
		default:
			b.WriteString(dimStyle.Render("░"))
		}
	}
	return fmt.Sprintf("[%s] %s", b.String(), FormatPercent(pct))
}

// RenderSparkline generates a unicode block sparkline from percentages.
// The scale spans the series' own min..max so small moves stay visible.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo

	var b strings.Builder
	for _, v := range values {
		idx := len(blocks) - 1
		if span > 0 {
			idx = int((v - lo) / span * float64(len(blocks)-1))
		}
		b.WriteRune(blocks[max(0, min(idx, len(blocks)-1))])
	}

	return b.String()
}

// RenderHorizontalBar renders a bar of value/maxValue*maxWidth cells.
func RenderHorizontalBar(value, maxValue float64, maxWidth int) string {
	if maxValue <= 0 || maxWidth <= 0 {
		return ""
	}
	barLen := int(clamp(value/maxValue, 0, 1) * float64(maxWidth))
	return strings.Repeat("█", barLen) + dimStyle.Render(strings.Repeat("░", maxWidth-barLen))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
