package components

import (
	"fmt"
	"strings"

	"github.com/netrapro/netra/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values scaled between their own min and max, so small
// day-to-day movements in a percentage stay visible.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := len(sparkBlocks) - 1
		if span > 0 {
			idx = int((v - lo) / span * float64(len(sparkBlocks)-1))
		}
		idx = max(0, min(idx, len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[idx])
	}

	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// PercentChart renders one vertical bar per value on a fixed 0..100 scale.
// Each bar takes the color of its attendance band and target is drawn as a
// dotted rule across empty cells.
func PercentChart(values []float64, labels []string, target float64, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active
	if height < 4 {
		height = 4
	}

	const yLabelW = 4
	chartW := width - yLabelW - 1
	n := len(values)

	barW := 1
	if n > 0 {
		barW = (chartW - (n - 1)) / n
	}
	barW = max(1, min(barW, 6))
	axisLen := n*barW + (n - 1)

	blocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	ruleStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)
	targetRow := int(target / 100 * float64(height))

	var b strings.Builder
	for row := height; row >= 1; row-- {
		rowTop := 100 * float64(row) / float64(height)
		rowBottom := 100 * float64(row-1) / float64(height)

		label := ""
		switch row {
		case height:
			label = "100"
		case height / 2:
			label = "50"
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, label)))
		b.WriteString(axisStyle.Render("│"))

		for i, v := range values {
			if i > 0 {
				b.WriteString(space.Render(" "))
			}
			barStyle := lipgloss.NewStyle().Foreground(t.ForPercentage(v)).Background(t.Surface)
			switch {
			case v >= rowTop:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > rowBottom:
				idx := int((v - rowBottom) / (rowTop - rowBottom) * 8)
				idx = max(1, min(idx, 8))
				b.WriteString(barStyle.Render(strings.Repeat(string(blocks[idx]), barW)))
			case row == targetRow:
				b.WriteString(ruleStyle.Render(strings.Repeat("┈", barW)))
			default:
				b.WriteString(space.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└" + strings.Repeat("─", axisLen)))

	if len(labels) == n {
		var lb strings.Builder
		for i, l := range labels {
			if i > 0 {
				lb.WriteString(" ")
			}
			lb.WriteString(fmt.Sprintf("%-*s", barW, truncLabel(l, barW)))
		}
		b.WriteString("\n")
		b.WriteString(space.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(strings.TrimRight(lb.String(), " ")))
	}

	return b.String()
}
