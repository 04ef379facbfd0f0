package tui

import (
	"fmt"
	"strings"

	"github.com/netrapro/netra/internal/attendance"
	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/pipeline"
	"github.com/netrapro/netra/internal/tui/components"
	"github.com/netrapro/netra/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// historyState tracks the history tab's cursor and date search.
type historyState struct {
	cursor    int
	searching bool
	input     textinput.Model
	query     string
}

func (h *historyState) clamp(n int) {
	if h.cursor >= n {
		h.cursor = n - 1
	}
	if h.cursor < 0 {
		h.cursor = 0
	}
}

func newSearchInput(value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "date, e.g. 2025-03 or 14"
	ti.CharLimit = 32
	ti.Width = 30
	ti.Prompt = "/ "
	ti.SetValue(value)
	return ti
}

// updateHistorySearch handles key events while the search input is focused.
// The list filters live as the query changes.
func (a App) updateHistorySearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.hist.query = strings.TrimSpace(a.hist.input.Value())
		a.hist.searching = false
		a.hist.clamp(len(a.filteredHistory()))
		return a, nil
	case "esc":
		a.hist.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.hist.input, cmd = a.hist.input.Update(msg)
	a.hist.cursor = 0
	return a, cmd
}

// filteredHistory applies the live search input while typing, otherwise the
// committed query.
func (a App) filteredHistory() []pipeline.DayView {
	q := a.hist.query
	if a.hist.searching {
		q = a.hist.input.Value()
	}
	return pipeline.FilterDays(a.history, q)
}

func (a App) renderHistoryTab(cw, h int) string {
	t := theme.Active
	days := a.filteredHistory()

	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	head := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Bold(true)
	sel := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	marker := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	space := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder

	// Weekly chart over the most recent days, oldest on the left.
	week := a.history
	if len(week) > pipeline.WeeklyHistoryDays {
		week = week[:pipeline.WeeklyHistoryDays]
	}
	if len(week) > 0 && !a.isCompactLayout() {
		vals := make([]float64, len(week))
		labels := make([]string, len(week))
		for i, d := range week {
			j := len(week) - 1 - i
			vals[j] = d.Percentage
			labels[j] = shortDate(d.Date)
		}
		chart := components.PercentChart(vals, labels, a.cfg.Predictor.RecommendedTarget,
			components.CardInnerWidth(cw), 6)
		b.WriteString(components.ContentCard("Last 7 Days", chart, cw))
		b.WriteString("\n")
	}

	var list strings.Builder
	switch {
	case a.hist.searching:
		list.WriteString(a.hist.input.View())
		list.WriteString("\n\n")
	case a.hist.query != "":
		list.WriteString(dim.Render(fmt.Sprintf("Filter: %q  [Esc] clear", a.hist.query)))
		list.WriteString("\n\n")
	}

	if len(days) == 0 {
		list.WriteString(dim.Render("No days match."))
		b.WriteString(components.ContentCard("History", list.String(), cw))
		return b.String()
	}

	list.WriteString(head.Render(fmt.Sprintf("  %-14s %-18s %3s %3s %3s %8s  %s",
		"Date", "Periods", "P", "A", "N", "Day %", "Rating")))
	list.WriteString("\n")

	// Reserve room for the chart card, list header and card chrome.
	visible := max(h-lipgloss.Height(b.String())-6, 3)
	offset := 0
	if a.hist.cursor >= visible {
		offset = a.hist.cursor - visible + 1
	}
	end := min(offset+visible, len(days))

	inner := components.CardInnerWidth(cw)
	for i := offset; i < end; i++ {
		d := days[i]
		rating := lipgloss.NewStyle().Foreground(t.ForRating(d.Rating)).Background(t.Surface)
		if i == a.hist.cursor {
			rating = rating.Background(t.SurfaceBright)
		}

		style := row
		prefix := space.Render("  ")
		if i == a.hist.cursor {
			style = sel
			prefix = marker.Render("▸ ")
		}

		line := prefix +
			style.Render(fmt.Sprintf("%-14s ", cli.FormatDate(d.Date))) +
			periodGlyphs(d, 18, i == a.hist.cursor) +
			style.Render(fmt.Sprintf(" %3d %3d %3d %7.1f%%  ",
				d.Counts.Present, d.Counts.Absent, d.Counts.NotMarked, d.Percentage)) +
			rating.Render(d.RatingText)

		if i == a.hist.cursor {
			if pad := inner - lipgloss.Width(line); pad > 0 {
				line += sel.Render(strings.Repeat(" ", pad))
			}
		}
		list.WriteString(line)
		if i < end-1 {
			list.WriteString("\n")
		}
	}

	list.WriteString("\n\n")
	list.WriteString(dim.Render(fmt.Sprintf("%d of %d days  [/] search  [j/k] move", len(days), len(a.history))))

	b.WriteString(components.ContentCard("History", list.String(), cw))
	return b.String()
}

// periodGlyphs renders one colored letter per period, padded to width.
func periodGlyphs(d pipeline.DayView, width int, selected bool) string {
	t := theme.Active
	bg := t.Surface
	if selected {
		bg = t.SurfaceBright
	}

	var b strings.Builder
	n := 0
	for _, p := range d.Periods {
		if n >= width {
			break
		}
		color := t.TextDim
		if p.Status != nil {
			switch *p.Status {
			case attendance.StatusPresent:
				color = t.Green
			case attendance.StatusAbsent:
				color = t.Red
			}
		}
		b.WriteString(lipgloss.NewStyle().Foreground(color).Background(bg).Bold(true).Render(attendance.StatusGlyph(p.Status)))
		n++
		if n < width {
			b.WriteString(lipgloss.NewStyle().Background(bg).Render(" "))
			n++
		}
	}
	if n < width {
		b.WriteString(lipgloss.NewStyle().Background(bg).Render(strings.Repeat(" ", width-n)))
	}
	return b.String()
}

// shortDate turns "2025-03-14" into its weekday, "Fri", for chart labels.
func shortDate(s string) string {
	formatted := cli.FormatDate(s)
	if formatted == s {
		return truncStr(s, 5)
	}
	parts := strings.Fields(formatted)
	return parts[0][:3]
}
