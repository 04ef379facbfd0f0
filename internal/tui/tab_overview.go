package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/netrapro/netra/internal/attendance"
	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/pipeline"
	"github.com/netrapro/netra/internal/tui/components"
	"github.com/netrapro/netra/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	s := a.summary
	var b strings.Builder

	// Row 1: headline metrics
	reported := ""
	if s.ReportedPercentage > 0 {
		reported = "portal " + cli.FormatPercent(s.ReportedPercentage)
	}
	cards := []components.Metric{
		{Label: "Attendance", Value: cli.FormatPercent(s.Percentage), Delta: reported, Color: t.ForInsight(s.Insight)},
		{Label: "Classes", Value: cli.FormatRatio(s.State.Attended, s.State.Total), Delta: "attended / held"},
		{Label: "Missed", Value: cli.FormatNumber(int64(s.State.Missed())), Delta: cli.Plural(s.State.Missed(), "class", "classes")},
		{Label: "Status", Value: s.Status, Delta: fmt.Sprintf("%d low %s", s.LowSubjects, cli.Plural(s.LowSubjects, "subject", "subjects")), Color: t.ForInsight(s.Insight)},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: insight + targets
	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		b.WriteString(a.renderInsightCard(cw))
		b.WriteString("\n")
		b.WriteString(a.renderTargetsCard(cw))
	} else {
		b.WriteString(components.CardRow([]string{a.renderInsightCard(halves[0]), a.renderTargetsCard(halves[1])}))
	}
	b.WriteString("\n")

	// Row 3: today's classes + trend
	if a.isCompactLayout() {
		b.WriteString(a.renderTodayCard(cw))
		if trend := a.renderTrendCard(cw); trend != "" {
			b.WriteString("\n")
			b.WriteString(trend)
		}
	} else {
		b.WriteString(components.CardRow([]string{a.renderTodayCard(halves[0]), a.renderTrendCard(halves[1])}))
	}
	b.WriteString("\n")

	// Row 4: recommendations
	var rec strings.Builder
	bullet := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	for i, r := range s.Recommendations {
		if i > 0 {
			rec.WriteString("\n")
		}
		rec.WriteString(bullet.Render("• ") + text.Render(r))
	}
	b.WriteString(components.ContentCard("Recommendations", rec.String(), cw))

	return b.String()
}

func (a App) renderInsightCard(w int) string {
	t := theme.Active
	s := a.summary
	color := t.ForInsight(s.Insight)

	title := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	body := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(title.Render(s.Insight.Title()))
	b.WriteString("\n")
	b.WriteString(body.Render(s.Insight.Message()))
	b.WriteString("\n\n")
	b.WriteString(dim.Render(s.Insight.Tagline()))

	note := lipgloss.NewStyle().Foreground(t.Blue).Background(t.Surface)
	for _, n := range s.Notes {
		b.WriteString("\n\n")
		b.WriteString(note.Bold(true).Render(n.Title))
		b.WriteString("\n")
		b.WriteString(body.Render(n.Message))
	}

	name := a.profile.DisplayName(a.creds.Username)
	return components.ContentCard("Welcome, "+name, b.String(), w)
}

func (a App) renderTargetsCard(w int) string {
	t := theme.Active
	s := a.summary
	inner := components.CardInnerWidth(w)

	labelW := 12
	barW := max(inner-labelW-18, 10)

	ok := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	pending := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	for i, p := range s.Projections {
		if i > 0 {
			b.WriteString("\n")
		}
		label := a.cfg.Predictor.LabelFor(p.Target)
		b.WriteString(components.AttendanceBar(label, s.Percentage, p.Target, labelW, barW))
		b.WriteString("\n")
		b.WriteString(dim.Render(strings.Repeat(" ", labelW+1)))
		b.WriteString(projectionLine(p, ok, pending, dim))
	}
	if len(s.Projections) == 0 {
		b.WriteString(dim.Render("No targets configured."))
	}
	return components.ContentCard("Targets", b.String(), w)
}

func projectionLine(p attendance.Projection, ok, pending, dim lipgloss.Style) string {
	switch p.Status {
	case attendance.TargetMet:
		return ok.Render("✓ achieved")
	case attendance.NoData:
		return dim.Render("no classes recorded yet")
	default:
		return pending.Render(fmt.Sprintf("%d more %s", p.ClassesNeeded, cli.Plural(p.ClassesNeeded, "class", "classes"))) +
			dim.Render(fmt.Sprintf(" (~%d %s)", p.DaysNeeded, cli.Plural(p.DaysNeeded, "day", "days")))
	}
}

func (a App) renderTodayCard(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	subj := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	slot := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	day, found := pipeline.TodaySchedule(a.dashboard().Timetable, time.Now())

	var b strings.Builder
	if !found || len(day.Periods) == 0 {
		b.WriteString(dim.Render("No classes scheduled today."))
	}
	inner := components.CardInnerWidth(w)
	for i, p := range day.Periods {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(slot.Render(fmt.Sprintf("%-14s", pipeline.TimeSlot(i))))
		b.WriteString(subj.Render(truncStr(p.Subject, inner-15)))
	}
	return components.ContentCard("Today · "+cli.FormatDayOfWeek(day.Day), b.String(), w)
}

func (a App) renderTrendCard(w int) string {
	if len(a.trend) < 2 {
		return ""
	}
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	vals := make([]float64, len(a.trend))
	for i, p := range a.trend {
		vals[i] = p.Percentage
	}
	first, last := vals[0], vals[len(vals)-1]

	var b strings.Builder
	b.WriteString(components.Sparkline(vals, t.ForPercentage(last)))
	b.WriteString("\n")
	b.WriteString(dim.Render(fmt.Sprintf("%s → %s over %d snapshots",
		cli.FormatPercent(first), cli.FormatPercent(last), len(vals))))
	return components.ContentCard("Trend", b.String(), w)
}
