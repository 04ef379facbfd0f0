package tui

import (
	"fmt"
	"strings"

	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/model"
	"github.com/netrapro/netra/internal/tui/components"
	"github.com/netrapro/netra/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderSubjectsTab(cw int) string {
	t := theme.Active
	subjects := a.summary.Subjects

	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	head := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Bold(true)
	warn := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	if len(subjects) == 0 {
		return components.ContentCard("Subjects", dim.Render("No subject data from the portal yet."), cw)
	}

	inner := components.CardInnerWidth(cw)
	nameW := 0
	for _, s := range subjects {
		nameW = max(nameW, len([]rune(s.Name)))
	}
	nameW = min(max(nameW, 8), 28)
	countW := 9
	barW := max(inner-nameW-countW-22, 8)

	var b strings.Builder
	b.WriteString(head.Render(fmt.Sprintf("  %-*s %-*s ", nameW, "Subject", countW, "Classes")))
	b.WriteString(head.Render("Attendance"))
	b.WriteString("\n")

	for i, s := range subjects {
		if i > 0 {
			b.WriteString("\n")
		}
		marker := space.Render("  ")
		if s.Low() {
			marker = warn.Render("⚠ ")
		}
		b.WriteString(marker)
		b.WriteString(components.AttendanceBarRow(
			truncStr(s.Name, nameW), nameW,
			fmt.Sprintf("%-*s", countW, cli.FormatRatio(s.Attended, s.Total)),
			s.Percentage, barW))
	}

	b.WriteString("\n\n")
	b.WriteString(dim.Render(subjectFooter(subjects)))

	title := fmt.Sprintf("Subjects (%d)", len(subjects))
	return components.ContentCard(title, b.String(), cw)
}

func subjectFooter(subjects []model.SubjectStats) string {
	low := 0
	for _, s := range subjects {
		if s.Low() {
			low++
		}
	}
	if low == 0 {
		return fmt.Sprintf("All subjects at or above %.0f%%.", model.LowThreshold)
	}
	return fmt.Sprintf("%d %s below %.0f%%. Sorted lowest first.",
		low, cli.Plural(low, "subject", "subjects"), model.LowThreshold)
}
