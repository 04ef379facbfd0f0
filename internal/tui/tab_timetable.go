package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/pipeline"
	"github.com/netrapro/netra/internal/tui/components"
	"github.com/netrapro/netra/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var weekdays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// timetableState is the weekday currently shown.
type timetableState struct {
	day string
}

func (s *timetableState) shift(delta int) {
	idx := 0
	for i, d := range weekdays {
		if d == s.day {
			idx = i
		}
	}
	idx = (idx + delta + len(weekdays)) % len(weekdays)
	s.day = weekdays[idx]
}

func (a App) renderTimetableTab(cw int) string {
	t := theme.Active
	today := pipeline.Weekday(time.Now())

	active := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright).Bold(true)
	todayStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Underline(true)
	plain := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	var picker strings.Builder
	for i, d := range weekdays {
		if i > 0 {
			picker.WriteString(space.Render(" "))
		}
		label := " " + cli.FormatDayOfWeek(d) + " "
		switch {
		case d == a.tt.day:
			picker.WriteString(active.Render(label))
		case d == today:
			picker.WriteString(todayStyle.Render(label))
		default:
			picker.WriteString(plain.Render(label))
		}
	}

	day, found := pipeline.ScheduleFor(a.dashboard().Timetable, a.tt.day)

	head := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Bold(true)
	num := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	slot := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	subj := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	fac := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	inner := components.CardInnerWidth(cw)
	subjW := max((inner-24)/2, 12)

	var body strings.Builder
	body.WriteString(picker.String())
	body.WriteString("\n\n")

	if !found || len(day.Periods) == 0 {
		body.WriteString(plain.Render("No classes scheduled."))
	} else {
		body.WriteString(head.Render(fmt.Sprintf("%-4s %-15s %-*s %s", "#", "Time", subjW, "Subject", "Faculty")))
		for i, p := range day.Periods {
			body.WriteString("\n")
			body.WriteString(num.Render(fmt.Sprintf("%-4s ", p.Number)))
			body.WriteString(slot.Render(fmt.Sprintf("%-15s ", pipeline.TimeSlot(i))))
			body.WriteString(subj.Render(fmt.Sprintf("%-*s ", subjW, truncStr(p.Subject, subjW))))
			body.WriteString(fac.Render(truncStr(p.Faculty, inner-subjW-21)))
		}
	}

	body.WriteString("\n\n")
	body.WriteString(plain.Render("[j/k] change day  [T] today"))

	title := "Timetable"
	if day.Day != "" {
		title += " · " + strings.ToUpper(day.Day[:1]) + strings.ToLower(day.Day[1:])
	}
	var b strings.Builder
	b.WriteString(components.ContentCard(title, body.String(), cw))

	if subjects := pipeline.UniqueSubjects(a.dashboard().Timetable); len(subjects) > 0 {
		b.WriteString("\n")
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Subjects This Week (%d)", len(subjects)),
			fac.Render(strings.Join(subjects, " · ")),
			cw,
		))
	}
	return b.String()
}
