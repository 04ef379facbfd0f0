package tui

import (
	"fmt"
	"strconv"
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

const (
	calcFieldMiss = iota
	calcFieldRate
	calcFieldTarget
	calcFieldCount // sentinel
)

var calcLabels = [calcFieldCount]string{"Classes to miss", "Classes per day", "Custom target %"}

// calcState holds the what-if calculator inputs. Results are recomputed
// from the raw input text on every render.
type calcState struct {
	focus   int
	editing bool
	inputs  [calcFieldCount]textinput.Model
}

func newCalcState(avgPerDay float64) calcState {
	var c calcState
	for i := range c.inputs {
		ti := textinput.New()
		ti.CharLimit = 8
		ti.Width = 10
		ti.Prompt = ""
		c.inputs[i] = ti
	}
	c.inputs[calcFieldMiss].SetValue("1")
	c.inputs[calcFieldMiss].Placeholder = "0"
	c.inputs[calcFieldRate].SetValue(strconv.FormatFloat(avgPerDay, 'f', -1, 64))
	c.inputs[calcFieldRate].Placeholder = "8"
	c.inputs[calcFieldTarget].Placeholder = "80"
	return c
}

func (c *calcState) startEdit() tea.Cmd {
	c.editing = true
	c.inputs[c.focus].Focus()
	return c.inputs[c.focus].Cursor.BlinkCmd()
}

func (c *calcState) stopEdit() {
	c.editing = false
	c.inputs[c.focus].Blur()
}

func (a App) updateCalcInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		a.calc.stopEdit()
		return a, nil
	case "tab", "down":
		a.calc.stopEdit()
		a.calc.focus = (a.calc.focus + 1) % calcFieldCount
		return a, a.calc.startEdit()
	case "shift+tab", "up":
		a.calc.stopEdit()
		a.calc.focus = (a.calc.focus - 1 + calcFieldCount) % calcFieldCount
		return a, a.calc.startEdit()
	}

	var cmd tea.Cmd
	a.calc.inputs[a.calc.focus], cmd = a.calc.inputs[a.calc.focus].Update(msg)
	return a, cmd
}

// calcResult is everything the calculator derives from its inputs.
type calcResult struct {
	impact      attendance.AbsenceImpact
	rate        float64
	projections []attendance.Projection
	customErr   string
}

func (a App) computeCalc() calcResult {
	st := a.summary.State
	var r calcResult

	missed := attendance.ParseCount(a.calc.inputs[calcFieldMiss].Value())
	r.impact = attendance.SimulateAbsence(st.Attended, st.Total, missed)

	r.rate = attendance.ParseRate(a.calc.inputs[calcFieldRate].Value())
	for _, t := range a.cfg.Predictor.Targets() {
		if attendance.ValidTarget(t.Pct) {
			r.projections = append(r.projections, attendance.Project(st, t.Pct, r.rate))
		}
	}

	if raw := strings.TrimSpace(a.calc.inputs[calcFieldTarget].Value()); raw != "" {
		pct, err := strconv.ParseFloat(raw, 64)
		switch {
		case err != nil:
			r.customErr = "not a number"
		case !attendance.ValidTarget(pct):
			r.customErr = "must be between 0 and 100"
		default:
			r.projections = append(r.projections, attendance.Project(st, pct, r.rate))
		}
	}
	return r
}

func (a App) renderCalculatorTab(cw int) string {
	t := theme.Active
	st := a.summary.State
	res := a.computeCalc()

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	selLabel := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	marker := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	// Inputs
	var form strings.Builder
	for i := 0; i < calcFieldCount; i++ {
		if i > 0 {
			form.WriteString("\n")
		}
		name := fmt.Sprintf("%-18s", calcLabels[i]+":")
		if i == a.calc.focus {
			form.WriteString(marker.Render("▸ ") + selLabel.Render(name))
		} else {
			form.WriteString(space.Render("  ") + label.Render(name))
		}
		if a.calc.editing && i == a.calc.focus {
			form.WriteString(a.calc.inputs[i].View())
		} else {
			v := a.calc.inputs[i].Value()
			if v == "" {
				v = "-"
			}
			form.WriteString(value.Render(v))
		}
		if i == calcFieldTarget && res.customErr != "" {
			form.WriteString(warn.Render("  " + res.customErr))
		}
	}
	form.WriteString("\n\n")
	form.WriteString(label.Render("[j/k] select  [Enter] edit  [Tab] next field"))

	// Absence impact
	var impact strings.Builder
	impact.WriteString(components.KeyValue("Now", cli.FormatPercent(st.Percentage())+"  "+cli.FormatRatio(st.Attended, st.Total), 12))
	impact.WriteString("\n")
	after := lipgloss.NewStyle().Foreground(t.ForPercentage(res.impact.NewPercentage)).Background(t.Surface).Bold(true)
	impact.WriteString(label.Render(fmt.Sprintf("%-12s", "After")))
	impact.WriteString(after.Render(cli.FormatPercent(res.impact.NewPercentage)))
	impact.WriteString(value.Render("  " + cli.FormatRatio(st.Attended, res.impact.NewTotal)))
	impact.WriteString("\n\n")
	impact.WriteString(warn.Render(pipeline.AbsenceMessage(res.impact)))
	if !st.HasData() {
		impact.WriteString("\n")
		impact.WriteString(label.Render("No classes recorded yet."))
	}

	// Recovery plan
	ok := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	pending := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	var plan strings.Builder
	rate := res.rate
	if rate <= 0 {
		rate = 1
	}
	plan.WriteString(label.Render(fmt.Sprintf("At %s classes a day:", strconv.FormatFloat(rate, 'f', -1, 64))))
	for _, p := range res.projections {
		plan.WriteString("\n")
		plan.WriteString(value.Render(fmt.Sprintf("%-14s", fmt.Sprintf("%s %.0f%%", a.cfg.Predictor.LabelFor(p.Target), p.Target))))
		plan.WriteString(projectionLine(p, ok, pending, label))
	}

	var b strings.Builder
	b.WriteString(components.ContentCard("What If", form.String(), cw))
	b.WriteString("\n")
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Absence Impact", impact.String(), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Recovery Plan", plan.String(), cw))
	} else {
		halves := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Absence Impact", impact.String(), halves[0]),
			components.ContentCard("Recovery Plan", plan.String(), halves[1]),
		}))
	}
	return b.String()
}
