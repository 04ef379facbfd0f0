package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/netrapro/netra/internal/attendance"
	"github.com/netrapro/netra/internal/config"
	"github.com/netrapro/netra/internal/portal"
	"github.com/netrapro/netra/internal/tui/components"
	"github.com/netrapro/netra/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldMinimum
	settingsFieldRecommended
	settingsFieldPerDay
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldBackend
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save or validation failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false
	a.settings.saveErr = nil

	ti := newSettingsInput()
	p := a.cfg.Predictor

	switch a.settings.cursor {
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldMinimum:
		ti.Placeholder = "65"
		ti.SetValue(formatFloat(p.MinimumTarget))
	case settingsFieldRecommended:
		ti.Placeholder = "75"
		ti.SetValue(formatFloat(p.RecommendedTarget))
	case settingsFieldPerDay:
		ti.Placeholder = "8"
		ti.SetValue(formatFloat(p.AvgClassesPerDay))
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.autoRefresh))
	case settingsFieldRefreshInterval:
		ti.Placeholder = "300 (seconds, minimum 30)"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	case settingsFieldBackend:
		ti.Placeholder = portal.DefaultBaseURL
		ti.SetValue(a.cfg.Portal.BaseURL)
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited field to the live config and persists it.
// Invalid values leave the config untouched.
func (a *App) settingsSave() {
	cfg := a.cfg
	val := strings.TrimSpace(a.settings.input.Value())

	switch a.settings.cursor {
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return
		}
		cfg.Appearance.Theme = val
	case settingsFieldMinimum, settingsFieldRecommended:
		pct, err := strconv.ParseFloat(val, 64)
		if err != nil || !attendance.ValidTarget(pct) {
			a.settings.saveErr = fmt.Errorf("target must be between 0 and 100")
			return
		}
		if a.settings.cursor == settingsFieldMinimum {
			cfg.Predictor.MinimumTarget = pct
		} else {
			cfg.Predictor.RecommendedTarget = pct
		}
	case settingsFieldPerDay:
		rate := attendance.ParseRate(val)
		if rate <= 0 {
			a.settings.saveErr = fmt.Errorf("classes per day must be positive")
			return
		}
		cfg.Predictor.AvgClassesPerDay = rate
	case settingsFieldAutoRefresh:
		cfg.TUI.AutoRefresh = val == "true" || val == "1" || val == "yes"
	case settingsFieldRefreshInterval:
		sec, err := strconv.Atoi(val)
		if err != nil || sec < 30 {
			a.settings.saveErr = fmt.Errorf("interval must be at least 30 seconds")
			return
		}
		cfg.TUI.RefreshIntervalSec = sec
	case settingsFieldBackend:
		cfg.Portal.BaseURL = val
	}

	a.apply(cfg)
	a.settings.saveErr = config.Save(cfg)
}

// apply swaps in cfg and re-derives everything that depends on it.
func (a *App) apply(cfg config.Config) {
	a.cfg = cfg
	theme.SetActive(cfg.Appearance.Theme)
	a.autoRefresh = cfg.TUI.AutoRefresh
	a.refreshInterval = time.Duration(cfg.TUI.RefreshIntervalSec) * time.Second
	if a.client == nil || cfg.Portal.BaseURL != a.client.BaseURL() {
		a.client = portal.NewClient(cfg.Portal.BaseURL, cfg.Timeout())
	}
	if a.result != nil {
		a.summary = summarize(a.result, cfg)
	}
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	p := a.cfg.Predictor

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	backend := a.cfg.Portal.BaseURL
	if backend == "" {
		backend = portal.DefaultBaseURL + " (default)"
	}

	fields := []struct{ label, value string }{
		{"Theme", a.cfg.Appearance.Theme},
		{"Minimum Target", formatFloat(p.MinimumTarget) + "%"},
		{"Recommended Target", formatFloat(p.RecommendedTarget) + "%"},
		{"Classes Per Day", formatFloat(p.AvgClassesPerDay)},
		{"Auto Refresh", strconv.FormatBool(a.autoRefresh)},
		{"Refresh Interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
		{"Backend URL", backend},
	}

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-20s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-20s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker + label + value)
			padLen := components.CardInnerWidth(cw) - lipgloss.Width(marker) - lipgloss.Width(label) - lipgloss.Width(value)
			if padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-20s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Not saved: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	const kw = 17
	var info strings.Builder
	info.WriteString(components.KeyValue("Logged in as:", a.creds.Username, kw) + "\n")
	if a.profile != nil && a.profile.HallTicket != "" {
		info.WriteString(components.KeyValue("Hall ticket:", a.profile.HallTicket, kw) + "\n")
	}
	info.WriteString(components.KeyValue("Config file:", config.Path(), kw) + "\n")
	cache := a.cachePath
	if cache == "" {
		cache = "(disabled)"
	}
	info.WriteString(components.KeyValue("Snapshot cache:", cache, kw) + "\n")
	info.WriteString(components.KeyValue("Last load:", fmt.Sprintf("%.1fs", a.loadTime.Seconds()), kw))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Account", info.String(), cw))

	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
