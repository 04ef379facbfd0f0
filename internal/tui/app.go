// Package tui provides the interactive Bubble Tea dashboard for netra.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/config"
	"github.com/netrapro/netra/internal/model"
	"github.com/netrapro/netra/internal/pipeline"
	"github.com/netrapro/netra/internal/portal"
	"github.com/netrapro/netra/internal/session"
	"github.com/netrapro/netra/internal/store"
	"github.com/netrapro/netra/internal/tui/components"
	"github.com/netrapro/netra/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DataLoadedMsg is sent when a dashboard load finishes.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	Trend    []store.Point
	Err      error
	LoadTime time.Duration
	Refresh  bool
}

// Options wires the dashboard to its collaborators.
type Options struct {
	Config    config.Config
	Client    *portal.Client
	Sessions  *session.Manager
	CachePath string // empty disables the snapshot cache
	Offline   bool
}

// App is the root Bubble Tea model.
type App struct {
	cfg       config.Config
	client    *portal.Client
	sessions  *session.Manager
	cachePath string
	offline   bool

	// Session
	creds     model.Credentials
	loggedIn  bool
	loggingIn bool
	profile   *model.Profile
	loginForm *huh.Form
	loginVals *loginValues
	loginErr  error

	// Data
	result   *pipeline.LoadResult
	summary  pipeline.Summary
	history  []pipeline.DayView
	trend    []store.Point
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	hist     historyState
	tt       timetableState
	calc     calcState
	settings settingsState

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5 // minimum content area height
	loadTimeout      = 45 * time.Second
)

const (
	tabOverview = iota
	tabSubjects
	tabHistory
	tabTimetable
	tabCalculator
	tabSettings
)

// NewApp creates a new TUI app model. A stored session skips the login form.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		cfg:             opts.Config,
		client:          opts.Client,
		sessions:        opts.Sessions,
		cachePath:       opts.CachePath,
		offline:         opts.Offline,
		loginVals:       &loginValues{},
		autoRefresh:     opts.Config.TUI.AutoRefresh,
		refreshInterval: opts.Config.RefreshInterval(),
		spinner:         sp,
		calc:            newCalcState(opts.Config.Predictor.AvgClassesPerDay),
		tt:              timetableState{day: pipeline.Weekday(time.Now())},
	}

	if s, err := opts.Sessions.Current(); err == nil {
		a.creds = s.Credentials()
		a.loggedIn = true
		a.loginVals.Username = s.Username
	} else {
		a.loginForm = newLoginForm(a.loginVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		tickCmd(),
	}
	if a.loggedIn {
		cmds = append(cmds, a.loadCmd(false))
	} else if a.loginForm != nil {
		cmds = append(cmds, a.loginForm.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.loginForm != nil {
			a.loginForm = a.loginForm.WithWidth(min(msg.Width-8, 60)).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.loginForm != nil {
			return a, nil
		}

		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scroll(-1)
			return a, nil
		case tea.MouseButtonWheelDown:
			a.scroll(1)
			return a, nil
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
			return a, nil
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if a.loginForm != nil {
			return a.updateLoginForm(msg)
		}

		if !a.loaded {
			return a, nil
		}

		// Text inputs intercept all keys while focused.
		if a.activeTab == tabSettings && a.settings.editing {
			return a.updateSettingsInput(msg)
		}
		if a.activeTab == tabHistory && a.hist.searching {
			return a.updateHistorySearch(msg)
		}
		if a.activeTab == tabCalculator && a.calc.editing {
			return a.updateCalcInput(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if m, cmd, handled := a.updateTabKeys(key); handled {
			return m, cmd
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "r":
			if !a.refreshing {
				a.refreshing = true
				return a, a.loadCmd(true)
			}
			return a, nil
		case "R":
			a.autoRefresh = !a.autoRefresh
			a.cfg.TUI.AutoRefresh = a.autoRefresh
			_ = config.Save(a.cfg)
			return a, nil
		case "L":
			_ = a.sessions.Logout()
			a.loggedIn = false
			a.loaded = false
			a.result = nil
			return a, a.openLogin()
		case "left":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
			return a, nil
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
			return a, nil
		}

		if len(key) == 1 {
			if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
				a.activeTab = idx
			}
		}
		return a, nil

	case LoginResultMsg:
		a.loggingIn = false
		if msg.Err != nil {
			a.loginErr = msg.Err
			return a, a.openLogin()
		}
		a.creds = msg.Session.Credentials()
		a.profile = msg.Profile
		a.loggedIn = true
		a.loginErr = nil
		return a, a.loadCmd(false)

	case DataLoadedMsg:
		return a.applyLoad(msg)

	case spinner.TickMsg:
		if !a.loaded || a.refreshing || a.loggingIn {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.loggedIn && a.autoRefresh && !a.refreshing && !a.offline {
			if time.Since(a.lastRefresh) >= a.refreshInterval {
				a.refreshing = true
				cmds = append(cmds, a.loadCmd(true), a.spinner.Tick)
			}
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages (cursor blinks, etc.) to the login form.
	if a.loginForm != nil {
		return a.updateLoginForm(msg)
	}

	return a, nil
}

// applyLoad folds a finished load into the model. A rejected login clears
// the stored session and sends the user back to the login form.
func (a App) applyLoad(msg DataLoadedMsg) (tea.Model, tea.Cmd) {
	a.refreshing = false
	a.lastRefresh = time.Now()
	a.loadTime = msg.LoadTime

	if msg.Err != nil {
		if a.sessions.Invalidate(msg.Err) {
			a.loggedIn = false
			a.loaded = false
			a.result = nil
			a.loginErr = portal.ErrUnauthorized
			return a, a.openLogin()
		}
		// Keep showing stale data on a failed refresh.
		a.loadErr = msg.Err
		a.loaded = true
		return a, nil
	}

	a.loadErr = nil
	a.loaded = true
	a.result = msg.Result
	a.trend = msg.Trend
	if msg.Result != nil && msg.Result.Dashboard != nil {
		d := msg.Result.Dashboard
		if d.Profile != nil {
			a.profile = d.Profile
		}
		a.summary = summarize(msg.Result, a.cfg)
		if d.Overall != nil {
			a.history = pipeline.WeeklyHistory(d.Overall.Days, len(d.Overall.Days))
		} else {
			a.history = nil
		}
	}
	a.hist.clamp(len(a.filteredHistory()))
	return a, nil
}

func summarize(r *pipeline.LoadResult, cfg config.Config) pipeline.Summary {
	return pipeline.Summarize(r.Dashboard, cfg.Predictor)
}

// dashboard returns the loaded dashboard, or an empty one before any load.
func (a App) dashboard() *model.Dashboard {
	if a.result == nil || a.result.Dashboard == nil {
		return &model.Dashboard{}
	}
	return a.result.Dashboard
}

func (a *App) scroll(delta int) {
	switch a.activeTab {
	case tabHistory:
		a.hist.cursor += delta
		a.hist.clamp(len(a.filteredHistory()))
	case tabTimetable:
		a.tt.shift(delta)
	case tabSettings:
		a.settings.cursor = max(0, min(a.settings.cursor+delta, settingsFieldCount-1))
	}
}

// updateTabKeys handles keys specific to the active tab.
func (a App) updateTabKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch a.activeTab {
	case tabHistory:
		switch key {
		case "/":
			a.hist.searching = true
			a.hist.input = newSearchInput(a.hist.query)
			a.hist.input.Focus()
			return a, a.hist.input.Cursor.BlinkCmd(), true
		case "esc":
			a.hist.query = ""
			a.hist.cursor = 0
			return a, nil, true
		case "j", "down":
			a.scroll(1)
			return a, nil, true
		case "k", "up":
			a.scroll(-1)
			return a, nil, true
		}

	case tabTimetable:
		switch key {
		case "j", "down", "n":
			a.tt.shift(1)
			return a, nil, true
		case "k", "up", "p":
			a.tt.shift(-1)
			return a, nil, true
		case "T":
			a.tt.day = pipeline.Weekday(time.Now())
			return a, nil, true
		}

	case tabCalculator:
		switch key {
		case "enter", "e":
			cmd := a.calc.startEdit()
			return a, cmd, true
		case "j", "down":
			a.calc.focus = (a.calc.focus + 1) % calcFieldCount
			return a, nil, true
		case "k", "up":
			a.calc.focus = (a.calc.focus - 1 + calcFieldCount) % calcFieldCount
			return a, nil, true
		}

	case tabSettings:
		switch key {
		case "j", "down":
			a.scroll(1)
			return a, nil, true
		case "k", "up":
			a.scroll(-1)
			return a, nil, true
		case "enter":
			m, cmd := a.settingsStartEdit()
			return m, cmd, true
		}
	}
	return a, nil, false
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if a.loginForm != nil {
		return a.viewLogin()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  netra needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	spinnerStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ netra"))
	b.WriteString(subtitleStyle.Render(" · Attendance Dashboard"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	if a.loggingIn {
		b.WriteString(subtitleStyle.Render(" Signing in as " + a.loginVals.Username + "..."))
	} else {
		b.WriteString(subtitleStyle.Render(" Fetching attendance..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o s h t c x", "Jump to tab"},
			{"← → Tab", "Previous / Next tab"},
			{"j k", "Navigate lists and days"},
			{"T", "Today's timetable"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"/", "Search history"},
			{"Enter", "Edit field / Confirm"},
			{"Esc", "Back / Clear search"},
			{"r", "Refresh data"},
			{"R", "Toggle auto-refresh"},
			{"L", "Log out"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-12s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusInfo() components.StatusInfo {
	info := components.StatusInfo{
		Student:     a.profile.DisplayName(a.creds.Username),
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh && !a.offline,
	}
	if a.result != nil {
		info.FromCache = a.result.FromCache
		if d := a.result.Dashboard; d != nil {
			info.DataAge = cli.FormatAge(d.FetchedAt, time.Now())
		}
		if a.result.Warning != nil {
			info.Warning = "partial data"
		}
	}
	if a.loadErr != nil {
		info.Warning = "refresh failed"
	}
	return info
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.statusInfo())

	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := h - headerH - statusH
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabSubjects:
		content = a.renderSubjectsTab(cw)
	case tabHistory:
		content = a.renderHistoryTab(cw, contentH)
	case tabTimetable:
		content = a.renderTimetableTab(cw)
	case tabCalculator:
		content = a.renderCalculatorTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	if a.loadErr != nil {
		content = a.renderErrorBanner(cw) + "\n" + content
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderErrorBanner(cw int) string {
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Width(cw).Padding(0, 1)
	msg := a.loadErr.Error()
	if errors.Is(a.loadErr, pipeline.ErrOffline) {
		msg = "Nothing cached yet. Run once online to build the cache."
	}
	return style.Render("⚠ " + truncStr(msg, cw-6))
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadCmd fetches the dashboard through the loader, reading and writing the
// snapshot cache when one is configured.
func (a App) loadCmd(refresh bool) tea.Cmd {
	client, creds, cachePath := a.client, a.creds, a.cachePath
	opts := pipeline.LoadOptions{
		Offline:       a.offline,
		NoCache:       cachePath == "",
		KeepSnapshots: a.cfg.Cache.KeepSnapshots,
	}

	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		var snaps pipeline.Snapshots
		var cache *store.Cache
		if !opts.NoCache {
			if c, err := store.Open(cachePath); err == nil {
				cache = c
				snaps = c
				defer c.Close()
			}
		}

		res, err := pipeline.Load(ctx, client, snaps, creds, opts)
		msg := DataLoadedMsg{Result: res, Err: err, Refresh: refresh}
		if err == nil && cache != nil {
			msg.Trend, _ = cache.History(creds.Username, 30)
		}
		msg.LoadTime = time.Since(start)
		return msg
	}
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// One-column separator between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
