package tui

import (
	"context"
	"strings"
	"time"

	"github.com/netrapro/netra/internal/model"
	"github.com/netrapro/netra/internal/session"
	"github.com/netrapro/netra/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const loginTimeout = 30 * time.Second

// loginValues backs the login form fields. It lives behind a pointer so the
// form keeps writing to the same memory while App is copied by value.
type loginValues struct {
	Username string
	Password string
}

func (v *loginValues) credentials() model.Credentials {
	return model.Credentials{Username: strings.TrimSpace(v.Username), Password: v.Password}
}

// LoginResultMsg is sent when a login attempt finishes.
type LoginResultMsg struct {
	Session *session.Session
	Profile *model.Profile
	Err     error
}

func newLoginForm(vals *loginValues) *huh.Form {
	vals.Password = ""
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Netra Attendance").
				Description("Sign in with your Netra portal credentials."),
			huh.NewInput().
				Title("Username").
				Description("Registered phone number").
				Placeholder("9876543210").
				CharLimit(32).
				Value(&vals.Username).
				Validate(func(s string) error {
					return model.Credentials{Username: s, Password: "x"}.Validate()
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				CharLimit(128).
				Value(&vals.Password).
				Validate(func(s string) error {
					return model.Credentials{Username: strings.Repeat("0", model.MinUsernameLen), Password: s}.Validate()
				}),
		),
	).WithTheme(huh.ThemeCatppuccin()).WithShowHelp(true)
}

func loginCmd(m *session.Manager, creds model.Credentials) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()
		s, p, err := m.Login(ctx, creds)
		return LoginResultMsg{Session: s, Profile: p, Err: err}
	}
}

// openLogin replaces the dashboard with a fresh login form.
func (a *App) openLogin() tea.Cmd {
	a.loginForm = newLoginForm(a.loginVals)
	if a.width > 0 {
		a.loginForm = a.loginForm.WithWidth(min(a.width-8, 60)).WithHeight(a.height)
	}
	return a.loginForm.Init()
}

func (a App) updateLoginForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.loginForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.loginForm = f
	}

	switch a.loginForm.State {
	case huh.StateCompleted:
		a.loginForm = nil
		a.loggingIn = true
		a.loginErr = nil
		return a, tea.Batch(loginCmd(a.sessions, a.loginVals.credentials()), a.spinner.Tick)
	case huh.StateAborted:
		return a, tea.Quit
	}

	return a, cmd
}

func (a App) viewLogin() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)

	body := a.loginForm.View()
	if a.loginErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(t.Red).Bold(true)
		body = errStyle.Render("✗ "+a.loginErr.Error()) + "\n\n" + body
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}
