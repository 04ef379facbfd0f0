package components

import (
	"strings"

	"github.com/netrapro/netra/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports about the loaded data.
type StatusInfo struct {
	Student     string
	DataAge     string
	Refreshing  bool
	AutoRefresh bool
	FromCache   bool
	Warning     string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [q]uit")
	if info.Student != "" {
		left += base.Render("  │ ") + accent.Render(info.Student)
	}

	var right []string
	switch {
	case info.Refreshing:
		right = append(right, accent.Render("refreshing…"))
	case info.AutoRefresh:
		right = append(right, base.Render("auto"))
	}
	if info.FromCache {
		right = append(right, warn.Render("cached"))
	}
	if info.Warning != "" {
		right = append(right, warn.Render(info.Warning))
	}
	if info.DataAge != "" {
		right = append(right, base.Render("Data: "+info.DataAge))
	}
	rightStr := strings.Join(right, base.Render("  ")) + base.Render(" ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if padding < 1 {
		// Drop the right side before wrapping.
		return lipgloss.NewStyle().Background(t.Surface).Width(width).MaxWidth(width).Render(left)
	}

	return left + base.Render(strings.Repeat(" ", padding)) + rightStr
}
