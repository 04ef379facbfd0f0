package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/netrapro/netra/internal/attendance"
	"github.com/netrapro/netra/internal/config"
	"github.com/netrapro/netra/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	themeName := cfg.Appearance.Theme
	minimum := strconv.FormatFloat(cfg.Predictor.MinimumTarget, 'f', -1, 64)
	recommended := strconv.FormatFloat(cfg.Predictor.RecommendedTarget, 'f', -1, 64)
	perDay := strconv.FormatFloat(cfg.Predictor.AvgClassesPerDay, 'f', -1, 64)
	backend := cfg.Portal.BaseURL
	autoRefresh := cfg.TUI.AutoRefresh

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to netra!").
				Description("Pick your targets and look. You can rerun `netra setup` anytime."),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&themeName),
			huh.NewInput().
				Title("Minimum attendance target (%)").
				Value(&minimum).
				Validate(validateTarget),
			huh.NewInput().
				Title("Recommended attendance target (%)").
				Value(&recommended).
				Validate(validateTarget),
			huh.NewInput().
				Title("Average classes per day").
				Value(&perDay).
				Validate(func(s string) error {
					if attendance.ParseRate(s) <= 0 {
						return errors.New("must be a positive number")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Portal backend URL").
				Description("Leave empty for the default.").
				Value(&backend),
			huh.NewConfirm().
				Title("Auto-refresh the dashboard?").
				Value(&autoRefresh),
		),
	).WithAccessible(!term.IsTerminal(int(os.Stdin.Fd())))

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing saved.")
			return nil
		}
		return err
	}

	cfg.Appearance.Theme = themeName
	cfg.Predictor.MinimumTarget, _ = strconv.ParseFloat(strings.TrimSpace(minimum), 64)
	cfg.Predictor.RecommendedTarget, _ = strconv.ParseFloat(strings.TrimSpace(recommended), 64)
	cfg.Predictor.AvgClassesPerDay = attendance.ParseRate(perDay)
	cfg.Portal.BaseURL = strings.TrimSpace(backend)
	cfg.TUI.AutoRefresh = autoRefresh

	// Save
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Next: `netra login`, then `netra` or `netra tui`.")
	fmt.Println()

	return nil
}

func validateTarget(s string) error {
	pct, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !attendance.ValidTarget(pct) {
		return errors.New("must be a number between 0 and 100")
	}
	return nil
}
