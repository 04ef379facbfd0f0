package cmd

import (
	"fmt"
	"os"

	"github.com/netrapro/netra/internal/config"
	"github.com/netrapro/netra/internal/portal"
	"github.com/netrapro/netra/internal/session"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if ok, err := emit(cfg); ok {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Portal]")
	backend := cfg.Portal.BaseURL
	if backend == "" {
		backend = portal.DefaultBaseURL + " (default)"
	}
	fmt.Printf("    Backend:  %s\n", backend)
	fmt.Printf("    Timeout:  %ds\n", cfg.Portal.TimeoutSec)
	fmt.Println()

	fmt.Println("  [Session]")
	switch s := session.FromEnv(os.LookupEnv); {
	case s != nil:
		fmt.Printf("    User:     %s (from environment)\n", s.Username)
	default:
		fs := session.FileStore{Path: sessionPath()}
		if cur, err := fs.Load(); err == nil && cur != nil {
			fmt.Printf("    User:     %s\n", cur.Username)
			fmt.Printf("    Password: %s\n", maskSecret(cur.Password))
		} else {
			fmt.Println("    User:     not logged in")
		}
		fmt.Printf("    File:     %s\n", fs.Path)
	}
	fmt.Println()

	fmt.Println("  [Predictor]")
	fmt.Printf("    Minimum target:     %g%%\n", cfg.Predictor.MinimumTarget)
	fmt.Printf("    Recommended target: %g%%\n", cfg.Predictor.RecommendedTarget)
	fmt.Printf("    Classes per day:    %g\n", cfg.Predictor.AvgClassesPerDay)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh: %v every %ds\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshIntervalSec)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Schedule: %s\n", cfg.Daemon.Schedule)
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Keep snapshots: %d\n", cfg.Cache.KeepSnapshots)
	fmt.Println()

	fmt.Println("  Run `netra setup` to reconfigure.")
	return nil
}

func maskSecret(s string) string {
	if s == "" {
		return "(empty)"
	}
	if len(s) > 4 {
		return s[:2] + "..." + s[len(s)-1:]
	}
	return "****"
}
