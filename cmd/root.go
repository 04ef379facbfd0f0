// Package cmd implements the netra CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/config"
	"github.com/netrapro/netra/internal/pipeline"
	"github.com/netrapro/netra/internal/portal"
	"github.com/netrapro/netra/internal/session"
	"github.com/netrapro/netra/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagOffline bool
	flagNoCache bool
	flagQuiet   bool
	flagFormat  string
)

const fetchTimeout = 45 * time.Second

var rootCmd = &cobra.Command{
	Use:   "netra",
	Short: "Attendance tracker for the Netra student portal",
	Long:  "Check your attendance, see how many classes you need to hit 75%, and simulate skipping.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		f, err := cli.ParseFormat(flagFormat)
		if err != nil {
			return err
		}
		flagFormat = f
		return nil
	},
	RunE:         runOverview,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Show the last cached snapshot without contacting the portal")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Neither read nor write the snapshot cache")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", cli.FormatTable, "Output format: table, json or yaml")
}

// env is what every command needs: config, a portal client and the
// session manager built on top of it.
type env struct {
	cfg      config.Config
	client   *portal.Client
	sessions *session.Manager
}

func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	client := portal.NewClient(cfg.Portal.BaseURL, cfg.Timeout())
	st := session.Resolve(sessionPath(), os.LookupEnv)
	return &env{
		cfg:      cfg,
		client:   client,
		sessions: session.NewManager(st, client),
	}, nil
}

func sessionPath() string {
	return session.DefaultPath(config.Dir())
}

func cachePath() string {
	if flagNoCache {
		return ""
	}
	return pipeline.CachePath()
}

// loadData is the shared data loading path used by all commands.
// It fetches live data for the current session and caches it, falling back
// to the newest snapshot when the portal yields nothing.
func loadData(e *env) (*pipeline.LoadResult, error) {
	sess, err := e.sessions.Current()
	if err != nil {
		return nil, err
	}
	creds := sess.Credentials()

	var snaps pipeline.Snapshots
	if path := cachePath(); path != "" {
		cache, err := store.Open(path)
		if err != nil {
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Cache unavailable: %v\n", err)
			}
		} else {
			defer cache.Close()
			snaps = cache
		}
	}

	if !flagQuiet && !flagOffline {
		fmt.Fprintf(os.Stderr, "  Fetching attendance for %s...\n", creds.Username)
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	result, err := pipeline.Load(ctx, e.client, snaps, creds, pipeline.LoadOptions{
		Offline:       flagOffline,
		NoCache:       flagNoCache,
		KeepSnapshots: e.cfg.Cache.KeepSnapshots,
	})
	if err != nil {
		if e.sessions.Invalidate(err) {
			return nil, errors.New("the portal rejected your credentials; run `netra login` again")
		}
		return nil, err
	}

	if !flagQuiet {
		if result.FromCache {
			fmt.Fprintf(os.Stderr, "  Showing cached snapshot from %s\n", cli.FormatAge(result.CachedAt, time.Now()))
		}
		if result.Warning != nil {
			fmt.Fprintf(os.Stderr, "  Warning: %v\n", result.Warning)
		}
	}
	return result, nil
}

// emit writes v in the requested machine format and reports whether it did.
// Table output is left to the caller.
func emit(v any) (bool, error) {
	if flagFormat == cli.FormatTable {
		return false, nil
	}
	return true, cli.Encode(os.Stdout, flagFormat, v)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
