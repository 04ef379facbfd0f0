package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/store"

	"github.com/spf13/cobra"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Attendance over recent cached snapshots",
	RunE:  runTrend,
}

var flagTrendLimit int

func init() {
	trendCmd.Flags().IntVarP(&flagTrendLimit, "limit", "l", 30, "Number of snapshots to include")
	rootCmd.AddCommand(trendCmd)
}

func runTrend(_ *cobra.Command, _ []string) error {
	if flagNoCache {
		return errors.New("trend reads the snapshot cache; drop --no-cache")
	}
	e, err := newEnv()
	if err != nil {
		return err
	}
	sess, err := e.sessions.Current()
	if err != nil {
		return err
	}

	cache, err := store.Open(cachePath())
	if err != nil {
		return err
	}
	defer cache.Close()

	points, err := cache.History(sess.Username, flagTrendLimit)
	if err != nil {
		return err
	}
	if ok, err := emit(points); ok {
		return err
	}
	if len(points) == 0 {
		fmt.Println("\n  No snapshots cached yet. Run `netra` to fetch one.")
		return nil
	}

	vals := make([]float64, len(points))
	for i, p := range points {
		vals[i] = p.Percentage
	}
	first, last := points[0], points[len(points)-1]
	now := time.Now()

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TREND  %s", cli.Plural(len(points), "snapshot", "snapshots"))))
	fmt.Println()
	fmt.Printf("  %s\n\n", cli.RenderSparkline(vals))
	fmt.Printf("  %s (%s) → %s (%s)\n",
		cli.FormatPercent(first.Percentage), cli.FormatAge(first.FetchedAt, now),
		cli.RenderPercent(last.Percentage), cli.FormatAge(last.FetchedAt, now))
	fmt.Printf("  Classes %s → %s\n",
		cli.FormatRatio(first.Attended, first.Total), cli.FormatRatio(last.Attended, last.Total))
	return nil
}
