package cmd

import (
	"fmt"
	"strings"

	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/pipeline"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Day-by-day attendance, most recent first",
	RunE:  runHistory,
}

var (
	flagHistorySearch string
	flagHistoryDays   int
)

func init() {
	historyCmd.Flags().StringVarP(&flagHistorySearch, "search", "s", "", "Only show dates containing this text")
	historyCmd.Flags().IntVarP(&flagHistoryDays, "days", "n", pipeline.WeeklyHistoryDays, "Number of days to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	result, err := loadData(e)
	if err != nil {
		return err
	}

	var days []pipeline.DayView
	if o := result.Dashboard.Overall; o != nil {
		days = pipeline.WeeklyHistory(o.Days, flagHistoryDays)
	}
	days = pipeline.FilterDays(days, flagHistorySearch)

	if ok, err := emit(days); ok {
		return err
	}
	if len(days) == 0 {
		if flagHistorySearch != "" {
			fmt.Printf("\n  No days match %q.\n", flagHistorySearch)
		} else {
			fmt.Println("\n  No attendance history yet.")
		}
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("HISTORY  %s", cli.Plural(len(days), "day", "days"))))
	fmt.Println()

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		var glyphs strings.Builder
		for i, p := range d.Periods {
			if i > 0 {
				glyphs.WriteString(" ")
			}
			glyphs.WriteString(cli.RenderStatusGlyph(p.Status))
		}
		rows = append(rows, []string{
			cli.FormatDate(d.Date),
			glyphs.String(),
			fmt.Sprintf("%d/%d", d.Counts.Present, d.Counts.Present+d.Counts.Absent+d.Counts.NotMarked),
			cli.FormatPercentShort(d.Percentage),
			d.RatingText,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Date", "Periods", "Present", "Day %", "Rating"},
		Rows:     rows,
		LeftCols: 2,
	}))
	fmt.Println("\n  P present  A absent  - not marked  ? no status")
	return nil
}
