package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/pipeline"

	"github.com/spf13/cobra"
)

var timetableCmd = &cobra.Command{
	Use:   "timetable",
	Short: "Class schedule for a day (default: today)",
	RunE:  runTimetable,
}

var (
	flagTimetableDay string
	flagTimetableAll bool
)

func init() {
	timetableCmd.Flags().StringVar(&flagTimetableDay, "day", "", "Weekday to show, e.g. monday")
	timetableCmd.Flags().BoolVar(&flagTimetableAll, "all", false, "List every subject in the timetable")
	rootCmd.AddCommand(timetableCmd)
}

func runTimetable(_ *cobra.Command, _ []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	result, err := loadData(e)
	if err != nil {
		return err
	}
	timetable := result.Dashboard.Timetable

	if flagTimetableAll {
		subjects := pipeline.UniqueSubjects(timetable)
		if ok, err := emit(subjects); ok {
			return err
		}
		fmt.Println()
		fmt.Println(cli.RenderTitle("SUBJECTS IN TIMETABLE"))
		fmt.Println()
		for _, s := range subjects {
			fmt.Printf("  %s\n", s)
		}
		return nil
	}

	day := strings.ToUpper(strings.TrimSpace(flagTimetableDay))
	if day == "" {
		day = pipeline.Weekday(time.Now())
	}
	sched, found := pipeline.ScheduleFor(timetable, day)

	if ok, err := emit(sched); ok {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("TIMETABLE  " + sched.Day))
	fmt.Println()

	if !found || len(sched.Periods) == 0 {
		fmt.Printf("  No classes scheduled on %s.\n", cli.FormatDayOfWeek(day))
		return nil
	}

	rows := make([][]string, 0, len(sched.Periods))
	for i, p := range sched.Periods {
		rows = append(rows, []string{
			p.Number,
			pipeline.TimeSlot(i),
			truncate(p.Subject, 30),
			truncate(p.Faculty, 24),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"#", "Time", "Subject", "Faculty"},
		Rows:     rows,
		LeftCols: 4,
	}))
	return nil
}
