package cmd

import (
	"fmt"

	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/pipeline"

	"github.com/spf13/cobra"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "Per-subject attendance, lowest first",
	RunE:  runSubjects,
}

func init() {
	rootCmd.AddCommand(subjectsCmd)
}

func runSubjects(_ *cobra.Command, _ []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	result, err := loadData(e)
	if err != nil {
		return err
	}

	subjects := pipeline.SortSubjects(result.Dashboard.Subjects)
	if ok, err := emit(subjects); ok {
		return err
	}
	if len(subjects) == 0 {
		fmt.Println("\n  No subject data available.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SUBJECTS  %d", len(subjects))))
	fmt.Println()

	rows := make([][]string, 0, len(subjects))
	low := 0
	for _, s := range subjects {
		flag := ""
		if s.Low() {
			flag = "⚠"
			low++
		}
		rows = append(rows, []string{
			truncate(s.Name, 28),
			s.Code,
			cli.FormatRatio(s.Attended, s.Total),
			cli.RenderPercent(s.Percentage),
			flag,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Subject", "Code", "Classes", "Attendance", ""},
		Rows:     rows,
		LeftCols: 2,
	}))
	if low > 0 {
		fmt.Printf("\n  %s below 75%%.\n", cli.Plural(low, "subject", "subjects"))
	}
	return nil
}
