package cmd

import (
	"fmt"
	"strings"

	"github.com/netrapro/netra/internal/attendance"
	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/model"
	"github.com/netrapro/netra/internal/pipeline"

	"github.com/spf13/cobra"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Overall attendance with target projections",
	RunE:  runOverview,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the logged-in student's profile",
	RunE:  runProfile,
}

func init() {
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(profileCmd)
}

type overviewOutput struct {
	Student string           `json:"student"`
	Summary pipeline.Summary `json:"summary"`
}

func runOverview(_ *cobra.Command, _ []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	result, err := loadData(e)
	if err != nil {
		return err
	}

	d := result.Dashboard
	s := pipeline.Summarize(d, e.cfg.Predictor)
	name := d.Profile.DisplayName(d.Username)

	if ok, err := emit(overviewOutput{Student: name, Summary: s}); ok {
		return err
	}

	if d.Overall == nil {
		fmt.Println("\n  No attendance data yet.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("ATTENDANCE  " + name))
	fmt.Println()

	rows := [][]string{
		{"Attendance", cli.RenderPercent(s.Percentage)},
		{"Classes", cli.FormatRatio(s.State.Attended, s.State.Total)},
		{"Missed", cli.FormatNumber(int64(s.State.Missed()))},
		{"Status", cli.RenderInsight(s.Insight)},
	}
	if s.ReportedPercentage > 0 {
		rows = append(rows, []string{"Portal figure", cli.FormatPercent(s.ReportedPercentage)})
	}
	rows = append(rows, []string{"---"})
	for _, p := range s.Projections {
		label := fmt.Sprintf("%s (%s)", e.cfg.Predictor.LabelFor(p.Target), cli.FormatPercentShort(p.Target))
		rows = append(rows, []string{label, projectionText(p)})
	}
	if s.LowSubjects > 0 {
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"Low subjects", fmt.Sprintf("%d below %.0f%%", s.LowSubjects, model.LowThreshold)})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Printf("  %s\n", cli.RenderProgressBar(s.Percentage, e.cfg.Predictor.RecommendedTarget, 40))
	fmt.Println()
	fmt.Printf("  %s: %s\n", s.Insight.Title(), s.Insight.Message())
	for _, n := range s.Notes {
		fmt.Printf("  %s: %s\n", n.Title, n.Message)
	}
	for _, r := range s.Recommendations {
		fmt.Printf("  - %s\n", r)
	}
	return nil
}

func projectionText(p attendance.Projection) string {
	switch p.Status {
	case attendance.TargetMet:
		return "achieved"
	case attendance.NoData:
		return "no classes recorded"
	default:
		return fmt.Sprintf("%s (~%s)",
			cli.Plural(p.ClassesNeeded, "more class", "more classes"),
			cli.Plural(p.DaysNeeded, "day", "days"))
	}
}

func runProfile(_ *cobra.Command, _ []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	result, err := loadData(e)
	if err != nil {
		return err
	}

	p := result.Dashboard.Profile
	if ok, err := emit(p); ok {
		return err
	}
	if p == nil {
		fmt.Println("\n  Profile unavailable.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("PROFILE"))
	fmt.Println()

	var rows [][]string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			rows = append(rows, []string{label, value})
		}
	}
	add("Name", p.DisplayName(result.Dashboard.Username))
	add("Hall ticket", p.HallTicket)
	add("Course", p.Course)
	add("Branch", p.Branch)
	add("Section", p.Section)
	add("Year", p.Year)
	add("Photo", p.PhotoURL())

	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Field", "Value"}, Rows: rows}))
	return nil
}
