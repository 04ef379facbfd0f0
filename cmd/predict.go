package cmd

import (
	"errors"
	"fmt"

	"github.com/netrapro/netra/internal/attendance"
	"github.com/netrapro/netra/internal/cli"
	"github.com/netrapro/netra/internal/pipeline"

	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Classes and days needed to reach a target percentage",
	RunE:  runPredict,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Attendance after missing more classes",
	RunE:  runSimulate,
}

var (
	flagTargets  []float64
	flagPerDay   float64
	flagMiss     string
	flagAttended int
	flagTotal    int
)

func init() {
	predictCmd.Flags().Float64SliceVarP(&flagTargets, "target", "t", nil, "Target percentage (repeatable; default: configured targets)")
	predictCmd.Flags().Float64Var(&flagPerDay, "per-day", 0, "Average classes per day (default: configured)")
	simulateCmd.Flags().StringVarP(&flagMiss, "miss", "m", "1", "Number of classes to miss")

	for _, c := range []*cobra.Command{predictCmd, simulateCmd} {
		c.Flags().IntVar(&flagAttended, "attended", -1, "Use this attended count instead of fetching")
		c.Flags().IntVar(&flagTotal, "total", -1, "Use this total count instead of fetching")
		rootCmd.AddCommand(c)
	}
}

// currentState returns the tally from --attended/--total when both are set,
// otherwise from the portal.
func currentState(e *env) (attendance.State, error) {
	if flagAttended >= 0 || flagTotal >= 0 {
		if flagAttended < 0 || flagTotal < 0 {
			return attendance.State{}, errors.New("--attended and --total must be given together")
		}
		if flagAttended > flagTotal {
			return attendance.State{}, errors.New("--attended cannot exceed --total")
		}
		return attendance.NewState(flagAttended, flagTotal), nil
	}

	result, err := loadData(e)
	if err != nil {
		return attendance.State{}, err
	}
	return pipeline.Summarize(result.Dashboard, e.cfg.Predictor).State, nil
}

type predictOutput struct {
	State       attendance.State        `json:"state"`
	Percentage  float64                 `json:"percentage"`
	PerDay      float64                 `json:"avg_classes_per_day"`
	Projections []attendance.Projection `json:"projections"`
}

func runPredict(_ *cobra.Command, _ []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	targets := flagTargets
	if len(targets) == 0 {
		for _, t := range e.cfg.Predictor.Targets() {
			targets = append(targets, t.Pct)
		}
	}
	for _, t := range targets {
		if !attendance.ValidTarget(t) {
			return fmt.Errorf("target %v must be between 0 and 100 (exclusive)", t)
		}
	}

	perDay := e.cfg.Predictor.AvgClassesPerDay
	if flagPerDay > 0 {
		perDay = flagPerDay
	}

	state, err := currentState(e)
	if err != nil {
		return err
	}

	out := predictOutput{State: state, Percentage: state.Percentage(), PerDay: perDay}
	for _, t := range targets {
		out.Projections = append(out.Projections, attendance.Project(state, t, perDay))
	}

	if ok, err := emit(out); ok {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PREDICTION  %s at %s",
		cli.FormatRatio(state.Attended, state.Total), cli.FormatPercent(out.Percentage))))
	fmt.Println()

	rows := make([][]string, 0, len(out.Projections))
	for _, p := range out.Projections {
		rows = append(rows, []string{
			fmt.Sprintf("%s (%s)", e.cfg.Predictor.LabelFor(p.Target), cli.FormatPercentShort(p.Target)),
			cli.FormatNumber(int64(p.ClassesNeeded)),
			cli.FormatNumber(int64(p.DaysNeeded)),
			p.StatusText,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Target", "Classes", "Days", "Status"},
		Rows:    rows,
	}))
	fmt.Printf("\n  Assumes every future class is attended, %g classes per day.\n", perDay)
	return nil
}

type simulateOutput struct {
	State   attendance.State         `json:"state"`
	Impact  attendance.AbsenceImpact `json:"impact"`
	Message string                   `json:"message"`
}

func runSimulate(_ *cobra.Command, _ []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}

	state, err := currentState(e)
	if err != nil {
		return err
	}
	impact := attendance.SimulateAbsence(state.Attended, state.Total, attendance.ParseCount(flagMiss))
	out := simulateOutput{State: state, Impact: impact, Message: pipeline.AbsenceMessage(impact)}

	if ok, err := emit(out); ok {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("ABSENCE IMPACT"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"", "Now", "After"},
		Rows: [][]string{
			{"Classes", cli.FormatRatio(state.Attended, state.Total), cli.FormatRatio(state.Attended, impact.NewTotal)},
			{"Attendance", cli.RenderPercent(state.Percentage()), cli.RenderPercent(impact.NewPercentage)},
		},
	}))
	fmt.Printf("\n  %s\n", out.Message)
	return nil
}
