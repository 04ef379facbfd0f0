// Package attendance computes attendance percentages, target projections
// and absence impact from raw attended/total counts.
//
// Every function here is pure and safe for concurrent use.
package attendance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Institution targets and the default daily class rate.
const (
	MinimumTarget           = 65.0
	RecommendedTarget       = 75.0
	DefaultAvgClassesPerDay = 8.0
)

// State is a student's attendance at one point in time.
type State struct {
	Attended int `json:"attended"`
	Total    int `json:"total"`
}

// NewState builds a State, clamping negatives to 0 and attended to total.
func NewState(attended, total int) State {
	if total < 0 {
		total = 0
	}
	if attended < 0 {
		attended = 0
	}
	if attended > total {
		attended = total
	}
	return State{Attended: attended, Total: total}
}

// Percentage returns attended/total*100, or 0 with no recorded classes.
func (s State) Percentage() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Attended) / float64(s.Total) * 100
}

// Missed returns the number of recorded classes not attended.
func (s State) Missed() int {
	return s.Total - s.Attended
}

// HasData reports whether any class has been recorded yet.
func (s State) HasData() bool {
	return s.Total > 0
}

// ClassesNeeded returns the minimum number of consecutive classes the student
// must attend so that (attended+x)/(total+x) >= targetPct/100.
//
// targetPct must be in (0, 100); anything else panics. The result saturates
// at math.MaxInt when the target is out of practical reach.
func ClassesNeeded(attended, total int, targetPct float64) int {
	mustTarget(targetPct)

	s := NewState(attended, total)
	if targetPct <= s.Percentage() {
		return 0
	}

	// x = ceil((t*total - 100*attended) / (100 - t))
	x := math.Ceil((targetPct*float64(s.Total) - 100*float64(s.Attended)) / (100 - targetPct))
	if !(x < float64(math.MaxInt)) {
		// Targets a hair under 100 need more classes than an int can count.
		return math.MaxInt
	}
	n := max(int(x), 0)

	// The ceiling can land one step off when t*total is not exactly representable.
	if n > 0 && reaches(s, n-1, targetPct) {
		n--
	} else if !reaches(s, n, targetPct) {
		n++
	}
	return n
}

func reaches(s State, extra int, targetPct float64) bool {
	return (float64(s.Attended)+float64(extra))*100 >= targetPct*(float64(s.Total)+float64(extra))
}

// DaysNeeded converts a class count into calendar days at avgClassesPerDay.
// A non-positive (or NaN) rate is treated as 1 class per day.
func DaysNeeded(classesNeeded int, avgClassesPerDay float64) int {
	if classesNeeded <= 0 {
		return 0
	}
	if !(avgClassesPerDay > 0) {
		avgClassesPerDay = 1
	}
	days := math.Ceil(float64(classesNeeded) / avgClassesPerDay)
	if !(days < float64(math.MaxInt)) {
		return math.MaxInt
	}
	return int(days)
}

// AbsenceImpact is the outcome of missing additional classes.
type AbsenceImpact struct {
	Missed         int     `json:"missed"`
	NewTotal       int     `json:"new_total"`
	NewPercentage  float64 `json:"new_percentage"`
	PercentageDrop float64 `json:"percentage_drop"`
}

// SimulateAbsence returns the attendance after missing numMissed more classes.
// The attended count is unchanged; negative numMissed is treated as 0.
func SimulateAbsence(attended, total, numMissed int) AbsenceImpact {
	s := NewState(attended, total)
	if numMissed < 0 {
		numMissed = 0
	}

	next := State{Attended: s.Attended, Total: s.Total + numMissed}
	newPct := next.Percentage()

	return AbsenceImpact{
		Missed:         numMissed,
		NewTotal:       next.Total,
		NewPercentage:  newPct,
		PercentageDrop: s.Percentage() - newPct,
	}
}

// ParseCount parses a user-entered class count.
// Non-numeric, negative and non-finite input yields 0; fractions are truncated.
func ParseCount(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// ParseRate parses a user-entered classes-per-day rate.
// Invalid input yields 0, which DaysNeeded treats as 1.
func ParseRate(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// ProjectionStatus describes where a student stands against one target.
type ProjectionStatus int

const (
	TargetPending ProjectionStatus = iota
	TargetMet
	NoData
)

func (s ProjectionStatus) String() string {
	switch s {
	case TargetMet:
		return "achieved"
	case NoData:
		return "no data"
	default:
		return "pending"
	}
}

// Projection is the forward-looking estimate for one target, assuming every
// future class is attended.
type Projection struct {
	Target        float64          `json:"target"`
	ClassesNeeded int              `json:"classes_needed"`
	DaysNeeded    int              `json:"days_needed"`
	Status        ProjectionStatus `json:"-"`
	StatusText    string           `json:"status"`
}

// Project evaluates s against target at the given daily class rate.
// With no recorded classes the status is NoData rather than TargetMet.
func Project(s State, target, avgClassesPerDay float64) Projection {
	mustTarget(target)

	p := Projection{Target: target}
	switch {
	case !s.HasData():
		p.Status = NoData
	case s.Percentage() >= target:
		p.Status = TargetMet
	default:
		p.Status = TargetPending
		p.ClassesNeeded = ClassesNeeded(s.Attended, s.Total, target)
		p.DaysNeeded = DaysNeeded(p.ClassesNeeded, avgClassesPerDay)
	}
	p.StatusText = p.Status.String()
	return p
}

// ValidTarget reports whether pct can be used as a projection target.
func ValidTarget(pct float64) bool {
	return pct > 0 && pct < 100
}

func mustTarget(pct float64) {
	if !ValidTarget(pct) {
		panic(fmt.Sprintf("attendance: target percentage %v outside (0, 100)", pct))
	}
}
