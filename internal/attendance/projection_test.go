package attendance

import (
	"math"
	"testing"
)

func TestClassesNeeded_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		attended int
		total    int
		target   float64
		want     int
	}{
		{"below recommended", 59, 100, 75, 64},
		{"already above minimum", 70, 100, 65, 0},
		{"exactly at target", 75, 100, 75, 0},
		{"no data yet", 0, 0, 75, 0},
		{"all absent", 0, 10, 75, 30},
		{"one short", 2, 3, 75, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassesNeeded(tt.attended, tt.total, tt.target)
			if got != tt.want {
				t.Errorf("ClassesNeeded(%d, %d, %.0f) = %d, want %d",
					tt.attended, tt.total, tt.target, got, tt.want)
			}
		})
	}
}

// reachesExact mirrors the target inequality without division so integer
// targets compare exactly.
func reachesExact(attended, total, extra int, target float64) bool {
	return float64(attended+extra)*100 >= target*float64(total+extra)
}

func TestClassesNeeded_BoundaryProperty(t *testing.T) {
	targets := []float64{50, 65, 75, 90}

	for total := 0; total <= 40; total++ {
		for attended := 0; attended <= total; attended++ {
			for _, target := range targets {
				x := ClassesNeeded(attended, total, target)
				if x < 0 {
					t.Fatalf("ClassesNeeded(%d, %d, %.0f) = %d, want >= 0", attended, total, target, x)
				}

				cur := NewState(attended, total).Percentage()
				if total > 0 && cur >= target && x != 0 {
					t.Fatalf("ClassesNeeded(%d, %d, %.0f) = %d, want 0 (already %.2f%%)",
						attended, total, target, x, cur)
				}

				if !reachesExact(attended, total, x, target) {
					t.Fatalf("attending %d more from %d/%d does not reach %.0f%%", x, attended, total, target)
				}
				if x > 0 && reachesExact(attended, total, x-1, target) {
					t.Fatalf("ClassesNeeded(%d, %d, %.0f) = %d, but %d already reaches target",
						attended, total, target, x, x-1)
				}
			}
		}
	}
}

func TestClassesNeeded_NearHundredTarget(t *testing.T) {
	tests := []struct {
		name     string
		attended int
		total    int
		target   float64
	}{
		{"tiny gap", 0, 2000, 99.99999999999999},
		{"huge total", 0, 1 << 40, 99.9999999},
		{"reachable", 0, 10, 99.9},
		{"reachable large", 1, 1000, 99.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := ClassesNeeded(tt.attended, tt.total, tt.target)
			if x <= 0 {
				t.Fatalf("ClassesNeeded(%d, %d, %v) = %d, want > 0", tt.attended, tt.total, tt.target, x)
			}
			if x == math.MaxInt {
				return
			}
			if !reachesExact(tt.attended, tt.total, x, tt.target) {
				t.Errorf("attending %d more from %d/%d does not reach %v%%", x, tt.attended, tt.total, tt.target)
			}
			if reachesExact(tt.attended, tt.total, x-1, tt.target) {
				t.Errorf("ClassesNeeded = %d, but %d already reaches %v%%", x, x-1, tt.target)
			}
		})
	}

	if got := ClassesNeeded(0, 2000, 99.99999999999999); got != math.MaxInt {
		t.Errorf("ClassesNeeded(0, 2000, 99.99999999999999) = %d, want math.MaxInt", got)
	}
}

func TestClassesNeeded_PanicsOnInvalidTarget(t *testing.T) {
	for _, target := range []float64{0, 100, 120, -5, math.NaN()} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("ClassesNeeded with target %v did not panic", target)
				}
			}()
			ClassesNeeded(10, 20, target)
		}()
	}
}

func TestDaysNeeded(t *testing.T) {
	tests := []struct {
		classes int
		avg     float64
		want    int
	}{
		{64, 8, 8},
		{65, 8, 9},
		{0, 8, 0},
		{-4, 8, 0},
		{10, 0, 10},
		{10, -2, 10},
		{10, math.NaN(), 10},
		{7, 2.5, 3},
		{math.MaxInt, 0.5, math.MaxInt},
	}

	for _, tt := range tests {
		if got := DaysNeeded(tt.classes, tt.avg); got != tt.want {
			t.Errorf("DaysNeeded(%d, %v) = %d, want %d", tt.classes, tt.avg, got, tt.want)
		}
	}
}

func TestSimulateAbsence_FullAttendance(t *testing.T) {
	got := SimulateAbsence(10, 10, 5)

	if got.NewTotal != 15 {
		t.Errorf("NewTotal = %d, want 15", got.NewTotal)
	}
	if math.Abs(got.NewPercentage-66.67) > 0.01 {
		t.Errorf("NewPercentage = %.4f, want ~66.67", got.NewPercentage)
	}
	if math.Abs(got.PercentageDrop-33.33) > 0.01 {
		t.Errorf("PercentageDrop = %.4f, want ~33.33", got.PercentageDrop)
	}
	if got.Missed != 5 {
		t.Errorf("Missed = %d, want 5", got.Missed)
	}
}

func TestSimulateAbsence_ZeroIsIdentity(t *testing.T) {
	for _, s := range []State{{59, 100}, {10, 10}, {0, 0}, {3, 7}} {
		got := SimulateAbsence(s.Attended, s.Total, 0)
		if got.NewPercentage != s.Percentage() {
			t.Errorf("%v: NewPercentage = %v, want %v", s, got.NewPercentage, s.Percentage())
		}
		if got.PercentageDrop != 0 {
			t.Errorf("%v: PercentageDrop = %v, want 0", s, got.PercentageDrop)
		}
		if got.NewTotal != s.Total {
			t.Errorf("%v: NewTotal = %d, want %d", s, got.NewTotal, s.Total)
		}
	}
}

func TestSimulateAbsence_Monotonic(t *testing.T) {
	prev := SimulateAbsence(45, 60, 0).NewPercentage
	for n := 1; n <= 50; n++ {
		cur := SimulateAbsence(45, 60, n).NewPercentage
		if cur > prev {
			t.Fatalf("missing %d classes gives %.4f%%, more than %.4f%% for %d", n, cur, prev, n-1)
		}
		prev = cur
	}
}

func TestSimulateAbsence_NegativeMissedIsZero(t *testing.T) {
	got := SimulateAbsence(8, 10, -3)
	if got.Missed != 0 || got.NewTotal != 10 || got.PercentageDrop != 0 {
		t.Errorf("SimulateAbsence(8, 10, -3) = %+v, want identity", got)
	}
}

func TestSimulateAbsence_Idempotent(t *testing.T) {
	a := SimulateAbsence(33, 51, 7)
	b := SimulateAbsence(33, 51, 7)
	if a != b {
		t.Errorf("repeated calls differ: %+v vs %+v", a, b)
	}
}

func TestParseCount(t *testing.T) {
	tests := map[string]int{
		"5":     5,
		" 12 ":  12,
		"":      0,
		"abc":   0,
		"-3":    0,
		"5.9":   5,
		"1e3":   1000,
		"NaN":   0,
		"-Inf":  0,
		"10abc": 0,
	}
	for in, want := range tests {
		if got := ParseCount(in); got != want {
			t.Errorf("ParseCount(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseRate(t *testing.T) {
	if got := ParseRate("6.5"); got != 6.5 {
		t.Errorf("ParseRate(6.5) = %v, want 6.5", got)
	}
	if got := ParseRate("x"); got != 0 {
		t.Errorf("ParseRate(x) = %v, want 0", got)
	}
	if got := DaysNeeded(12, ParseRate("")); got != 12 {
		t.Errorf("DaysNeeded with empty rate = %d, want 12", got)
	}
}

func TestStatePercentage(t *testing.T) {
	if got := NewState(59, 100).Percentage(); got != 59 {
		t.Errorf("Percentage = %v, want 59", got)
	}
	if got := NewState(0, 0).Percentage(); got != 0 {
		t.Errorf("Percentage with no data = %v, want 0", got)
	}
	s := NewState(12, 10)
	if s.Attended != 10 {
		t.Errorf("NewState(12, 10).Attended = %d, want clamp to 10", s.Attended)
	}
	if s := NewState(-1, -1); s.Attended != 0 || s.Total != 0 {
		t.Errorf("NewState(-1, -1) = %+v, want zero", s)
	}
}

func TestProject(t *testing.T) {
	p := Project(NewState(59, 100), RecommendedTarget, DefaultAvgClassesPerDay)
	if p.Status != TargetPending {
		t.Fatalf("Status = %v, want pending", p.Status)
	}
	if p.ClassesNeeded != 64 || p.DaysNeeded != 8 {
		t.Errorf("got %d classes / %d days, want 64 / 8", p.ClassesNeeded, p.DaysNeeded)
	}

	met := Project(NewState(80, 100), MinimumTarget, DefaultAvgClassesPerDay)
	if met.Status != TargetMet || met.ClassesNeeded != 0 {
		t.Errorf("80/100 vs 65: got %+v, want achieved", met)
	}

	far := Project(NewState(0, 1<<40), 99.9999999, DefaultAvgClassesPerDay)
	if far.Status != TargetPending || far.ClassesNeeded != math.MaxInt || far.DaysNeeded <= 0 {
		t.Errorf("0/2^40 vs 99.9999999: got %+v, want saturated pending", far)
	}

	empty := Project(NewState(0, 0), RecommendedTarget, DefaultAvgClassesPerDay)
	if empty.Status != NoData {
		t.Errorf("0/0: Status = %v, want no data", empty.Status)
	}
	if empty.StatusText != "no data" {
		t.Errorf("0/0: StatusText = %q, want \"no data\"", empty.StatusText)
	}
}
