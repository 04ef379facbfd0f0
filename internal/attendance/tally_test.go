package attendance

import (
	"math"
	"testing"

	"github.com/netrapro/netra/internal/model"
)

func status(n int) *int { return &n }

func periods(codes ...*int) []model.PeriodRecord {
	out := make([]model.PeriodRecord, len(codes))
	for i, c := range codes {
		out[i] = model.PeriodRecord{PeriodNo: i + 1, Status: c}
	}
	return out
}

func TestTally(t *testing.T) {
	days := []model.DayRecord{
		{Date: "Mon 01-07-2024", Periods: periods(status(1), status(0), status(2), nil)},
		{Date: "Tue 02-07-2024", Periods: periods(status(1), status(1), status(7))},
		{Date: "Wed 03-07-2024"},
	}

	got := Tally(days)
	if got.Total != 6 {
		t.Errorf("Total = %d, want 6", got.Total)
	}
	if got.Attended != 3 {
		t.Errorf("Attended = %d, want 3", got.Attended)
	}
}

func TestTally_Empty(t *testing.T) {
	got := Tally(nil)
	if got.HasData() {
		t.Errorf("Tally(nil) = %+v, want no data", got)
	}
}

func TestCountDay(t *testing.T) {
	c := CountDay(periods(status(1), status(0), status(0), status(2), nil))
	if c.Present != 1 || c.Absent != 2 || c.NotMarked != 1 {
		t.Errorf("CountDay = %+v, want {1 2 1}", c)
	}
}

func TestDayPercentage(t *testing.T) {
	got := DayPercentage(periods(status(1), status(0), nil))
	if math.Abs(got-100.0/3) > 1e-9 {
		t.Errorf("DayPercentage = %v, want 33.33", got)
	}
	if got := DayPercentage(nil); got != 0 {
		t.Errorf("DayPercentage(nil) = %v, want 0", got)
	}
}

func TestRateDay(t *testing.T) {
	tests := []struct {
		pct  float64
		want DayRating
	}{
		{100, DayGood},
		{75, DayGood},
		{74.9, DayAverage},
		{50, DayAverage},
		{49.9, DayPoor},
		{0, DayPoor},
	}
	for _, tt := range tests {
		if got := RateDay(tt.pct); got != tt.want {
			t.Errorf("RateDay(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestStatusLabelAndGlyph(t *testing.T) {
	tests := []struct {
		code  *int
		label string
		glyph string
	}{
		{status(1), "Present", "P"},
		{status(0), "Absent", "A"},
		{status(2), "Not Marked", "-"},
		{status(9), "Unknown", "?"},
		{nil, "Unknown", "?"},
	}
	for _, tt := range tests {
		if got := StatusLabel(tt.code); got != tt.label {
			t.Errorf("StatusLabel = %q, want %q", got, tt.label)
		}
		if got := StatusGlyph(tt.code); got != tt.glyph {
			t.Errorf("StatusGlyph = %q, want %q", got, tt.glyph)
		}
	}
}
