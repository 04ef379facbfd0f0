package attendance

import "github.com/netrapro/netra/internal/model"

// Period status codes as sent by the portal.
const (
	StatusAbsent    = 0
	StatusPresent   = 1
	StatusNotMarked = 2
)

// Tally sums period records into a State.
// Every period carrying a status counts toward Total; only present ones
// count toward Attended. Periods without a status are skipped.
func Tally(days []model.DayRecord) State {
	var s State
	for _, d := range days {
		for _, p := range d.Periods {
			if p.Status == nil {
				continue
			}
			s.Total++
			if *p.Status == StatusPresent {
				s.Attended++
			}
		}
	}
	return s
}

// DayCounts is the per-status breakdown of a single day.
type DayCounts struct {
	Present   int
	Absent    int
	NotMarked int
}

// CountDay breaks a day's periods down by status.
func CountDay(periods []model.PeriodRecord) DayCounts {
	var c DayCounts
	for _, p := range periods {
		if p.Status == nil {
			continue
		}
		switch *p.Status {
		case StatusPresent:
			c.Present++
		case StatusAbsent:
			c.Absent++
		case StatusNotMarked:
			c.NotMarked++
		}
	}
	return c
}

// DayPercentage returns present periods over all periods of the day.
func DayPercentage(periods []model.PeriodRecord) float64 {
	if len(periods) == 0 {
		return 0
	}
	return float64(CountDay(periods).Present) / float64(len(periods)) * 100
}

// DayRating grades a single day's attendance.
type DayRating int

const (
	DayPoor DayRating = iota
	DayAverage
	DayGood
)

// RateDay grades pct: >=75 Good, >=50 Average, else Poor.
func RateDay(pct float64) DayRating {
	switch {
	case pct >= 75:
		return DayGood
	case pct >= 50:
		return DayAverage
	default:
		return DayPoor
	}
}

func (r DayRating) String() string {
	switch r {
	case DayGood:
		return "Good"
	case DayAverage:
		return "Average"
	default:
		return "Poor"
	}
}

// StatusLabel returns the display text for a period status.
func StatusLabel(status *int) string {
	if status == nil {
		return "Unknown"
	}
	switch *status {
	case StatusPresent:
		return "Present"
	case StatusAbsent:
		return "Absent"
	case StatusNotMarked:
		return "Not Marked"
	default:
		return "Unknown"
	}
}

// StatusGlyph is the compact single-cell marker for a period status.
func StatusGlyph(status *int) string {
	if status == nil {
		return "?"
	}
	switch *status {
	case StatusPresent:
		return "P"
	case StatusAbsent:
		return "A"
	case StatusNotMarked:
		return "-"
	default:
		return "?"
	}
}
