package attendance

import "fmt"

// Insight classifies an overall percentage against the institution targets.
type Insight int

const (
	Critical Insight = iota
	Warning
	Good
)

// Classify partitions pct into [0,65) Critical, [65,75) Warning, [75,∞) Good.
func Classify(pct float64) Insight {
	switch {
	case pct >= RecommendedTarget:
		return Good
	case pct >= MinimumTarget:
		return Warning
	default:
		return Critical
	}
}

func (i Insight) String() string {
	switch i {
	case Good:
		return "GOOD"
	case Warning:
		return "WARNING"
	default:
		return "CRITICAL"
	}
}

// Title is the headline shown for the insight.
func (i Insight) Title() string {
	switch i {
	case Good:
		return "Good Attendance"
	case Warning:
		return "Attendance Warning"
	default:
		return "Critical Attendance Alert"
	}
}

// Message is the advice shown under the headline.
func (i Insight) Message() string {
	switch i {
	case Good:
		return "Great job! Keep maintaining your attendance above 75%."
	case Warning:
		return "You're below the recommended 75%. Focus on attending more classes."
	default:
		return "Your attendance is below minimum requirement. Immediate action needed!"
	}
}

// Tagline is the one-line predictor status.
func (i Insight) Tagline() string {
	switch i {
	case Good:
		return "Great! You're maintaining good attendance"
	case Warning:
		return "You're on track, but can improve"
	default:
		return "Attention needed to improve attendance"
	}
}

// Note is a supplementary observation shown beside the main insight.
type Note struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notes returns the observations that apply to s, in display order.
func Notes(s State) []Note {
	var out []Note
	if s.Missed() > s.Attended {
		out = append(out, Note{
			Title:   "Missed More Than Attended",
			Message: fmt.Sprintf("You've missed %d classes vs %d attended.", s.Missed(), s.Attended),
		})
	}
	return out
}
