package model

import "time"

// PeriodRecord is one class period on one day.
// Status is nil when the portal sent no status for the period.
type PeriodRecord struct {
	PeriodNo int  `json:"period_no"`
	Status   *int `json:"status,omitempty"`
}

// DayRecord holds the period statuses recorded for one date.
// Date is the portal's raw string ("2025-03-14" or "Today").
type DayRecord struct {
	Date    string         `json:"date"`
	Periods []PeriodRecord `json:"periods"`
}

// Overall is the portal's cumulative attendance report.
type Overall struct {
	ReportedPercentage float64     `json:"reported_percentage"`
	Days               []DayRecord `json:"days"`
}

// SubjectStats holds attendance for a single subject.
type SubjectStats struct {
	Name       string  `json:"name"`
	Code       string  `json:"code"`
	Total      int     `json:"total"`
	Attended   int     `json:"attended"`
	Percentage float64 `json:"percentage"`
}

// LowThreshold is the percentage below which a subject is flagged.
const LowThreshold = 75.0

// Low reports whether the subject is below the recommended threshold.
func (s SubjectStats) Low() bool {
	return s.Percentage < LowThreshold
}

// ScheduledPeriod is one slot of a day's timetable.
type ScheduledPeriod struct {
	Number  string `json:"number"`
	Subject string `json:"subject"`
	Faculty string `json:"faculty"`
}

// DaySchedule is the timetable for one weekday, e.g. "MONDAY".
type DaySchedule struct {
	Day     string            `json:"day"`
	Periods []ScheduledPeriod `json:"periods"`
}

// Dashboard is everything fetched for one student in one refresh.
// Any section may be nil/empty when its request failed.
type Dashboard struct {
	Username  string         `json:"username"`
	Profile   *Profile       `json:"profile,omitempty"`
	Overall   *Overall       `json:"overall,omitempty"`
	Subjects  []SubjectStats `json:"subjects,omitempty"`
	Timetable []DaySchedule  `json:"timetable,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`

	// Err is the first fetch error, if any. Not persisted.
	Err error `json:"-"`
}
