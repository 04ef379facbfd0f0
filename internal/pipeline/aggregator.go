// Package pipeline loads dashboards and turns them into display-ready views.
package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/netrapro/netra/internal/attendance"
	"github.com/netrapro/netra/internal/config"
	"github.com/netrapro/netra/internal/model"
)

// Summary is the overview of one dashboard.
type Summary struct {
	State              attendance.State        `json:"state"`
	Percentage         float64                 `json:"percentage"`
	ReportedPercentage float64                 `json:"reported_percentage"`
	Insight            attendance.Insight      `json:"-"`
	Status             string                  `json:"status"`
	Notes              []attendance.Note       `json:"notes,omitempty"`
	Projections        []attendance.Projection `json:"projections"`
	Subjects           []model.SubjectStats    `json:"subjects"`
	LowSubjects        int                     `json:"low_subjects"`
	Recommendations    []string                `json:"recommendations"`
}

// Summarize tallies d and projects it against the configured targets.
// Percentage is the tallied value; when no periods were recorded it falls
// back to the portal's reported figure.
func Summarize(d *model.Dashboard, p config.PredictorConfig) Summary {
	var s Summary
	if d == nil {
		d = &model.Dashboard{}
	}

	if d.Overall != nil {
		s.State = attendance.Tally(d.Overall.Days)
		s.ReportedPercentage = d.Overall.ReportedPercentage
	}
	s.Percentage = s.State.Percentage()
	if !s.State.HasData() {
		s.Percentage = s.ReportedPercentage
	}
	s.Insight = attendance.Classify(s.Percentage)
	s.Status = s.Insight.String()
	s.Notes = attendance.Notes(s.State)

	for _, t := range p.Targets() {
		if !attendance.ValidTarget(t.Pct) {
			continue
		}
		s.Projections = append(s.Projections, attendance.Project(s.State, t.Pct, p.AvgClassesPerDay))
	}

	s.Subjects = SortSubjects(d.Subjects)
	for _, sub := range s.Subjects {
		if sub.Low() {
			s.LowSubjects++
		}
	}

	s.Recommendations = Recommendations(s.State, p.RecommendedTarget)
	return s
}

// Projection returns the summary's projection for target, if present.
func (s Summary) Projection(target float64) (attendance.Projection, bool) {
	for _, p := range s.Projections {
		if p.Target == target {
			return p, true
		}
	}
	return attendance.Projection{}, false
}

// SortSubjects returns a copy ordered by percentage ascending, then name.
func SortSubjects(subjects []model.SubjectStats) []model.SubjectStats {
	out := make([]model.SubjectStats, len(subjects))
	copy(out, subjects)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage < out[j].Percentage
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Recommendations returns the advice lines shown under the overview.
func Recommendations(s attendance.State, target float64) []string {
	var out []string
	if attendance.ValidTarget(target) && s.HasData() && s.Percentage() < target {
		n := attendance.ClassesNeeded(s.Attended, s.Total, target)
		out = append(out, fmt.Sprintf("Attend the next %d classes consistently to reach %.0f%% attendance.", n, target))
	}
	out = append(out, "Set reminders for classes and avoid missing more than 1 day per week.")
	return out
}

// AbsenceMessage is the one-line summary of an absence simulation.
func AbsenceMessage(impact attendance.AbsenceImpact) string {
	noun := "classes"
	if impact.Missed == 1 {
		noun = "class"
	}
	return fmt.Sprintf("Your attendance will drop by %.2f%% if you miss %d %s",
		impact.PercentageDrop, impact.Missed, noun)
}

// DayView is one row of the weekly history.
type DayView struct {
	Date       string               `json:"date"`
	Periods    []model.PeriodRecord `json:"periods"`
	Counts     attendance.DayCounts `json:"counts"`
	Percentage float64              `json:"percentage"`
	Rating     attendance.DayRating `json:"-"`
	RatingText string               `json:"rating"`
}

// WeeklyHistoryDays is the default number of days in the weekly history.
const WeeklyHistoryDays = 7

// WeeklyHistory drops the "Today" entry, keeps the first limit days in
// portal order and returns them most recent first.
func WeeklyHistory(days []model.DayRecord, limit int) []DayView {
	if limit <= 0 {
		limit = WeeklyHistoryDays
	}

	var kept []model.DayRecord
	for _, d := range days {
		if d.Date == "Today" {
			continue
		}
		kept = append(kept, d)
		if len(kept) == limit {
			break
		}
	}

	out := make([]DayView, 0, len(kept))
	for i := len(kept) - 1; i >= 0; i-- {
		out = append(out, newDayView(kept[i]))
	}
	return out
}

func newDayView(d model.DayRecord) DayView {
	pct := attendance.DayPercentage(d.Periods)
	r := attendance.RateDay(pct)
	return DayView{
		Date:       d.Date,
		Periods:    d.Periods,
		Counts:     attendance.CountDay(d.Periods),
		Percentage: pct,
		Rating:     r,
		RatingText: r.String(),
	}
}

// FilterDays keeps the days whose date contains query, ignoring case.
// An empty query keeps everything.
func FilterDays(days []DayView, query string) []DayView {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return days
	}
	var out []DayView
	for _, d := range days {
		if strings.Contains(strings.ToLower(d.Date), query) {
			out = append(out, d)
		}
	}
	return out
}

var timeSlots = []string{
	"9:00 - 9:50",
	"9:50 - 10:40",
	"10:40 - 11:30",
	"11:30 - 12:20",
	"12:20 - 1:10",
	"1:10 - 2:00",
	"2:00 - 2:50",
	"2:50 - 3:40",
}

// TimeSlot returns the wall-clock slot for the i-th period of a day (0-based),
// or "" past the last slot.
func TimeSlot(i int) string {
	if i < 0 || i >= len(timeSlots) {
		return ""
	}
	return timeSlots[i]
}

// Weekday returns the portal's name for t's weekday, e.g. "MONDAY".
func Weekday(t time.Time) string {
	return strings.ToUpper(t.Weekday().String())
}

// ScheduleFor returns the timetable entry matching day, ignoring case.
func ScheduleFor(timetable []model.DaySchedule, day string) (model.DaySchedule, bool) {
	day = strings.TrimSpace(day)
	for _, d := range timetable {
		if strings.EqualFold(d.Day, day) {
			return d, true
		}
	}
	return model.DaySchedule{Day: strings.ToUpper(day)}, false
}

// TodaySchedule returns the timetable entry for now's weekday.
func TodaySchedule(timetable []model.DaySchedule, now time.Time) (model.DaySchedule, bool) {
	return ScheduleFor(timetable, Weekday(now))
}

// UniqueSubjects returns every distinct subject in the timetable, sorted.
func UniqueSubjects(timetable []model.DaySchedule) []string {
	seen := make(map[string]struct{})
	for _, d := range timetable {
		for _, p := range d.Periods {
			seen[p.Subject] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
