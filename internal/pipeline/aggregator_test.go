package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/netrapro/netra/internal/attendance"
	"github.com/netrapro/netra/internal/config"
	"github.com/netrapro/netra/internal/model"
)

func st(n int) *int { return &n }

func day(date string, codes ...int) model.DayRecord {
	d := model.DayRecord{Date: date}
	for i, c := range codes {
		d.Periods = append(d.Periods, model.PeriodRecord{PeriodNo: i + 1, Status: st(c)})
	}
	return d
}

func TestSummarize(t *testing.T) {
	d := &model.Dashboard{
		Overall: &model.Overall{
			ReportedPercentage: 59.57,
			Days:               []model.DayRecord{day("2025-03-14", 1, 1, 0, 2), day("2025-03-13", 1, 0)},
		},
		Subjects: []model.SubjectStats{
			{Name: "OS", Percentage: 90},
			{Name: "DBMS", Percentage: 60},
			{Name: "CN", Percentage: 74.9},
		},
	}

	s := Summarize(d, config.DefaultConfig().Predictor)

	if s.State.Attended != 3 || s.State.Total != 6 {
		t.Fatalf("State = %+v, want 3/6", s.State)
	}
	if s.Percentage != 50 {
		t.Errorf("Percentage = %v, want 50", s.Percentage)
	}
	if s.Insight != attendance.Critical || s.Status != "CRITICAL" {
		t.Errorf("Insight = %v, want CRITICAL", s.Insight)
	}
	if len(s.Notes) != 0 {
		t.Errorf("Notes = %+v, want none at an even split", s.Notes)
	}
	if len(s.Projections) != 2 {
		t.Fatalf("len(Projections) = %d, want 2", len(s.Projections))
	}
	p75, ok := s.Projection(75)
	if !ok || p75.ClassesNeeded != 6 || p75.DaysNeeded != 1 {
		t.Errorf("75%% projection = %+v, want 6 classes / 1 day", p75)
	}
	if s.Subjects[0].Name != "DBMS" || s.Subjects[2].Name != "OS" {
		t.Errorf("subjects not sorted ascending: %+v", s.Subjects)
	}
	if s.LowSubjects != 2 {
		t.Errorf("LowSubjects = %d, want 2", s.LowSubjects)
	}
	if len(s.Recommendations) != 2 || !strings.Contains(s.Recommendations[0], "next 6 classes") {
		t.Errorf("Recommendations = %q", s.Recommendations)
	}
	if d.Subjects[0].Name != "OS" {
		t.Error("Summarize reordered the caller's subjects")
	}
}

func TestSummarize_ReportedFallback(t *testing.T) {
	d := &model.Dashboard{Overall: &model.Overall{ReportedPercentage: 80}}
	s := Summarize(d, config.DefaultConfig().Predictor)
	if s.Percentage != 80 || s.Insight != attendance.Good {
		t.Errorf("got %.2f %v, want reported 80 GOOD", s.Percentage, s.Insight)
	}
	for _, p := range s.Projections {
		if p.Status != attendance.NoData {
			t.Errorf("projection %v status = %v, want no data", p.Target, p.Status)
		}
	}
	if len(s.Recommendations) != 1 {
		t.Errorf("Recommendations = %q, want only the generic line", s.Recommendations)
	}
}

func TestSummarize_Notes(t *testing.T) {
	d := &model.Dashboard{Overall: &model.Overall{
		Days: []model.DayRecord{day("2025-03-14", 1, 0, 0, 0)},
	}}
	s := Summarize(d, config.DefaultConfig().Predictor)
	if len(s.Notes) != 1 || s.Notes[0].Message != "You've missed 3 classes vs 1 attended." {
		t.Errorf("Notes = %+v, want the missed-more note", s.Notes)
	}
}

func TestSummarize_Nil(t *testing.T) {
	s := Summarize(nil, config.DefaultConfig().Predictor)
	if s.State.HasData() {
		t.Errorf("nil dashboard has data: %+v", s.State)
	}
}

func TestWeeklyHistory(t *testing.T) {
	days := []model.DayRecord{day("Today", 1)}
	for _, d := range []string{"d1", "d2", "d3", "d4", "d5", "d6", "d7", "d8", "d9"} {
		days = append(days, day(d, 1, 0))
	}

	got := WeeklyHistory(days, 0)
	if len(got) != 7 {
		t.Fatalf("len = %d, want 7", len(got))
	}
	if got[0].Date != "d7" || got[6].Date != "d1" {
		t.Errorf("order = %s..%s, want d7..d1", got[0].Date, got[6].Date)
	}
	for _, v := range got {
		if v.Date == "Today" {
			t.Error("Today not dropped")
		}
		if v.Percentage != 50 || v.Rating != attendance.DayAverage {
			t.Errorf("%s: %.1f %v, want 50 Average", v.Date, v.Percentage, v.Rating)
		}
	}
}

func TestFilterDays(t *testing.T) {
	views := WeeklyHistory([]model.DayRecord{day("2025-03-14"), day("2025-02-28"), day("2025-03-01")}, 7)

	if got := FilterDays(views, "2025-03"); len(got) != 2 {
		t.Errorf("FilterDays(2025-03) len = %d, want 2", len(got))
	}
	if got := FilterDays(views, "  "); len(got) != 3 {
		t.Errorf("blank query len = %d, want 3", len(got))
	}
	if got := FilterDays(views, "nope"); len(got) != 0 {
		t.Errorf("FilterDays(nope) len = %d, want 0", len(got))
	}
}

func TestFilterDays_CaseInsensitive(t *testing.T) {
	views := WeeklyHistory([]model.DayRecord{day("Fri Mar 14"), day("Thu Mar 13")}, 7)
	if got := FilterDays(views, "fri"); len(got) != 1 || got[0].Date != "Fri Mar 14" {
		t.Errorf("FilterDays(fri) = %+v", got)
	}
}

func TestTimeSlot(t *testing.T) {
	if got := TimeSlot(0); got != "9:00 - 9:50" {
		t.Errorf("TimeSlot(0) = %q", got)
	}
	if got := TimeSlot(7); got != "2:50 - 3:40" {
		t.Errorf("TimeSlot(7) = %q", got)
	}
	if got := TimeSlot(8); got != "" {
		t.Errorf("TimeSlot(8) = %q, want empty", got)
	}
	if got := TimeSlot(-1); got != "" {
		t.Errorf("TimeSlot(-1) = %q, want empty", got)
	}
}

func TestTodaySchedule(t *testing.T) {
	tt := []model.DaySchedule{
		{Day: "MONDAY", Periods: []model.ScheduledPeriod{{Number: "1", Subject: "DBMS"}, {Number: "2", Subject: "OS"}}},
		{Day: "TUESDAY", Periods: []model.ScheduledPeriod{{Number: "1", Subject: "CN"}, {Number: "2", Subject: "DBMS"}}},
	}

	monday := time.Date(2025, 3, 17, 8, 0, 0, 0, time.UTC)
	got, ok := TodaySchedule(tt, monday)
	if !ok || got.Day != "MONDAY" {
		t.Errorf("TodaySchedule(Monday) = %+v, %v", got, ok)
	}

	if _, ok := TodaySchedule(tt, monday.AddDate(0, 0, 6)); ok {
		t.Error("Sunday matched a schedule")
	}

	if got, ok := ScheduleFor(tt, "tuesday"); !ok || len(got.Periods) != 2 {
		t.Errorf("ScheduleFor(tuesday) = %+v, %v", got, ok)
	}

	subjects := UniqueSubjects(tt)
	if strings.Join(subjects, ",") != "CN,DBMS,OS" {
		t.Errorf("UniqueSubjects = %v", subjects)
	}
}

func TestAbsenceMessage(t *testing.T) {
	got := AbsenceMessage(attendance.SimulateAbsence(10, 10, 5))
	if got != "Your attendance will drop by 33.33% if you miss 5 classes" {
		t.Errorf("AbsenceMessage = %q", got)
	}
	if got := AbsenceMessage(attendance.SimulateAbsence(10, 10, 1)); !strings.HasSuffix(got, "miss 1 class") {
		t.Errorf("singular: %q", got)
	}
}
