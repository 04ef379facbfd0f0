package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/netrapro/netra/internal/model"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "netra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func code(n int) *int { return &n }

func dashboard(user string, at time.Time, present, absent int) *model.Dashboard {
	var periods []model.PeriodRecord
	for i := 0; i < present; i++ {
		periods = append(periods, model.PeriodRecord{PeriodNo: len(periods) + 1, Status: code(1)})
	}
	for i := 0; i < absent; i++ {
		periods = append(periods, model.PeriodRecord{PeriodNo: len(periods) + 1, Status: code(0)})
	}
	return &model.Dashboard{
		Username:  user,
		FetchedAt: at,
		Profile:   &model.Profile{Name: "asha"},
		Overall: &model.Overall{
			ReportedPercentage: 50,
			Days:               []model.DayRecord{{Date: "2025-03-14", Periods: periods}},
		},
		Subjects: []model.SubjectStats{{Name: "DBMS", Total: 10, Attended: 8, Percentage: 80}},
	}
}

func TestSaveLatest(t *testing.T) {
	c := openTemp(t)

	_, err := c.Latest("9876543210")
	require.ErrorIs(t, err, ErrNoSnapshot)

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	_, err = c.Save(dashboard("9876543210", base, 3, 1))
	require.NoError(t, err)
	id, err := c.Save(dashboard("9876543210", base.Add(time.Hour), 4, 1))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := c.Latest("9876543210")
	require.NoError(t, err)
	require.True(t, got.FetchedAt.Equal(base.Add(time.Hour)))
	require.Len(t, got.Overall.Days[0].Periods, 5)
	require.Equal(t, "asha", got.Profile.Name)
	require.Equal(t, 1, *got.Overall.Days[0].Periods[0].Status)

	_, err = c.Latest("someone-else")
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestHistoryAndPrune(t *testing.T) {
	c := openTemp(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := c.Save(dashboard("u", base.Add(time.Duration(i)*24*time.Hour), i+1, 1))
		require.NoError(t, err)
	}
	_, err := c.Save(dashboard("other", base, 1, 1))
	require.NoError(t, err)

	pts, err := c.History("u", 3)
	require.NoError(t, err)
	require.Len(t, pts, 3)
	require.Equal(t, 3, pts[0].Attended, "oldest of the newest three first")
	require.Equal(t, 5, pts[2].Attended)
	require.Equal(t, 6, pts[2].Total)
	require.InDelta(t, 5.0/6*100, pts[2].Percentage, 1e-9)

	all, err := c.History("u", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)

	removed, err := c.Prune("u", 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, removed)

	n, err := c.Count()
	require.NoError(t, err)
	require.Equal(t, 3, n, "two kept for u plus one for other")
}

func TestSaveWithoutOverall(t *testing.T) {
	c := openTemp(t)
	d := &model.Dashboard{Username: "u", Profile: &model.Profile{Name: "x"}}
	_, err := c.Save(d)
	require.NoError(t, err)

	pts, err := c.History("u", 1)
	require.NoError(t, err)
	require.Len(t, pts, 1)
	require.Zero(t, pts[0].Total)
	require.False(t, pts[0].FetchedAt.IsZero())
}
