package daemon

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/netrapro/netra/internal/model"
	"github.com/netrapro/netra/internal/portal"
	"github.com/netrapro/netra/internal/session"
)

type fakeFetcher struct {
	dash *model.Dashboard
}

func (f *fakeFetcher) FetchAll(_ context.Context, creds model.Credentials) *model.Dashboard {
	cp := *f.dash
	cp.Username = creds.Username
	return &cp
}

func status(v int) *int { return &v }

// dashboard returns a dashboard with attended of total periods present.
func dashboard(attended, total int) *model.Dashboard {
	var periods []model.PeriodRecord
	for i := 0; i < total; i++ {
		st := 0
		if i < attended {
			st = 1
		}
		periods = append(periods, model.PeriodRecord{PeriodNo: i + 1, Status: status(st)})
	}
	return &model.Dashboard{
		Overall: &model.Overall{Days: []model.DayRecord{{Date: "2025-03-14", Periods: periods}}},
	}
}

func newTestService(t *testing.T, f *fakeFetcher) (*Service, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(session.NewMemoryStore(&session.Session{
		ID:       "test",
		Username: "9876543210",
		Password: "pw",
	}), nil)
	s, err := New(Config{EventsBuffer: 10}, f, mgr)
	require.NoError(t, err)
	return s, mgr
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Percentage: 70, Attended: 7, Total: 10}
	curr := Snapshot{Percentage: 72.72727, Attended: 8, Total: 11}

	delta := diffSnapshots(prev, curr)
	if delta.Attended != 1 {
		t.Fatalf("Attended delta = %d, want 1", delta.Attended)
	}
	if delta.Total != 1 {
		t.Fatalf("Total delta = %d, want 1", delta.Total)
	}
	if math.Abs(delta.Percentage-2.72727) > 1e-9 {
		t.Fatalf("Percentage delta = %.5f, want 2.72727", delta.Percentage)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots should produce a zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s, _ := newTestService(t, &fakeFetcher{dash: dashboard(1, 1)})
	s.cfg.EventsBuffer = 2

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(Config{Schedule: "every now and then"}, &fakeFetcher{}, nil)
	require.Error(t, err)

	s, err := New(Config{}, &fakeFetcher{}, nil)
	require.NoError(t, err)
	require.Equal(t, "@every 15m", s.cfg.Schedule)
	require.Equal(t, 75.0, s.cfg.Predictor.RecommendedTarget)
}

type blockingFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) FetchAll(_ context.Context, creds model.Credentials) *model.Dashboard {
	if f.calls.Add(1) == 1 {
		close(f.started)
	}
	<-f.release
	d := dashboard(3, 4)
	d.Username = creds.Username
	return d
}

func TestSchedulerSkipsOverlappingPolls(t *testing.T) {
	mgr := session.NewManager(session.NewMemoryStore(&session.Session{
		ID:       "test",
		Username: "9876543210",
		Password: "pw",
	}), nil)
	f := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	s, err := New(Config{Schedule: "@every 1h", EventsBuffer: 10}, f, mgr)
	require.NoError(t, err)

	c, err := s.scheduler(context.Background())
	require.NoError(t, err)
	entries := c.Entries()
	require.Len(t, entries, 1)
	job := entries[0].WrappedJob

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()

	select {
	case <-f.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first poll never reached the fetcher")
	}

	job.Run() // returns at once while the first poll is in flight
	close(f.release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first poll did not finish")
	}
	require.Equal(t, int32(1), f.calls.Load(), "overlapping tick should be skipped")
}

func TestPollEmitsOnChangeOnly(t *testing.T) {
	f := &fakeFetcher{dash: dashboard(6, 10)}
	s, _ := newTestService(t, f)
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx)

	st := s.snapshotStatus()
	require.EqualValues(t, 2, st.PollCount)
	require.Equal(t, 1, st.EventCount, "unchanged poll emits nothing")
	require.Equal(t, 6, st.Summary.Attended)
	require.Equal(t, 10, st.Summary.Total)
	require.InDelta(t, 60.0, st.Summary.Percentage, 1e-9)
	// (6+x)/(10+x) >= 0.75 first holds at x = 6.
	require.Equal(t, 6, st.Summary.ClassesNeeded)
	require.Equal(t, "9876543210", st.Student)

	f.dash = dashboard(7, 11)
	s.pollOnce(ctx)

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	require.Len(t, events, 2)
	require.Equal(t, EventSnapshot, events[0].Type)
	require.Equal(t, EventDelta, events[1].Type)
	require.Equal(t, 1, events[1].Delta.Attended)
	require.Equal(t, 1, events[1].Delta.Total)
}

func TestPollUnauthorizedClearsSession(t *testing.T) {
	f := &fakeFetcher{dash: &model.Dashboard{Err: portal.ErrUnauthorized}}
	s, mgr := newTestService(t, f)

	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	require.EqualValues(t, 1, st.PollErrors)
	require.NotEmpty(t, st.LastError)
	require.Zero(t, st.EventCount)

	_, err := mgr.Current()
	require.ErrorIs(t, err, session.ErrNoSession)

	s.pollOnce(context.Background())
	require.EqualValues(t, 2, s.snapshotStatus().PollErrors)
}

func TestHandlers(t *testing.T) {
	s, _ := newTestService(t, &fakeFetcher{dash: dashboard(3, 4)})
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	get := func(path string) string {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	require.Equal(t, "ok\n", get("/healthz"))

	var st Status
	require.NoError(t, json.Unmarshal([]byte(get("/v1/status")), &st))
	require.Equal(t, 3, st.Summary.Attended)
	require.Equal(t, "@every 15m", st.Schedule)

	var events []Event
	require.NoError(t, json.Unmarshal([]byte(get("/v1/events")), &events))
	require.Len(t, events, 1)

	metrics := get("/metrics")
	require.Contains(t, metrics, "netra_attendance_percentage 75")
	require.Contains(t, metrics, "netra_attendance_total 4")
	require.Contains(t, metrics, `netra_attendance_classes_needed{target="75"} 0`)
	require.True(t, strings.Contains(metrics, "netra_poll_errors_total 0"))
}
