package portal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/netrapro/netra/internal/model"
)

var testCreds = model.Credentials{Username: "9876543210", Password: "secret"}

// backend serves canned JSON bodies keyed by path.
func backend(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") != testCreds.Username || r.URL.Query().Get("password") != testCreds.Password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const overallBody = `{"Error":false,"payload":{"overallAttendance":"59.57","attendanceDetails":[
	{"date":"Today","periods":[{"period_no":1,"status":1},{"period_no":2,"status":2}]},
	{"date":"2025-03-14","periods":[{"period_no":1,"status":1},{"period_no":2,"status":0},{"period_no":3},{"period_no":4,"status":null}]}
]}}`

const subjectsBody = `[
	{"subjectName":"DBMS","subjectType":"Theory","totalSessions":"40","attendedSessions":"30","attendancePercentage":"75.00"},
	{"subjectName":"","subjectType":"Lab","totalSessions":12,"attendedSessions":6.0,"attendancePercentage":{"value":50}}
]`

const timetableBody = `[
	{"dayname":"MONDAY","periods":[{"Period 1":"DBMS","faculty":"Dr. Rao"},{"faculty":"nobody"},{"Period 2":"OS"}]},
	{"periods":[]}
]`

func TestFetchOverall(t *testing.T) {
	srv := backend(t, map[string]string{"/overall": overallBody})
	c := NewClient(srv.URL, time.Second)

	got, err := c.FetchOverall(context.Background(), testCreds)
	require.NoError(t, err)
	require.InDelta(t, 59.57, got.ReportedPercentage, 1e-9)
	require.Len(t, got.Days, 2)

	day := got.Days[1]
	require.Equal(t, "2025-03-14", day.Date)
	require.Len(t, day.Periods, 4)
	require.NotNil(t, day.Periods[0].Status)
	require.Equal(t, 1, *day.Periods[0].Status)
	require.Nil(t, day.Periods[2].Status, "absent status key stays nil")
	require.NotNil(t, day.Periods[3].Status, "null status is still recorded")
	require.Equal(t, statusUnknown, *day.Periods[3].Status)
}

func TestFetchOverall_PayloadError(t *testing.T) {
	srv := backend(t, map[string]string{"/overall": `{"Error":true,"message":"session expired"}`})
	c := NewClient(srv.URL, time.Second)

	_, err := c.FetchOverall(context.Background(), testCreds)
	require.ErrorIs(t, err, ErrPortal)
	require.Contains(t, err.Error(), "session expired")
}

func TestFetchSubjects(t *testing.T) {
	srv := backend(t, map[string]string{"/subjects": subjectsBody})
	c := NewClient(srv.URL, time.Second)

	got, err := c.FetchSubjects(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, model.SubjectStats{Name: "DBMS", Code: "Theory", Total: 40, Attended: 30, Percentage: 75}, got[0])
	require.Equal(t, "Subject 2", got[1].Name)
	require.Equal(t, 12, got[1].Total)
	require.Equal(t, 6, got[1].Attended)
	require.InDelta(t, 50, got[1].Percentage, 1e-9)
	require.True(t, got[1].Low())
}

func TestFetchTimetable(t *testing.T) {
	srv := backend(t, map[string]string{"/timetable": timetableBody})
	c := NewClient(srv.URL, time.Second)

	got, err := c.FetchTimetable(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, got, 2)

	mon := got[0]
	require.Equal(t, "MONDAY", mon.Day)
	require.Len(t, mon.Periods, 2, "period without a Period key is skipped")
	require.Equal(t, model.ScheduledPeriod{Number: "1", Subject: "DBMS", Faculty: "Dr. Rao"}, mon.Periods[0])
	require.Equal(t, "Unknown Faculty", mon.Periods[1].Faculty)
	require.Equal(t, "Unknown Day", got[1].Day)
}

func TestFetchProfile_Nested(t *testing.T) {
	tests := map[string]string{
		"bare":    `{"name":"asha","htno":"22B81A0501","course":{"id":1,"code":"BTECH"},"year":3}`,
		"payload": `{"Error":false,"payload":{"name":"asha","htno":"22B81A0501","course":{"id":1,"code":"BTECH"},"year":3}}`,
		"data":    `{"data":{"name":"asha","hallTicketNo":"22B81A0501","course":{"code":"BTECH"},"year":"3"}}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := backend(t, map[string]string{"/profile": body})
			c := NewClient(srv.URL, time.Second)

			p, err := c.FetchProfile(context.Background(), testCreds)
			require.NoError(t, err)
			require.Equal(t, "asha", p.Name)
			require.Equal(t, "22B81A0501", p.HallTicket)
			require.Equal(t, "BTECH", p.Course)
			require.Equal(t, "3", p.Year)
			require.Equal(t, "ASHA", p.DisplayName("ignored"))
		})
	}
}

func TestFetchProfile_StudentNamePreferred(t *testing.T) {
	srv := backend(t, map[string]string{"/profile": `{"name":"login","student":{"name":"Asha Rani"}}`})
	c := NewClient(srv.URL, time.Second)

	p, err := c.FetchProfile(context.Background(), testCreds)
	require.NoError(t, err)
	require.Equal(t, "ASHA RANI", p.DisplayName(testCreds.Username))
	require.Empty(t, p.PhotoURL())
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))
		c := NewClient(srv.URL, time.Second)
		_, err := c.FetchSubjects(context.Background(), testCreds)
		srv.Close()
		require.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
}

func TestUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchTimetable(context.Background(), testCreds)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 502")
}

func TestNotJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchOverall(context.Background(), testCreds)
	require.ErrorIs(t, err, ErrNotJSON)
}

func TestFetchAll_Partial(t *testing.T) {
	srv := backend(t, map[string]string{
		"/overall":   overallBody,
		"/subjects":  subjectsBody,
		"/timetable": timetableBody,
	})
	c := NewClient(srv.URL, time.Second)

	d := c.FetchAll(context.Background(), testCreds)
	require.Error(t, d.Err, "missing /profile surfaces an error")
	require.Nil(t, d.Profile)
	require.NotNil(t, d.Overall)
	require.Len(t, d.Subjects, 2)
	require.Len(t, d.Timetable, 2)
	require.Equal(t, testCreds.Username, d.Username)
	require.False(t, d.FetchedAt.IsZero())
}

func TestFetchAll_UnauthorizedWins(t *testing.T) {
	srv := backend(t, map[string]string{})
	c := NewClient(srv.URL, time.Second)

	d := c.FetchAll(context.Background(), model.Credentials{Username: "0000000000", Password: "wrong"})
	require.ErrorIs(t, d.Err, ErrUnauthorized)
}

func TestFirstError(t *testing.T) {
	other := errors.New("boom")
	require.Nil(t, firstError([]error{nil, nil}))
	require.Equal(t, other, firstError([]error{nil, other}))
	require.ErrorIs(t, firstError([]error{other, ErrUnauthorized}), ErrUnauthorized)
}

func TestAuthenticate_ValidatesFirst(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	_, err := c.Authenticate(context.Background(), model.Credentials{Username: "123", Password: "x"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthorized)
}

func TestRequestErrorHidesPassword(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.FetchProfile(context.Background(), testCreds)
	require.Error(t, err)
	require.NotContains(t, err.Error(), testCreds.Password)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("  ", 0)
	require.Equal(t, DefaultBaseURL, c.BaseURL())
	require.Equal(t, DefaultTimeout, c.timeout)

	c = NewClient("http://example.test/", time.Second)
	require.Equal(t, "http://example.test", c.BaseURL())
}
