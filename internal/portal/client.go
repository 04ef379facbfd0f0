// Package portal provides a client for the Netra attendance backend.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/netrapro/netra/internal/model"
)

const (
	// DefaultBaseURL is the hosted attendance backend.
	DefaultBaseURL = "https://netra-backend.vercel.app"
	// DefaultTimeout bounds each request.
	DefaultTimeout = 15 * time.Second

	maxBodySize = 1 << 20 // 1 MB
	userAgent   = "github.com/netrapro/netra/1.0"
)

// Status code recorded when a period carries a status the portal left null
// or non-numeric. It counts toward the total but never as present.
const statusUnknown = -1

var (
	// ErrUnauthorized indicates the username or password was rejected.
	ErrUnauthorized = errors.New("portal: unauthorized (check your Netra credentials once)")
	// ErrRateLimited indicates the backend rate limit was hit.
	ErrRateLimited = errors.New("portal: rate limited")
	// ErrNotJSON indicates the backend answered with something other than JSON.
	ErrNotJSON = errors.New("portal: response is not JSON")
	// ErrPortal indicates the backend reported an error in its payload.
	ErrPortal = errors.New("portal: backend reported an error")
)

// Client fetches attendance data from the portal. It holds no credentials;
// each call takes them explicitly.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a client for baseURL ("" means DefaultBaseURL).
// A non-positive timeout means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{},
	}
}

// BaseURL returns the backend the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Authenticate verifies creds by fetching the profile.
func (c *Client) Authenticate(ctx context.Context, creds model.Credentials) (*model.Profile, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("portal: %w", err)
	}
	return c.FetchProfile(ctx, creds)
}

// FetchAll fetches profile, overall attendance, subjects and timetable
// concurrently. Partial data is returned even if some requests fail; Err
// holds ErrUnauthorized if any request was rejected, else the first error.
func (c *Client) FetchAll(ctx context.Context, creds model.Credentials) *model.Dashboard {
	result := &model.Dashboard{Username: creds.Username}

	var (
		wg   sync.WaitGroup
		errs [4]error
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		result.Profile, errs[0] = c.FetchProfile(ctx, creds)
	}()
	go func() {
		defer wg.Done()
		result.Overall, errs[1] = c.FetchOverall(ctx, creds)
	}()
	go func() {
		defer wg.Done()
		result.Subjects, errs[2] = c.FetchSubjects(ctx, creds)
	}()
	go func() {
		defer wg.Done()
		result.Timetable, errs[3] = c.FetchTimetable(ctx, creds)
	}()
	wg.Wait()

	result.FetchedAt = time.Now()
	result.Err = firstError(errs[:])
	return result
}

// firstError prefers ErrUnauthorized so callers can log the user out.
func firstError(errs []error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}

// FetchProfile returns the student profile. The record may arrive bare or
// nested under "payload" or "data".
func (c *Client) FetchProfile(ctx context.Context, creds model.Credentials) (*model.Profile, error) {
	body, err := c.get(ctx, "/profile", creds)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("portal: parsing profile: %w", err)
	}
	if env.failed() {
		return nil, portalError("profile", env.Message)
	}

	inner := body
	switch {
	case present(env.Payload):
		inner = env.Payload
	case present(env.Data):
		inner = env.Data
	}

	var raw ProfileResponse
	if err := json.Unmarshal(inner, &raw); err != nil {
		return nil, fmt.Errorf("portal: parsing profile: %w", err)
	}
	return profileFrom(raw), nil
}

func profileFrom(raw ProfileResponse) *model.Profile {
	p := &model.Profile{
		Name:    raw.Name.DisplayValue(),
		Course:  raw.Course.DisplayValue(),
		Branch:  raw.Branch.DisplayValue(),
		Section: raw.Section.DisplayValue(),
		Year:    raw.Year.DisplayValue(),
	}
	if raw.Student != nil {
		p.StudentName = raw.Student.Name.DisplayValue()
	}
	for _, f := range []DisplayField{raw.Htno, raw.HallTicketNo, raw.RollNo, raw.StudentID} {
		if v := f.DisplayValue(); v != "" {
			p.HallTicket = v
			break
		}
	}
	return p
}

// FetchOverall returns the cumulative report with every recorded day.
func (c *Client) FetchOverall(ctx context.Context, creds model.Credentials) (*model.Overall, error) {
	body, err := c.get(ctx, "/overall", creds)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("portal: parsing overall: %w", err)
	}
	if env.failed() {
		return nil, portalError("overall", env.Message)
	}
	if !present(env.Payload) {
		return nil, portalError("overall", "missing payload")
	}

	var raw OverallResponse
	if err := json.Unmarshal(env.Payload, &raw); err != nil {
		return nil, fmt.Errorf("portal: parsing overall: %w", err)
	}

	out := &model.Overall{ReportedPercentage: float64(raw.OverallAttendance)}
	for _, d := range raw.AttendanceDetails {
		day := model.DayRecord{Date: d.Date.DisplayValue()}
		for _, p := range d.Periods {
			day.Periods = append(day.Periods, model.PeriodRecord{
				PeriodNo: p.PeriodNo.Int(),
				Status:   parseStatus(p.Status),
			})
		}
		out.Days = append(out.Days, day)
	}
	return out, nil
}

// parseStatus returns nil when the status key is absent. A present but null
// or non-integer status becomes statusUnknown.
func parseStatus(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	code := statusUnknown
	if present(raw) {
		var n int
		var s string
		if err := json.Unmarshal(raw, &n); err == nil {
			code = n
		} else if err := json.Unmarshal(raw, &s); err == nil {
			if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				code = v
			}
		}
	}
	return &code
}

// FetchSubjects returns per-subject attendance in portal order.
func (c *Client) FetchSubjects(ctx context.Context, creds model.Credentials) ([]model.SubjectStats, error) {
	body, err := c.get(ctx, "/subjects", creds)
	if err != nil {
		return nil, err
	}

	var raw []SubjectResponse
	if err := json.Unmarshal(unwrapArray(body), &raw); err != nil {
		return nil, fmt.Errorf("portal: parsing subjects: %w", err)
	}

	out := make([]model.SubjectStats, 0, len(raw))
	for i, s := range raw {
		name := s.SubjectName.DisplayValue()
		if name == "" {
			name = "Subject " + strconv.Itoa(i+1)
		}
		out = append(out, model.SubjectStats{
			Name:       name,
			Code:       s.SubjectType.DisplayValue(),
			Total:      s.TotalSessions.Int(),
			Attended:   s.AttendedSessions.Int(),
			Percentage: float64(s.AttendancePercentage),
		})
	}
	return out, nil
}

// FetchTimetable returns the weekly timetable. Periods without a
// "Period N" key are skipped.
func (c *Client) FetchTimetable(ctx context.Context, creds model.Credentials) ([]model.DaySchedule, error) {
	body, err := c.get(ctx, "/timetable", creds)
	if err != nil {
		return nil, err
	}

	var raw []TimetableDayResponse
	if err := json.Unmarshal(unwrapArray(body), &raw); err != nil {
		return nil, fmt.Errorf("portal: parsing timetable: %w", err)
	}

	out := make([]model.DaySchedule, 0, len(raw))
	for _, d := range raw {
		day := model.DaySchedule{Day: d.DayName.DisplayValue()}
		if day.Day == "" {
			day.Day = "Unknown Day"
		}
		for _, p := range d.Periods {
			if sp, ok := scheduledPeriod(p); ok {
				day.Periods = append(day.Periods, sp)
			}
		}
		out = append(out, day)
	}
	return out, nil
}

// scheduledPeriod decodes {"Period 3": "DBMS", "faculty": "X"}. With several
// Period keys the lowest-sorting one wins so results are stable.
func scheduledPeriod(p map[string]json.RawMessage) (model.ScheduledPeriod, bool) {
	key := ""
	for k := range p {
		if strings.HasPrefix(k, "Period") && (key == "" || k < key) {
			key = k
		}
	}
	if key == "" {
		return model.ScheduledPeriod{}, false
	}

	var subj, fac DisplayField
	_ = subj.UnmarshalJSON(p[key])
	_ = fac.UnmarshalJSON(p["faculty"])

	sp := model.ScheduledPeriod{
		Number:  strings.TrimSpace(strings.TrimPrefix(key, "Period")),
		Subject: subj.DisplayValue(),
		Faculty: fac.DisplayValue(),
	}
	if sp.Subject == "" {
		sp.Subject = "Unknown Subject"
	}
	if sp.Faculty == "" {
		sp.Faculty = "Unknown Faculty"
	}
	return sp, true
}

// unwrapArray returns the payload of {"payload": [...]} style bodies and the
// body itself otherwise.
func unwrapArray(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return body
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return body
	}
	switch {
	case present(env.Payload):
		return env.Payload
	case present(env.Data):
		return env.Data
	}
	return body
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && string(raw) != "null"
}

func portalError(what, msg string) error {
	if msg == "" {
		return fmt.Errorf("%w (%s)", ErrPortal, what)
	}
	return fmt.Errorf("%w (%s): %s", ErrPortal, what, msg)
}

// get performs a credentialed GET request and returns the response body.
func (c *Client) get(ctx context.Context, endpoint string, creds model.Credentials) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("username", creds.Username)
	q.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("portal: creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	//nolint:gosec // URL is built from the configured base URL
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portal: request %s failed: %w", endpoint, redact(err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("portal: %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "application/json" && !strings.HasSuffix(mt, "+json") {
		return nil, fmt.Errorf("%w (%s: %q)", ErrNotJSON, endpoint, mt)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("portal: reading response: %w", err)
	}
	return body, nil
}

// redact drops the request URL, which carries the password, from transport errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
