// Package daemon provides the long-running background attendance watcher.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/netrapro/netra/internal/attendance"
	"github.com/netrapro/netra/internal/config"
	"github.com/netrapro/netra/internal/pipeline"
	"github.com/netrapro/netra/internal/session"
	"github.com/netrapro/netra/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

// Event types.
const (
	EventSnapshot = "snapshot"
	EventDelta    = "attendance_delta"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Schedule      string // cron expression or descriptor, e.g. "@every 15m"
	Addr          string
	EventsBuffer  int
	CachePath     string // empty disables the snapshot cache
	KeepSnapshots int
	PollTimeout   time.Duration
	Predictor     config.PredictorConfig
}

// Snapshot is a compact attendance state for status/event payloads.
type Snapshot struct {
	At            time.Time `json:"at"`
	Percentage    float64   `json:"percentage"`
	Attended      int       `json:"attended"`
	Total         int       `json:"total"`
	Target        float64   `json:"target"`
	ClassesNeeded int       `json:"classes_needed"`
	Status        string    `json:"status"`
	FromCache     bool      `json:"from_cache,omitempty"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Percentage float64 `json:"percentage"`
	Attended   int     `json:"attended"`
	Total      int     `json:"total"`
}

func (d Delta) isZero() bool {
	return d.Percentage == 0 && d.Attended == 0 && d.Total == 0
}

// Event is emitted whenever the attendance snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	Schedule        string    `json:"schedule"`
	PollCount       int64     `json:"poll_count"`
	PollErrors      int64     `json:"poll_errors"`
	Student         string    `json:"student,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg      Config
	fetcher  pipeline.Fetcher
	sessions *session.Manager
	metrics  *metrics

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	pollErrors  int64
	lastError   string
	student     string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service polling f with the credentials of the
// current session. It fails when the schedule does not parse.
func New(cfg Config, f pipeline.Fetcher, sessions *session.Manager) (*Service, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 15m"
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = time.Minute
	}
	if !attendance.ValidTarget(cfg.Predictor.RecommendedTarget) {
		cfg.Predictor = config.DefaultConfig().Predictor
	}

	return &Service{
		cfg:       cfg,
		fetcher:   f,
		sessions:  sessions,
		metrics:   newMetrics(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}, nil
}

// Handler returns the daemon's HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	return mux
}

// Run starts HTTP endpoints and scheduled polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	c, err := s.scheduler(ctx)
	if err != nil {
		_ = server.Close()
		return err
	}
	c.Start()
	log.Printf("netra daemon polling on schedule %q", s.cfg.Schedule)

	select {
	case <-ctx.Done():
		<-c.Stop().Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		<-c.Stop().Done()
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// scheduler returns a stopped cron that polls on the configured schedule.
// A poll still running when the next tick fires makes that tick a no-op.
func (s *Service) scheduler(ctx context.Context) (*cron.Cron, error) {
	logger := cron.PrintfLogger(log.Default())
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.pollOnce(ctx) }); err != nil {
		return nil, fmt.Errorf("scheduling polls: %w", err)
	}
	return c, nil
}

func (s *Service) pollOnce(ctx context.Context) {
	sess, err := s.sessions.Current()
	if err != nil {
		s.recordError(err)
		return
	}
	creds := sess.Credentials()

	var snaps pipeline.Snapshots
	if s.cfg.CachePath != "" {
		cache, err := store.Open(s.cfg.CachePath)
		if err != nil {
			log.Printf("netra daemon cache unavailable: %v", err)
		} else {
			defer func() { _ = cache.Close() }()
			snaps = cache
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.PollTimeout)
	defer cancel()

	r, err := pipeline.Load(ctx, s.fetcher, snaps, creds, pipeline.LoadOptions{KeepSnapshots: s.cfg.KeepSnapshots})
	if err != nil {
		if s.sessions.Invalidate(err) {
			log.Printf("netra daemon: portal rejected credentials for %s, run `netra login`", creds.Username)
		}
		s.recordError(err)
		return
	}
	if r.Warning != nil {
		log.Printf("netra daemon poll warning: %v", r.Warning)
	}

	now := time.Now()
	summary := pipeline.Summarize(r.Dashboard, s.cfg.Predictor)
	snap := snapshotFromSummary(summary, s.cfg.Predictor.RecommendedTarget, now)
	snap.FromCache = r.FromCache
	s.metrics.observe(snap)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.student = creds.Username
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventSnapshot,
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventDelta,
			Timestamp: now,
			Snapshot:  snap,
			Delta:     delta,
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastPollAt = time.Now()
	s.pollCount++
	s.pollErrors++
	s.mu.Unlock()
	s.metrics.pollErrors.Inc()
	log.Printf("netra daemon poll error: %v", err)
}

func snapshotFromSummary(sum pipeline.Summary, target float64, at time.Time) Snapshot {
	return Snapshot{
		At:            at,
		Percentage:    sum.Percentage,
		Attended:      sum.State.Attended,
		Total:         sum.State.Total,
		Target:        target,
		ClassesNeeded: attendance.ClassesNeeded(sum.State.Attended, sum.State.Total, target),
		Status:        sum.Status,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Percentage: curr.Percentage - prev.Percentage,
		Attended:   curr.Attended - prev.Attended,
		Total:      curr.Total - prev.Total,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		Schedule:        s.cfg.Schedule,
		PollCount:       s.pollCount,
		PollErrors:      s.pollErrors,
		Student:         s.student,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
