package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/netrapro/netra/internal/model"
	"github.com/netrapro/netra/internal/portal"
	"github.com/netrapro/netra/internal/store"
)

type fakeFetcher struct {
	d     *model.Dashboard
	calls int
}

func (f *fakeFetcher) FetchAll(_ context.Context, creds model.Credentials) *model.Dashboard {
	f.calls++
	d := *f.d
	d.Username = creds.Username
	return &d
}

var creds = model.Credentials{Username: "9876543210", Password: "pw"}

func openCache(t *testing.T) *store.Cache {
	t.Helper()
	c, err := store.Open(filepath.Join(t.TempDir(), "netra.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func liveDashboard() *model.Dashboard {
	one := 1
	return &model.Dashboard{
		FetchedAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		Overall: &model.Overall{
			ReportedPercentage: 100,
			Days:               []model.DayRecord{{Date: "2025-03-14", Periods: []model.PeriodRecord{{PeriodNo: 1, Status: &one}}}},
		},
	}
}

func TestLoad_LiveSavesSnapshot(t *testing.T) {
	cache := openCache(t)
	f := &fakeFetcher{d: liveDashboard()}

	r, err := Load(context.Background(), f, cache, creds, LoadOptions{KeepSnapshots: 5})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.FromCache {
		t.Error("FromCache = true for a live fetch")
	}
	if n, _ := cache.Count(); n != 1 {
		t.Errorf("cache count = %d, want 1", n)
	}
}

func TestLoad_FallsBackToCache(t *testing.T) {
	cache := openCache(t)
	if _, err := cache.Save(&model.Dashboard{Username: creds.Username, Overall: liveDashboard().Overall, FetchedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	down := errors.New("portal: request /overall failed: connection refused")
	f := &fakeFetcher{d: &model.Dashboard{Err: down}}

	r, err := Load(context.Background(), f, cache, creds, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !r.FromCache {
		t.Fatal("FromCache = false, want cached fallback")
	}
	if !errors.Is(r.Warning, down) {
		t.Errorf("Warning = %v, want fetch error", r.Warning)
	}
	if r.CachedAt.IsZero() {
		t.Error("CachedAt not set")
	}
}

func TestLoad_UnauthorizedNotMasked(t *testing.T) {
	cache := openCache(t)
	if _, err := cache.Save(&model.Dashboard{Username: creds.Username, Overall: liveDashboard().Overall}); err != nil {
		t.Fatal(err)
	}
	f := &fakeFetcher{d: &model.Dashboard{Err: portal.ErrUnauthorized}}

	_, err := Load(context.Background(), f, cache, creds, LoadOptions{})
	if !errors.Is(err, portal.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestLoad_Offline(t *testing.T) {
	cache := openCache(t)
	f := &fakeFetcher{d: liveDashboard()}

	if _, err := Load(context.Background(), f, cache, creds, LoadOptions{Offline: true}); !errors.Is(err, ErrOffline) {
		t.Errorf("empty cache offline: err = %v, want ErrOffline", err)
	}

	if _, err := Load(context.Background(), f, cache, creds, LoadOptions{}); err != nil {
		t.Fatal(err)
	}
	r, err := Load(context.Background(), f, cache, creds, LoadOptions{Offline: true})
	if err != nil {
		t.Fatalf("offline Load: %v", err)
	}
	if !r.FromCache {
		t.Error("offline result not from cache")
	}
	if f.calls != 1 {
		t.Errorf("fetcher called %d times, want 1 (offline never fetches)", f.calls)
	}
}

func TestLoad_NoCache(t *testing.T) {
	cache := openCache(t)
	f := &fakeFetcher{d: liveDashboard()}

	if _, err := Load(context.Background(), f, cache, creds, LoadOptions{NoCache: true}); err != nil {
		t.Fatal(err)
	}
	if n, _ := cache.Count(); n != 0 {
		t.Errorf("cache count = %d, want 0 with NoCache", n)
	}
	if _, err := Load(context.Background(), f, cache, creds, LoadOptions{NoCache: true, Offline: true}); !errors.Is(err, ErrOffline) {
		t.Errorf("err = %v, want ErrOffline", err)
	}
}

func TestLoad_NoDataNoCache(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeFetcher{d: &model.Dashboard{Err: boom}}
	if _, err := Load(context.Background(), f, nil, creds, LoadOptions{}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

type failingSnapshots struct {
	saveErr  error
	pruneErr error
}

func (f failingSnapshots) Save(*model.Dashboard) (string, error) { return "", f.saveErr }

func (f failingSnapshots) Latest(string) (*model.Dashboard, error) { return nil, store.ErrNoSnapshot }

func (f failingSnapshots) Prune(string, int) (int64, error) { return 0, f.pruneErr }

func TestLoad_CacheWriteFailureIsWarning(t *testing.T) {
	full := errors.New("database or disk is full")

	tests := []struct {
		name  string
		cache failingSnapshots
		fetch error
		want  string
	}{
		{"save fails", failingSnapshots{saveErr: full}, nil, "caching snapshot"},
		{"prune fails", failingSnapshots{pruneErr: full}, nil, "pruning snapshots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{d: liveDashboard()}
			r, err := Load(context.Background(), f, tt.cache, creds, LoadOptions{KeepSnapshots: 5})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !errors.Is(r.Warning, full) {
				t.Fatalf("Warning = %v, want wrapped %v", r.Warning, full)
			}
			if got := r.Warning.Error(); !strings.Contains(got, tt.want) {
				t.Errorf("Warning = %q, want it to mention %q", got, tt.want)
			}
		})
	}
}

func TestLoad_FetchWarningWinsOverCacheFailure(t *testing.T) {
	partial := errors.New("portal: request /subjects failed")
	d := liveDashboard()
	d.Err = partial
	f := &fakeFetcher{d: d}

	r, err := Load(context.Background(), f, failingSnapshots{saveErr: errors.New("disk full")}, creds, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !errors.Is(r.Warning, partial) {
		t.Errorf("Warning = %v, want the fetch warning", r.Warning)
	}
}
