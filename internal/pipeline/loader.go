package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/netrapro/netra/internal/model"
	"github.com/netrapro/netra/internal/portal"
	"github.com/netrapro/netra/internal/store"
)

// ErrOffline is returned when offline mode has nothing cached to show.
var ErrOffline = errors.New("offline: no cached snapshot")

// Fetcher pulls a live dashboard. *portal.Client implements it.
type Fetcher interface {
	FetchAll(ctx context.Context, creds model.Credentials) *model.Dashboard
}

// Snapshots is the part of the cache the loader needs. *store.Cache implements it.
type Snapshots interface {
	Save(d *model.Dashboard) (string, error)
	Latest(username string) (*model.Dashboard, error)
	Prune(username string, keep int) (int64, error)
}

// LoadOptions controls where data comes from.
type LoadOptions struct {
	Offline       bool // read only from the cache
	NoCache       bool // neither read nor write the cache
	KeepSnapshots int  // prune to this many after saving; 0 keeps all
}

// LoadResult holds the dashboard and where it came from.
type LoadResult struct {
	Dashboard *model.Dashboard
	FromCache bool
	CachedAt  time.Time
	// Warning is a non-fatal error: the data is partial or cached, or the
	// snapshot could not be written.
	Warning error
}

// Load fetches a live dashboard and caches it. When the fetch yields no
// attendance data it falls back to the newest cached snapshot. A rejected
// login is never masked by cached data.
func Load(ctx context.Context, f Fetcher, cache Snapshots, creds model.Credentials, opts LoadOptions) (*LoadResult, error) {
	if opts.NoCache {
		cache = nil
	}

	if opts.Offline {
		if cache == nil {
			return nil, fmt.Errorf("%w (cache disabled)", ErrOffline)
		}
		return fromCache(cache, creds.Username, nil)
	}

	d := f.FetchAll(ctx, creds)
	if errors.Is(d.Err, portal.ErrUnauthorized) {
		return nil, d.Err
	}

	if d.Overall != nil {
		warning := d.Err
		if cache != nil {
			if err := saveSnapshot(cache, d, creds.Username, opts.KeepSnapshots); err != nil && warning == nil {
				warning = err
			}
		}
		return &LoadResult{Dashboard: d, Warning: warning}, nil
	}

	if cache != nil {
		if r, err := fromCache(cache, creds.Username, d.Err); err == nil {
			return r, nil
		}
	}

	if d.Err != nil {
		return nil, d.Err
	}
	return &LoadResult{Dashboard: d}, nil
}

func saveSnapshot(cache Snapshots, d *model.Dashboard, username string, keep int) error {
	if _, err := cache.Save(d); err != nil {
		return fmt.Errorf("caching snapshot: %w", err)
	}
	if keep > 0 {
		if _, err := cache.Prune(username, keep); err != nil {
			return fmt.Errorf("pruning snapshots: %w", err)
		}
	}
	return nil
}

func fromCache(cache Snapshots, username string, warning error) (*LoadResult, error) {
	d, err := cache.Latest(username)
	if errors.Is(err, store.ErrNoSnapshot) {
		return nil, ErrOffline
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	return &LoadResult{
		Dashboard: d,
		FromCache: true,
		CachedAt:  d.FetchedAt,
		Warning:   warning,
	}, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "netra")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "netra")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "netra.db")
}
