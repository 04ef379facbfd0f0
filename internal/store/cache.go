// Package store provides a SQLite-backed cache of fetched dashboards.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/netrapro/netra/internal/attendance"
	"github.com/netrapro/netra/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// timeLayout sorts lexically; fetched_at ordering relies on it.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNoSnapshot is returned when nothing has been cached for a user yet.
var ErrNoSnapshot = errors.New("store: no cached snapshot")

// Cache provides SQLite-backed dashboard snapshots.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Point is one snapshot's headline numbers, for trends.
type Point struct {
	ID         string    `json:"id"`
	FetchedAt  time.Time `json:"fetched_at"`
	Attended   int       `json:"attended"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
}

// Save stores d as a new snapshot and returns its id.
func (c *Cache) Save(d *model.Dashboard) (string, error) {
	if d == nil {
		return "", errors.New("store: nil dashboard")
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	var (
		state    attendance.State
		reported sql.NullFloat64
	)
	if d.Overall != nil {
		state = attendance.Tally(d.Overall.Days)
		reported = sql.NullFloat64{Float64: d.Overall.ReportedPercentage, Valid: true}
	}

	fetched := d.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}

	id := uuid.NewString()
	_, err = c.db.Exec(`INSERT INTO snapshots
		(id, username, fetched_at, attended, total, percentage, reported_percentage, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, d.Username, fetched.UTC().Format(timeLayout),
		state.Attended, state.Total, state.Percentage(), reported, string(payload),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Latest returns the newest snapshot for username.
func (c *Cache) Latest(username string) (*model.Dashboard, error) {
	var payload, fetched string
	err := c.db.QueryRow(`SELECT payload, fetched_at FROM snapshots
		WHERE username = ? ORDER BY fetched_at DESC LIMIT 1`, username).Scan(&payload, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var d model.Dashboard
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if d.FetchedAt.IsZero() {
		d.FetchedAt, _ = time.Parse(timeLayout, fetched)
	}
	return &d, nil
}

// History returns up to limit of the newest snapshots, oldest first.
// A non-positive limit returns all of them.
func (c *Cache) History(username string, limit int) ([]Point, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.Query(`SELECT id, fetched_at, attended, total, percentage FROM (
		SELECT * FROM snapshots WHERE username = ? ORDER BY fetched_at DESC LIMIT ?
	) ORDER BY fetched_at ASC`, username, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Point
	for rows.Next() {
		var p Point
		var fetched string
		if err := rows.Scan(&p.ID, &fetched, &p.Attended, &p.Total, &p.Percentage); err != nil {
			return nil, err
		}
		p.FetchedAt, _ = time.Parse(timeLayout, fetched)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Prune keeps the newest keep snapshots for username and deletes the rest.
// It returns the number of rows removed.
func (c *Cache) Prune(username string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := c.db.Exec(`DELETE FROM snapshots WHERE username = ? AND id NOT IN (
		SELECT id FROM snapshots WHERE username = ? ORDER BY fetched_at DESC LIMIT ?
	)`, username, username, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of cached snapshots across all users.
func (c *Cache) Count() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count)
	return count, err
}
