// Package session keeps the logged-in student's credentials as an explicit
// value passed to whoever needs it, instead of ambient global state.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/netrapro/netra/internal/model"
	"github.com/netrapro/netra/internal/portal"
)

// ErrNoSession is returned when nobody is logged in.
var ErrNoSession = errors.New("session: not logged in (run `netra login`)")

// Credentials is the login pair.
type Credentials = model.Credentials

// Session is one successful login.
type Session struct {
	ID        string    `toml:"id"`
	Username  string    `toml:"username"`
	Password  string    `toml:"password"`
	CreatedAt time.Time `toml:"created_at"`
}

// Credentials returns the pair to send with portal requests.
func (s *Session) Credentials() Credentials {
	return Credentials{Username: s.Username, Password: s.Password}
}

// Store persists at most one session.
type Store interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}

// Authenticator verifies credentials against the portal.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (*model.Profile, error)
}

// Manager owns the login / logout lifecycle.
type Manager struct {
	store Store
	auth  Authenticator
}

// NewManager wires a store to an authenticator.
func NewManager(store Store, auth Authenticator) *Manager {
	return &Manager{store: store, auth: auth}
}

// Login validates creds, checks them against the portal and stores the
// session. Nothing is stored when authentication fails.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*Session, *model.Profile, error) {
	if err := creds.Validate(); err != nil {
		return nil, nil, err
	}

	profile, err := m.auth.Authenticate(ctx, creds)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	s := &Session{
		ID:        uuid.NewString(),
		Username:  creds.Username,
		Password:  creds.Password,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Save(s); err != nil {
		return nil, nil, fmt.Errorf("saving session: %w", err)
	}
	return s, profile, nil
}

// Logout forgets the current session. Logging out twice is not an error.
func (m *Manager) Logout() error {
	return m.store.Clear()
}

// Current returns the active session or ErrNoSession.
func (m *Manager) Current() (*Session, error) {
	s, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if s == nil || s.Username == "" {
		return nil, ErrNoSession
	}
	return s, nil
}

// Invalidate clears the session when err means the portal rejected the
// credentials, and reports whether it did.
func (m *Manager) Invalidate(err error) bool {
	if !errors.Is(err, portal.ErrUnauthorized) {
		return false
	}
	_ = m.store.Clear()
	return true
}

// FileStore keeps the session in a TOML file readable only by the owner.
type FileStore struct {
	Path string
}

// DefaultPath returns session.toml inside dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, "session.toml")
}

// Load returns nil, nil when no session file exists.
func (f FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var s Session
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return &s, nil
}

// Save writes the session with mode 0600, replacing any previous one.
func (f FileStore) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}

	tmp := f.Path + ".tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating session file: %w", err)
	}
	if err := toml.NewEncoder(out).Encode(s); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("writing session: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing session: %w", err)
	}
	return os.Rename(tmp, f.Path)
}

// Clear removes the session file if present.
func (f FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// MemoryStore holds a session in memory only.
type MemoryStore struct {
	mu sync.Mutex
	s  *Session
}

// NewMemoryStore returns a store preloaded with s (which may be nil).
func NewMemoryStore(s *Session) *MemoryStore {
	return &MemoryStore{s: s}
}

func (m *MemoryStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, nil
	}
	cp := *m.s
	return &cp, nil
}

func (m *MemoryStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}

// FromEnv returns a one-shot session from NETRA_USERNAME and NETRA_PASSWORD,
// or nil when either is unset.
func FromEnv(lookup func(string) (string, bool)) *Session {
	user, ok1 := lookup("NETRA_USERNAME")
	pass, ok2 := lookup("NETRA_PASSWORD")
	if !ok1 || !ok2 || user == "" || pass == "" {
		return nil
	}
	return &Session{
		ID:        uuid.NewString(),
		Username:  user,
		Password:  pass,
		CreatedAt: time.Now().UTC(),
	}
}

// Resolve picks the session store for this process: environment credentials
// in memory if set, otherwise the file at path.
func Resolve(path string, lookup func(string) (string, bool)) Store {
	if s := FromEnv(lookup); s != nil {
		return NewMemoryStore(s)
	}
	return FileStore{Path: path}
}
