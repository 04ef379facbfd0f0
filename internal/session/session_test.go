package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netrapro/netra/internal/model"
	"github.com/netrapro/netra/internal/portal"
)

type fakeAuth struct {
	err   error
	calls int
}

func (f *fakeAuth) Authenticate(_ context.Context, creds Credentials) (*model.Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.Profile{Name: "asha", HallTicket: creds.Username}, nil
}

var good = Credentials{Username: "9876543210", Password: "pw"}

func TestLoginStoresSession(t *testing.T) {
	store := NewMemoryStore(nil)
	m := NewManager(store, &fakeAuth{})

	s, profile, err := m.Login(context.Background(), good)
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	require.Equal(t, "asha", profile.Name)

	cur, err := m.Current()
	require.NoError(t, err)
	require.Equal(t, s.ID, cur.ID)
	require.Equal(t, good, cur.Credentials())
}

func TestLoginRejectsInvalidWithoutCallingPortal(t *testing.T) {
	auth := &fakeAuth{}
	m := NewManager(NewMemoryStore(nil), auth)

	for _, c := range []Credentials{
		{Username: "12345", Password: "pw"},
		{Username: "9876543210"},
		{},
	} {
		_, _, err := m.Login(context.Background(), c)
		require.Error(t, err, "%+v", c)
	}
	require.Zero(t, auth.calls)
}

func TestLoginFailureStoresNothing(t *testing.T) {
	m := NewManager(NewMemoryStore(nil), &fakeAuth{err: portal.ErrUnauthorized})

	_, _, err := m.Login(context.Background(), good)
	require.ErrorIs(t, err, portal.ErrUnauthorized)

	_, err = m.Current()
	require.ErrorIs(t, err, ErrNoSession)
}

func TestLogout(t *testing.T) {
	m := NewManager(NewMemoryStore(nil), &fakeAuth{})
	_, _, err := m.Login(context.Background(), good)
	require.NoError(t, err)

	require.NoError(t, m.Logout())
	require.NoError(t, m.Logout(), "second logout is a no-op")

	_, err = m.Current()
	require.ErrorIs(t, err, ErrNoSession)
}

func TestInvalidate(t *testing.T) {
	m := NewManager(NewMemoryStore(nil), &fakeAuth{})
	_, _, err := m.Login(context.Background(), good)
	require.NoError(t, err)

	require.False(t, m.Invalidate(errors.New("timeout")))
	_, err = m.Current()
	require.NoError(t, err, "non-auth errors keep the session")

	require.True(t, m.Invalidate(fmt.Errorf("fetch: %w", portal.ErrUnauthorized)))
	_, err = m.Current()
	require.ErrorIs(t, err, ErrNoSession)
}

func TestFileStore(t *testing.T) {
	path := DefaultPath(filepath.Join(t.TempDir(), "netra"))
	fs := FileStore{Path: path}

	s, err := fs.Load()
	require.NoError(t, err)
	require.Nil(t, s)

	want := &Session{ID: "abc", Username: good.Username, Password: good.Password}
	require.NoError(t, fs.Save(want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := fs.Load()
	require.NoError(t, err)
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Credentials(), got.Credentials())

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	require.NoError(t, os.WriteFile(path, []byte("id = "), 0o600))

	_, err := FileStore{Path: path}.Load()
	require.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{"NETRA_USERNAME": good.Username, "NETRA_PASSWORD": good.Password}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	s := FromEnv(lookup)
	require.NotNil(t, s)
	require.Equal(t, good, s.Credentials())

	store := Resolve(filepath.Join(t.TempDir(), "session.toml"), lookup)
	_, isMem := store.(*MemoryStore)
	require.True(t, isMem, "env credentials never touch disk")

	delete(env, "NETRA_PASSWORD")
	require.Nil(t, FromEnv(lookup))
	_, isFile := Resolve("x", lookup).(FileStore)
	require.True(t, isFile)
}
