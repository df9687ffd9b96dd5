package session_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/leavecore/session"
	"github.com/attendly/leavecore/workflow"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "10",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func testUser() workflow.User {
	return workflow.User{ID: 10, Name: "Asha", Email: "asha@example.com", Role: workflow.RoleEmployee, ManagerID: 20}
}

func TestSession_Expiry(t *testing.T) {
	now := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)

	live := session.Session{Token: signedToken(t, now.Add(time.Hour)), User: testUser()}
	assert.False(t, live.Expired(now))

	stale := session.Session{Token: signedToken(t, now.Add(-time.Hour)), User: testUser()}
	assert.True(t, stale.Expired(now))

	// A token without parseable claims never reports expired; the backend
	// will reject it and trigger teardown instead.
	opaque := session.Session{Token: "not-a-jwt", User: testUser()}
	assert.False(t, opaque.Expired(now))
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := &session.FileStore{Path: filepath.Join(t.TempDir(), "session.json")}

	s := session.Session{Token: "tok-123", User: testUser()}
	require.NoError(t, store.Save(s))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, s, got)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := &session.FileStore{Path: filepath.Join(t.TempDir(), "absent.json")}
	_, err := store.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)

	// Clearing an already-clean store is fine.
	assert.NoError(t, store.Clear())
}

func TestFileStore_CorruptDataClearedOnLoad(t *testing.T) {
	// GIVEN: a session file with garbage in it
	// WHEN: loading
	// THEN: ErrNoSession, and the file is gone so the next run starts clean
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := &session.FileStore{Path: path}
	_, err := store.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileStore_IncompleteSessionRejected(t *testing.T) {
	// A token without a user (or vice versa) is as useless as no session.
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"tok","user":{}}`), 0o600))

	store := &session.FileStore{Path: path}
	_, err := store.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestMemoryStore(t *testing.T) {
	store := &session.MemoryStore{}
	_, err := store.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)

	require.NoError(t, store.Save(session.Session{Token: "tok", User: testUser()}))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)
}
