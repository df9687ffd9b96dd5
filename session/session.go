/*
Package session holds the authenticated session: the bearer token obtained at
login plus the user it belongs to. The session is an explicit value with a
lifecycle (created by login, torn down by logout or auth rejection), passed to
whoever needs it. Pure workflow code never reads it ambiently.

Persistence is a JSON file under the user's config directory, playing the role
a browser's localStorage played for the original front-end: restore on start,
clear on logout, and clear aggressively when the stored data is corrupt.
*/
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/attendly/leavecore/workflow"
)

// Session is one authenticated login.
type Session struct {
	Token string        `json:"token"`
	User  workflow.User `json:"user"`
}

// Active reports whether the session carries a token at all.
func (s Session) Active() bool { return s.Token != "" }

// ExpiresAt extracts the expiry from the bearer token's claims. The client
// cannot verify the signature (only the backend holds the key), so the parse
// is unverified: good enough to skip a doomed request, never an authorization
// decision. Returns zero time when the token has no usable expiry.
func (s Session) ExpiresAt() time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Expired reports whether the token's expiry has passed.
func (s Session) Expired(now time.Time) bool {
	exp := s.ExpiresAt()
	return !exp.IsZero() && now.After(exp)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// ErrNoSession is returned by Load when nothing is stored.
var ErrNoSession = errors.New("no stored session")

// Store persists a session between runs.
type Store interface {
	Save(s Session) error
	Load() (Session, error)
	Clear() error
}

// FileStore keeps the session in a JSON file with owner-only permissions.
type FileStore struct {
	Path string
}

// DefaultPath places the session file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "leavecore", "session.json"), nil
}

func (fs *FileStore) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(fs.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(fs.Path, data, 0o600)
}

// Load restores the stored session. Corrupt or incomplete data is cleared on
// the spot and reported as ErrNoSession, so a bad file cannot wedge the app.
func (fs *FileStore) Load() (Session, error) {
	data, err := os.ReadFile(fs.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, ErrNoSession
		}
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil || !s.Active() || s.User.ID == 0 {
		_ = fs.Clear()
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (fs *FileStore) Clear() error {
	err := os.Remove(fs.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// =============================================================================
// IN-MEMORY STORE (tests, throwaway sessions)
// =============================================================================

type MemoryStore struct {
	session Session
	set     bool
}

func (m *MemoryStore) Save(s Session) error {
	m.session, m.set = s, true
	return nil
}

func (m *MemoryStore) Load() (Session, error) {
	if !m.set {
		return Session{}, ErrNoSession
	}
	return m.session, nil
}

func (m *MemoryStore) Clear() error {
	m.session, m.set = Session{}, false
	return nil
}
