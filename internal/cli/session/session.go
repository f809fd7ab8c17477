// Package session persists the eventctl login between invocations and
// re-validates it against the server when it has gone stale.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/metaa35/qrwedding-sub000/internal/cli/api"
)

const (
	dirName   = "eventctl"
	fileName  = "session.json"
	dirPerms  = 0700
	filePerms = 0600

	DefaultURL = "http://localhost:8080"

	// RevalidateAfter is how long a validated session is trusted without
	// asking the server again.
	RevalidateAfter = 5 * time.Minute

	// HomeEnv overrides the directory holding the session file.
	HomeEnv = "EVENTCTL_HOME"
)

// ErrExpired is returned when the server no longer accepts the stored token.
// The session file has been removed by then.
var ErrExpired = errors.New("session expired, run \"eventctl login\" again")

// Session holds the persisted login state.
type Session struct {
	ServerURL   string    `json:"server_url"`
	Token       string    `json:"token"`
	User        *api.User `json:"user,omitempty"`
	ValidatedAt time.Time `json:"validated_at"`
}

// Path returns the full path to the session file.
func Path() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Join(dir, fileName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dirName, fileName), nil
}

// Load reads the session from disk. A missing file yields an empty session
// pointed at DefaultURL.
func Load() (*Session, error) {
	p, err := Path()
	if err != nil {
		return &Session{ServerURL: DefaultURL}, nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Session{ServerURL: DefaultURL}, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p, err)
	}
	if s.ServerURL == "" {
		s.ServerURL = DefaultURL
	}
	return &s, nil
}

// Save writes the session to disk with owner-only permissions.
func Save(s *Session) error {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), dirPerms); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, filePerms); err != nil {
		return err
	}
	return os.Chmod(p, filePerms)
}

// Clear removes the session file.
func Clear() error {
	p, err := Path()
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// HasToken reports whether a token is stored.
func (s *Session) HasToken() bool {
	return s.Token != ""
}

// Stale reports whether the session should be re-validated at now.
func (s *Session) Stale(now time.Time) bool {
	return s.ValidatedAt.IsZero() || now.Sub(s.ValidatedAt) >= RevalidateAfter
}

// Login stores a fresh token and user.
func (s *Session) Login(token string, user api.User, now time.Time) error {
	s.Token = token
	s.User = &user
	s.ValidatedAt = now
	return Save(s)
}

// Validator fetches the account behind the current token.
type Validator interface {
	Me() (*api.User, error)
}

// Ensure re-validates a stale session. A rejected token clears the session
// and returns ErrExpired; other failures leave it in place.
func (s *Session) Ensure(v Validator, now time.Time) error {
	if !s.HasToken() {
		return fmt.Errorf("not authenticated, run \"eventctl login\" first")
	}
	if !s.Stale(now) {
		return nil
	}

	user, err := v.Me()
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			s.Token = ""
			s.User = nil
			s.ValidatedAt = time.Time{}
			if clearErr := Clear(); clearErr != nil {
				return fmt.Errorf("clearing session: %w", clearErr)
			}
			return ErrExpired
		}
		return fmt.Errorf("validating session: %w", err)
	}

	s.User = user
	s.ValidatedAt = now
	return Save(s)
}
