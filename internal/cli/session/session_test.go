package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/metaa35/qrwedding-sub000/internal/cli/api"
)

type stubValidator struct {
	user  *api.User
	err   error
	calls int
}

func (s *stubValidator) Me() (*api.User, error) {
	s.calls++
	return s.user, s.err
}

func useTempHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	return filepath.Join(dir, fileName)
}

func TestLoadMissingFile(t *testing.T) {
	useTempHome(t)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if s.ServerURL != DefaultURL {
		t.Errorf("expected ServerURL %s, got %s", DefaultURL, s.ServerURL)
	}
	if s.HasToken() {
		t.Error("expected no token")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := useTempHome(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := &Session{ServerURL: "https://events.example.com"}
	if err := s.Login("tok-123", api.User{ID: "u1", Username: "alice"}, now); err != nil {
		t.Fatalf("Login() returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if info.Mode().Perm() != filePerms {
		t.Errorf("expected permissions %o, got %o", filePerms, info.Mode().Perm())
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if loaded.Token != "tok-123" || loaded.ServerURL != "https://events.example.com" {
		t.Errorf("unexpected session %+v", loaded)
	}
	if loaded.User == nil || loaded.User.Username != "alice" {
		t.Errorf("expected cached user alice, got %+v", loaded.User)
	}
	if !loaded.ValidatedAt.Equal(now) {
		t.Errorf("expected validated_at %v, got %v", now, loaded.ValidatedAt)
	}
}

func TestClear(t *testing.T) {
	path := useTempHome(t)

	if err := Clear(); err != nil {
		t.Fatalf("Clear() on missing file returned error: %v", err)
	}
	if err := Save(&Session{Token: "x"}); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if err := Clear(); err != nil {
		t.Fatalf("Clear() returned error: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected session file to be removed, got %v", err)
	}
}

func TestEnsureSkipsFreshSession(t *testing.T) {
	useTempHome(t)
	now := time.Now()
	s := &Session{Token: "tok", ValidatedAt: now.Add(-RevalidateAfter / 2)}
	v := &stubValidator{}

	if err := s.Ensure(v, now); err != nil {
		t.Fatalf("Ensure() returned error: %v", err)
	}
	if v.calls != 0 {
		t.Errorf("expected no server call for a fresh session, got %d", v.calls)
	}
}

func TestEnsureRevalidatesStaleSession(t *testing.T) {
	useTempHome(t)
	now := time.Now()
	s := &Session{Token: "tok", ValidatedAt: now.Add(-RevalidateAfter - time.Second)}
	v := &stubValidator{user: &api.User{Username: "fresh"}}

	if err := s.Ensure(v, now); err != nil {
		t.Fatalf("Ensure() returned error: %v", err)
	}
	if v.calls != 1 {
		t.Errorf("expected one server call, got %d", v.calls)
	}
	if !s.ValidatedAt.Equal(now) {
		t.Errorf("expected validated_at to move to now")
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if loaded.User == nil || loaded.User.Username != "fresh" {
		t.Errorf("expected refreshed user to be saved, got %+v", loaded.User)
	}
}

func TestEnsureClearsRejectedSession(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"expired token", &api.APIError{Status: 401, Code: "TOKEN_EXPIRED", Message: "expired"}},
		{"invalid token", &api.APIError{Status: 401, Code: "INVALID_TOKEN", Message: "invalid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := useTempHome(t)
			s := &Session{ServerURL: DefaultURL, Token: "tok"}
			if err := Save(s); err != nil {
				t.Fatalf("Save() returned error: %v", err)
			}

			err := s.Ensure(&stubValidator{err: tt.err}, time.Now())
			if !errors.Is(err, ErrExpired) {
				t.Fatalf("expected ErrExpired, got %v", err)
			}
			if s.HasToken() {
				t.Error("expected token to be dropped")
			}
			if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
				t.Errorf("expected session file to be removed, got %v", err)
			}
		})
	}
}

func TestEnsureKeepsSessionOnNetworkError(t *testing.T) {
	path := useTempHome(t)
	s := &Session{Token: "tok"}
	if err := Save(s); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	err := s.Ensure(&stubValidator{err: errors.New("connection refused")}, time.Now())
	if err == nil || errors.Is(err, ErrExpired) {
		t.Fatalf("expected a plain validation error, got %v", err)
	}
	if !s.HasToken() {
		t.Error("expected token to be kept")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected session file to remain: %v", err)
	}
}

func TestEnsureWithoutToken(t *testing.T) {
	useTempHome(t)
	s := &Session{}
	if err := s.Ensure(&stubValidator{}, time.Now()); err == nil {
		t.Fatal("expected an error without a token")
	}
}
