package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore keeps the backend bearer token in a local file, mirroring the
// single persisted credential slot the UI uses. An absent token is not an
// error; callers issue unauthenticated requests instead.
type TokenStore struct {
	path string
	mu   sync.RWMutex
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Token returns the stored credential, or ok=false when none is saved.
func (s *TokenStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	return token, token != ""
}

// Save persists the credential, replacing any previous one.
func (s *TokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, []byte(strings.TrimSpace(token)+"\n"), 0o600)
}

// Clear removes the stored credential. Clearing an absent token is a no-op.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Expired inspects the token's exp claim without verifying the signature.
// Verification belongs to the backend; this only lets the UI layer route a
// stale credential straight to the login page instead of bouncing off a 401.
// Tokens without an exp claim, or that fail to parse, are treated as live
// and left for the backend to judge.
func Expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
