// Package session holds the login state. It is an explicit value handed to
// whoever needs it; the token itself lives in an injectable TokenStore.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dori/todoql/internal/api"
)

// ErrEmptyToken is returned when a login succeeds without a usable token
var ErrEmptyToken = errors.New("empty session token")

// TokenStore persists the session token between runs
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Authenticator exchanges credentials for a token
type Authenticator interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
}

// Session is the current login. The zero value is not usable; use New.
type Session struct {
	mu    sync.RWMutex
	store TokenStore
	token string
	now   func() time.Time
}

// New loads the stored token, if any
func New(ctx context.Context, store TokenStore) (*Session, error) {
	s := &Session{store: store, now: time.Now}
	token, err := store.LoadToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session token: %w", err)
	}
	s.token = strings.TrimSpace(token)
	return s, nil
}

// LoggedIn reports whether a token is present. A JWT whose exp has passed
// counts as absent; tokens that are not JWTs are taken at face value.
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// Token returns the bearer token, or "" when logged out or expired
func (s *Session) Token() string {
	s.mu.RLock()
	token, now := s.token, s.now
	s.mu.RUnlock()

	if token == "" {
		return ""
	}
	claims, ok := parseClaims(token)
	if !ok {
		return token
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && !exp.After(now()) {
		return ""
	}
	return token
}

// Subject returns the email or subject claim of the token for display
func (s *Session) Subject() string {
	token := s.Token()
	if token == "" {
		return ""
	}
	claims, ok := parseClaims(token)
	if !ok {
		return ""
	}
	if email, ok := claims["email"].(string); ok && email != "" {
		return email
	}
	sub, _ := claims.GetSubject()
	return sub
}

// ExpiresAt returns the token expiry when the token carries one
func (s *Session) ExpiresAt() (time.Time, bool) {
	claims, ok := parseClaims(s.Token())
	if !ok {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Login authenticates and stores the returned token
func (s *Session) Login(ctx context.Context, auth Authenticator, email, password string) error {
	res, err := auth.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(res.Token)
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.store.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Logout forgets the token
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.ClearToken(ctx); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

// parseClaims reads the claims without verifying the signature; the client
// has no key and only needs exp and the subject for display.
func parseClaims(token string) (jwt.MapClaims, bool) {
	if token == "" || strings.Count(token, ".") != 2 {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// MemoryStore keeps the token in memory only
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// LoadToken returns the held token, "" if none
func (m *MemoryStore) LoadToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

// SaveToken replaces the held token
func (m *MemoryStore) SaveToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// ClearToken forgets the token
func (m *MemoryStore) ClearToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
