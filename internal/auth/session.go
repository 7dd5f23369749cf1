package auth

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Session is the process-wide authentication state shared by all in-flight
// transfers: one mutable bearer token behind a mutex and one login UUID
// generated at startup.
//
// Token changes do not propagate into operations that already started; each
// call captures the token value at call start. A logout during an in-flight
// transfer therefore does not abort it, only the next call observes the
// cleared token.
type Session struct {
	mu        sync.Mutex
	token     string
	loginUUID string
}

// NewSession creates a session with a fresh login UUID (hex, no dashes,
// matching the official client's format).
func NewSession() *Session {
	return &Session{
		loginUUID: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
}

// Token returns the current bearer token, empty when unauthenticated.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken replaces the current bearer token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear drops the current bearer token.
func (s *Session) Clear() {
	s.SetToken("")
}

// LoginUUID returns the stable per-process client identifier.
func (s *Session) LoginUUID() string {
	return s.loginUUID
}
