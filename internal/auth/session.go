package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned for unknown, expired or revoked token ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the server-side allow-list of issued tokens.
type SessionStore interface {
	Save(ctx context.Context, jti, email string, ttl time.Duration) error
	Lookup(ctx context.Context, jti string) (string, error)
	Revoke(ctx context.Context, jti string) error
}

type session struct {
	email   string
	expires time.Time
}

// MemorySessions keeps sessions in process. Used when Redis is not configured
// and in tests.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]session
	now      func() time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]session), now: time.Now}
}

func (s *MemorySessions) Save(_ context.Context, jti, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[jti] = session{email: email, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessions) Lookup(_ context.Context, jti string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[jti]
	if !ok {
		return "", ErrSessionNotFound
	}
	if !s.now().Before(sess.expires) {
		delete(s.sessions, jti)
		return "", ErrSessionNotFound
	}
	return sess.email, nil
}

func (s *MemorySessions) Revoke(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, jti)
	return nil
}
