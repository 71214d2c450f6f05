// Package client is the typed HTTP client for the interview API. Credentials
// live in an explicit Session; a 401 or 403 invalidates it and notifies every
// subscriber instead of acting on its own.
package client

import (
	"sync"

	"github.com/justsurfingit/interview-scheduler/internal/models"
)

// InvalidatedEvent says why the session ended.
type InvalidatedEvent struct {
	Status int
	Reason string
}

// Session holds the bearer token and role of the signed-in user.
type Session struct {
	mu          sync.Mutex
	token       string
	role        models.Role
	invalidated *InvalidatedEvent
	done        chan struct{}
	subscribers []func(InvalidatedEvent)
}

func NewSession(token string, role models.Role) *Session {
	return &Session{token: token, role: role, done: make(chan struct{})}
}

// Token returns the bearer token, or false once the session is invalidated.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidated != nil || s.token == "" {
		return "", false
	}
	return s.token, true
}

func (s *Session) Role() models.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// OnInvalidated registers fn to run once when the session ends. Registering
// after the fact runs fn immediately.
func (s *Session) OnInvalidated(fn func(InvalidatedEvent)) {
	s.mu.Lock()
	if ev := s.invalidated; ev != nil {
		s.mu.Unlock()
		fn(*ev)
		return
	}
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// Done is closed when the session is invalidated.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Invalidate clears the token and notifies subscribers. Only the first call
// has any effect.
func (s *Session) Invalidate(ev InvalidatedEvent) {
	s.mu.Lock()
	if s.invalidated != nil {
		s.mu.Unlock()
		return
	}
	s.invalidated = &ev
	s.token = ""
	subs := s.subscribers
	s.subscribers = nil
	close(s.done)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Invalidated reports the event that ended the session, if any.
func (s *Session) Invalidated() (InvalidatedEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidated == nil {
		return InvalidatedEvent{}, false
	}
	return *s.invalidated, true
}
