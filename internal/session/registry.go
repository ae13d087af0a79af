// Package session tracks in-flight multi-step interactions (button, select
// and modal flows) per user.
package session

import (
	"strconv"
	"sync"
	"time"
)

// Kind identifies the flow a session belongs to.
type Kind string

const (
	KindAdd      Kind = "add"
	KindLearning Kind = "learning"
	KindRemove   Kind = "remove"
	KindRunning  Kind = "runningchars"
)

// Target is one selectable roster entry of a remove flow.
type Target struct {
	Class string
	Name  string
}

// Session is one user's in-flight flow. Its token is embedded in component
// custom IDs so clicks on stale messages can be told apart.
type Session struct {
	UserID string
	Kind   Kind
	Token  string
	// Origin is opaque data the caller needs on expiry, typically the
	// interaction whose reply should be edited.
	Origin any

	busy chan struct{}

	mu      sync.Mutex
	class   string
	picks   []string
	targets []Target
	timer   *time.Timer
	ended   bool
}

// TryAcquire marks the session busy. It returns false if another
// interaction is already being handled for it.
func (s *Session) TryAcquire() bool {
	select {
	case s.busy <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release clears the busy mark. Safe to call when not acquired.
func (s *Session) Release() {
	select {
	case <-s.busy:
	default:
	}
}

// SetClass records the class chosen in the flow.
func (s *Session) SetClass(class string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.class = class
}

// Class returns the class chosen in the flow.
func (s *Session) Class() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.class
}

// AddPicks appends values not already picked and returns all picks.
func (s *Session) AddPicks(values ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range values {
		seen := false
		for _, p := range s.picks {
			if p == v {
				seen = true
				break
			}
		}
		if !seen {
			s.picks = append(s.picks, v)
		}
	}
	return append([]string(nil), s.picks...)
}

// Picks returns the values picked so far.
func (s *Session) Picks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.picks...)
}

// SetTargets stores the entries offered by a remove flow.
func (s *Session) SetTargets(targets []Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append([]Target(nil), targets...)
}

// Target returns the i-th offered entry.
func (s *Session) Target(i int) (Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.targets) {
		return Target{}, false
	}
	return s.targets[i], true
}

// Ended reports whether the session was ended, replaced or expired.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// stop ends the session and reports whether it was still live.
func (s *Session) stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.ended = true
	if s.timer != nil {
		s.timer.Stop()
	}
	return true
}

// Registry holds at most one live session per user.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	seq      uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Start opens a session for userID, ending any previous one without calling
// its expiry callback. onExpire runs once if the session is still live when
// ttl elapses.
func (r *Registry) Start(userID string, kind Kind, ttl time.Duration, origin any, onExpire func(*Session)) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.sessions[userID]; ok {
		prev.stop()
	}

	r.seq++
	s := &Session{
		UserID: userID,
		Kind:   kind,
		Token:  strconv.FormatUint(r.seq, 36),
		Origin: origin,
		busy:   make(chan struct{}, 1),
	}
	r.sessions[userID] = s
	if ttl > 0 {
		s.timer = time.AfterFunc(ttl, func() { r.expire(s, onExpire) })
	}
	return s
}

// Get returns the live session for userID when it matches kind and token.
func (r *Registry) Get(userID string, kind Kind, token string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok || s.Kind != kind || s.Token != token || s.Ended() {
		return nil, false
	}
	return s, true
}

// Extend restarts the expiry clock of a live session.
func (r *Registry) Extend(s *Session, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.timer == nil {
		return
	}
	s.timer.Reset(ttl)
}

// End closes the session if it is still the user's current one.
func (r *Registry) End(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.UserID]; ok && cur == s {
		delete(r.sessions, s.UserID)
	}
	s.stop()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expire(s *Session, onExpire func(*Session)) {
	r.mu.Lock()
	if cur, ok := r.sessions[s.UserID]; ok && cur == s {
		delete(r.sessions, s.UserID)
	}
	live := s.stop()
	r.mu.Unlock()

	if live && onExpire != nil {
		onExpire(s)
	}
}
