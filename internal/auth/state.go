package auth

import (
	"sync"
	"time"
)

// loginStates holds OAuth state values between start and callback. Each value
// is single use; expired entries are dropped whenever a new one is issued.
type loginStates struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	expires map[string]time.Time
}

func newLoginStates(ttl time.Duration) *loginStates {
	return &loginStates{ttl: ttl, now: time.Now, expires: make(map[string]time.Time)}
}

func (s *loginStates) issue(state string) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, exp := range s.expires {
		if now.After(exp) {
			delete(s.expires, k)
		}
	}
	s.expires[state] = now.Add(s.ttl)
}

// redeem reports whether state was issued and has not expired, and forgets it.
func (s *loginStates) redeem(state string) bool {
	s.mu.Lock()
	exp, ok := s.expires[state]
	delete(s.expires, state)
	s.mu.Unlock()
	return ok && !s.now().After(exp)
}
