package workflow

import "sync"

// UnknownUserID is the partition key used while no session exists.
const UnknownUserID = "unknown"

// Session is the process-wide authenticated identity. It is written by the
// login workflow and sign-out only; everything else reads it to derive the
// store partition key.
type Session struct {
	mu     sync.RWMutex
	userID string
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userID == "" {
		return UnknownUserID
	}
	return s.userID
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID != ""
}

func (s *Session) begin(userID string) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
}

func (s *Session) end() {
	s.mu.Lock()
	s.userID = ""
	s.mu.Unlock()
}
