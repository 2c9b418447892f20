package infrastructure

import (
	"sync"

	"chatWs/internal/modules/chat/application/port"
	"chatWs/internal/modules/chat/domain"
)

// SessionStore keeps per-connection metadata. The broker removes an entry only after
// its connection is closed.
type SessionStore struct {
	sessions map[string]domain.Session
	mu       sync.RWMutex
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

func (s *SessionStore) Put(connectionID string, session domain.Session) {
	session.ConnectionID = connectionID
	s.mu.Lock()
	s.sessions[connectionID] = session
	s.mu.Unlock()
}

func (s *SessionStore) Get(connectionID string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[connectionID]
	return session, ok
}

// Remove deletes the session and returns the last value stored for it.
func (s *SessionStore) Remove(connectionID string) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[connectionID]
	if ok {
		delete(s.sessions, connectionID)
	}
	return session, ok
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

var _ port.SessionStore = (*SessionStore)(nil)
