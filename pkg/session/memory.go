package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process session store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Get returns the session with id and extends its expiry by its TTL.
// An expired session is removed and reported as ErrExpired.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.IsExpired() {
		delete(s.sessions, id)
		return nil, ErrExpired
	}
	sess.ExpiresAt = time.Now().Add(sess.TTL)
	return sess, nil
}

// Set stores sess under its ID, replacing any existing session.
func (s *MemoryStore) Set(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// Delete removes the session with id. Deleting a missing session is not an error.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Cleanup removes expired sessions and returns how many were removed.
func (s *MemoryStore) Cleanup(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.IsExpired() {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included until the next Cleanup.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func RunCleanup(ctx context.Context, store Store, interval time.Duration, onRemoved func(int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := store.Cleanup(ctx); err == nil && n > 0 && onRemoved != nil {
				onRemoved(n)
			}
		}
	}
}

var _ Store = (*MemoryStore)(nil)
