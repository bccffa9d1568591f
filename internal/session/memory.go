package session

import (
	"context"
	"sync"

	"github.com/niyax/cvm/backend/internal/contracts"
)

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*contracts.Session
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*contracts.Session)}
}

func (s *MemoryStore) Create(_ context.Context, sess *contracts.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*contracts.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, notFound()
	}
	return sess.Clone(), nil
}

// Update holds the write lock while fn runs; fn must not block
func (s *MemoryStore) Update(_ context.Context, id string, fn func(sess *contracts.Session) error) (*contracts.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[id]
	if !ok {
		return nil, notFound()
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.sessions[id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

var _ Store = (*MemoryStore)(nil)
