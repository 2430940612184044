package session

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vinodyk/patient-appointments/models"
)

// MemoryStore is an in-process Store backed by an LRU cache. It serves
// single-instance deployments and tests that should not need Redis.
type MemoryStore struct {
	cache *lru.Cache[string, *models.SessionContext]
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	cache, err := lru.New[string, *models.SessionContext](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*models.SessionContext, error) {
	if sess, ok := s.cache.Get(sessionID); ok {
		// Hand out a copy so callers cannot mutate the cached context
		// without going through Put.
		return sess.Clone(), nil
	}
	return models.NewSessionContext(), nil
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, sess *models.SessionContext) error {
	s.cache.Add(sessionID, sess.Clone())
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Remove(sessionID)
	return nil
}
