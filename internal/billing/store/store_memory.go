// Package store records processed payment events so redelivered webhooks
// are applied once.
package store

import (
	"context"
	"sync"
	"time"
)

type InMemoryStore struct {
	mu     sync.Mutex
	events map[string]time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string]time.Time)}
}

// MarkProcessed records eventID and reports whether this was its first
// delivery.
func (s *InMemoryStore) MarkProcessed(_ context.Context, eventID, _ string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; ok {
		return false, nil
	}
	s.events[eventID] = now
	return true, nil
}

// Forget drops eventID so a failed delivery can be retried.
func (s *InMemoryStore) Forget(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, eventID)
	return nil
}
