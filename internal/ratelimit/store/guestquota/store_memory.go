// Package guestquota holds the backing stores for per-IP guest allowances.
package guestquota

import (
	"context"
	"sort"
	"sync"
	"time"

	"atelier/internal/ratelimit/models"
)

// InMemoryStore keeps guest rows in a map. Suitable for a single instance.
type InMemoryStore struct {
	mu   sync.Mutex
	rows map[string]*models.GuestQuota
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[string]*models.GuestQuota)}
}

func (s *InMemoryStore) Consume(_ context.Context, key string, limit int, window time.Duration, now time.Time) (*models.GuestQuota, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[key]
	if !ok || row.WindowExpired(now, window) {
		row = &models.GuestQuota{IPKey: key, WindowStart: now, LastUsedAt: now}
		s.rows[key] = row
	}
	if row.Used >= limit {
		out := *row
		return &out, false, nil
	}
	row.Used++
	row.LastUsedAt = now
	out := *row
	return &out, true, nil
}

func (s *InMemoryStore) Release(_ context.Context, key string) (*models.GuestQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[key]
	if !ok {
		return nil, nil
	}
	if row.Used > 0 {
		row.Used--
	}
	out := *row
	return &out, nil
}

func (s *InMemoryStore) Get(_ context.Context, key string) (*models.GuestQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[key]
	if !ok {
		return nil, nil
	}
	out := *row
	return &out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, key)
	return nil
}

// List returns rows ordered by most recent use.
func (s *InMemoryStore) List(_ context.Context) ([]*models.GuestQuota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.GuestQuota, 0, len(s.rows))
	for _, row := range s.rows {
		cp := *row
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastUsedAt.After(out[j].LastUsedAt)
	})
	return out, nil
}

func (s *InMemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, row := range s.rows {
		if !row.WindowStart.After(cutoff) {
			delete(s.rows, key)
			removed++
		}
	}
	return removed, nil
}
