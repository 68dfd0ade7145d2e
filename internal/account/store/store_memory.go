// Package store persists user profiles.
package store

import (
	"context"
	"sync"
	"time"

	"atelier/internal/account/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*models.Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.UserID]*models.Profile)}
}

func (s *InMemoryStore) Get(_ context.Context, userID id.UserID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *p
	return &out, nil
}

// CreateIfAbsent inserts p unless a profile exists, returning the stored row.
func (s *InMemoryStore) CreateIfAbsent(_ context.Context, p *models.Profile) (*models.Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.profiles[p.UserID]; ok {
		out := *existing
		return &out, false, nil
	}
	stored := *p
	s.profiles[p.UserID] = &stored
	out := stored
	return &out, true, nil
}

func (s *InMemoryStore) UpdateSubscription(_ context.Context, userID id.UserID, sub models.Subscription, now time.Time) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p.Tier = sub.Tier
	p.SubscriptionStatus = sub.Status
	p.CurrentPeriodEnd = sub.PeriodEnd
	p.UpdatedAt = now
	out := *p
	return &out, nil
}

func (s *InMemoryStore) UpdateEmail(_ context.Context, userID id.UserID, email string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.Email = email
	p.UpdatedAt = now
	return nil
}
