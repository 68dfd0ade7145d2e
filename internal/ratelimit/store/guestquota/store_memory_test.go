package guestquota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) TestConsumeUpToLimit() {
	for i := 1; i <= 3; i++ {
		row, allowed, err := s.store.Consume(s.ctx, "k", 3, 24*time.Hour, s.now)
		s.Require().NoError(err)
		s.True(allowed)
		s.Equal(i, row.Used)
	}

	row, allowed, err := s.store.Consume(s.ctx, "k", 3, 24*time.Hour, s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.False(allowed)
	s.Equal(3, row.Used)
	s.Equal(s.now, row.WindowStart)
	s.Equal(s.now, row.LastUsedAt, "denied attempts do not touch last use")
}

func (s *InMemoryStoreSuite) TestConsumeResetsAfterWindow() {
	for range 3 {
		_, _, err := s.store.Consume(s.ctx, "k", 3, 24*time.Hour, s.now)
		s.Require().NoError(err)
	}

	later := s.now.Add(24 * time.Hour)
	row, allowed, err := s.store.Consume(s.ctx, "k", 3, 24*time.Hour, later)
	s.Require().NoError(err)
	s.True(allowed)
	s.Equal(1, row.Used)
	s.Equal(later, row.WindowStart)
}

func (s *InMemoryStoreSuite) TestConsumeConcurrentNeverExceedsLimit() {
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, allowed, err := s.store.Consume(s.ctx, "k", 3, 24*time.Hour, s.now)
			s.NoError(err)
			if allowed {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(3, granted)
}

func (s *InMemoryStoreSuite) TestReleaseNeverBelowZero() {
	row, err := s.store.Release(s.ctx, "missing")
	s.Require().NoError(err)
	s.Nil(row)

	_, _, err = s.store.Consume(s.ctx, "k", 3, 24*time.Hour, s.now)
	s.Require().NoError(err)

	row, err = s.store.Release(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal(0, row.Used)

	row, err = s.store.Release(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal(0, row.Used)
}

func (s *InMemoryStoreSuite) TestListAndDeleteExpired() {
	_, _, _ = s.store.Consume(s.ctx, "old", 3, 24*time.Hour, s.now.Add(-25*time.Hour))
	_, _, _ = s.store.Consume(s.ctx, "new", 3, 24*time.Hour, s.now)

	rows, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal("new", rows[0].IPKey)

	removed, err := s.store.DeleteExpired(s.ctx, s.now.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(1, removed)

	row, err := s.store.Get(s.ctx, "old")
	s.Require().NoError(err)
	s.Nil(row)
}

func (s *InMemoryStoreSuite) TestDelete() {
	_, _, _ = s.store.Consume(s.ctx, "k", 3, 24*time.Hour, s.now)
	s.Require().NoError(s.store.Delete(s.ctx, "k"))

	row, err := s.store.Get(s.ctx, "k")
	s.Require().NoError(err)
	s.Nil(row)
}
