package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDecision(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no row is a fresh window", func(t *testing.T) {
		d := NewDecision(nil, true, p, now)
		assert.Equal(t, 3, d.Remaining)
		assert.Equal(t, now.Add(24*time.Hour), d.ResetAt)
	})

	t.Run("partially used", func(t *testing.T) {
		q := &GuestQuota{Used: 2, WindowStart: now.Add(-time.Hour)}
		d := NewDecision(q, true, p, now)
		assert.Equal(t, 1, d.Remaining)
		assert.Equal(t, now.Add(23*time.Hour), d.ResetAt)
		assert.Zero(t, d.RetryAfter)
	})

	t.Run("denied carries retry after", func(t *testing.T) {
		q := &GuestQuota{Used: 3, WindowStart: now.Add(-23 * time.Hour)}
		d := NewDecision(q, false, p, now)
		assert.False(t, d.Allowed)
		assert.Zero(t, d.Remaining)
		assert.Equal(t, 3600, d.RetryAfter)
	})

	t.Run("expired row resets", func(t *testing.T) {
		q := &GuestQuota{Used: 3, WindowStart: now.Add(-24 * time.Hour)}
		d := NewDecision(q, true, p, now)
		assert.Equal(t, 3, d.Remaining)
	})
}

func TestRedisGuestKey(t *testing.T) {
	assert.Equal(t, "atelier:guest_quota:ab_cd", RedisGuestKey("ab:cd"))
}
