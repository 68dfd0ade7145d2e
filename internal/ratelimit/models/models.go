package models

import (
	"math"
	"time"
)

// GuestQuota is the single backing row tracked per pseudonymized client IP.
type GuestQuota struct {
	IPKey       string    `json:"ip_key"`
	Used        int       `json:"used"`
	WindowStart time.Time `json:"window_start"`
	LastUsedAt  time.Time `json:"last_used_at"`
}

// WindowExpired reports whether the row's window has fully elapsed at now.
func (q *GuestQuota) WindowExpired(now time.Time, window time.Duration) bool {
	return q == nil || now.Sub(q.WindowStart) >= window
}

// ResetAt is when the current window ends.
func (q *GuestQuota) ResetAt(window time.Duration) time.Time {
	return q.WindowStart.Add(window)
}

// Policy is the guest allowance: Limit generations per rolling Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// DefaultPolicy is three generations per 24 hours.
func DefaultPolicy() Policy {
	return Policy{Limit: 3, Window: 24 * time.Hour}
}

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after"` // seconds, set when denied
}

// NewDecision derives remaining and reset from a row as of now. A nil or
// expired row means a fresh window.
func NewDecision(q *GuestQuota, allowed bool, p Policy, now time.Time) *Decision {
	if q.WindowExpired(now, p.Window) {
		return &Decision{Allowed: allowed, Limit: p.Limit, Remaining: p.Limit, ResetAt: now.Add(p.Window)}
	}
	d := &Decision{
		Allowed:   allowed,
		Limit:     p.Limit,
		Remaining: max(p.Limit-q.Used, 0),
		ResetAt:   q.ResetAt(p.Window),
	}
	if !allowed {
		d.RetryAfter = int(math.Ceil(d.ResetAt.Sub(now).Seconds()))
		if d.RetryAfter < 1 {
			d.RetryAfter = 1
		}
	}
	return d
}

// ExceededError carries the denial so transports can render limit headers.
type ExceededError struct {
	Decision *Decision
}

func (e *ExceededError) Error() string {
	return "guest quota exceeded"
}
