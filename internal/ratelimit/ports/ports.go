// Package ports defines shared interfaces for the ratelimit module.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks GuestQuotaStore

import (
	"context"
	"time"

	"atelier/internal/ratelimit/models"
	"atelier/pkg/platform/audit"
)

// AuditPublisher emits audit events for quota operations.
type AuditPublisher = audit.Emitter

// GuestQuotaStore persists one row per pseudonymized IP key. Consume must be
// atomic per key: concurrent calls for the same key never both take the last
// unit.
type GuestQuotaStore interface {
	// Consume resets the window when it has elapsed, then takes one unit if
	// fewer than limit are used. It returns the row after the operation.
	Consume(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (quota *models.GuestQuota, allowed bool, err error)

	// Release gives back one unit, never going below zero. Returns nil when
	// the key has no row.
	Release(ctx context.Context, key string) (*models.GuestQuota, error)

	// Get returns the row for key, or nil when absent.
	Get(ctx context.Context, key string) (*models.GuestQuota, error)

	// Delete removes the row for key.
	Delete(ctx context.Context, key string) error

	// List returns every row.
	List(ctx context.Context) ([]*models.GuestQuota, error)

	// DeleteExpired removes rows whose window started at or before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}
