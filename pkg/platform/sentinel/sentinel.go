package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: row does not exist
//   - ErrConflict: unique constraint or duplicate event
//   - ErrInsufficient: guarded decrement would go below zero
//   - ErrExpired: window or signature timestamp is stale
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInsufficient = errors.New("insufficient balance")
	ErrExpired      = errors.New("expired")
	ErrUnavailable  = errors.New("unavailable")
)
