package models

import (
	creditmodels "atelier/internal/credits/models"
	rlmodels "atelier/internal/ratelimit/models"
)

// MaxReasonLength bounds the free-text note stored with a manual grant.
const MaxReasonLength = 200

// GrantRequest is the body of POST /admin/credits/grant.
type GrantRequest struct {
	UserID string `json:"user_id"`
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// GrantResponse echoes the ledger row written by a manual grant.
type GrantResponse struct {
	Transaction *creditmodels.Transaction `json:"transaction"`
}

// GuestQuotaListResponse is the body of GET /admin/guest-quota.
type GuestQuotaListResponse struct {
	Entries []rlmodels.GuestQuotaEntry `json:"entries"`
	Total   int                        `json:"total"`
}
