package models

import "time"

// QuotaExceededResponse is returned with 429 when the guest allowance is spent.
type QuotaExceededResponse struct {
	Error            string    `json:"error"`
	ErrorDescription string    `json:"error_description"`
	Limit            int       `json:"limit"`
	ResetAt          time.Time `json:"reset_at"`
	RetryAfter       int       `json:"retry_after"`
}

// ThrottledResponse is returned with 429 when the per-IP burst limit trips.
type ThrottledResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}

// GuestQuotaResponse is the public view of a guest allowance.
type GuestQuotaResponse struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// GuestQuotaEntry is the admin view of one stored row.
type GuestQuotaEntry struct {
	IPKey       string    `json:"ip_key"`
	Used        int       `json:"used"`
	WindowStart time.Time `json:"window_start"`
	LastUsedAt  time.Time `json:"last_used_at"`
	Expired     bool      `json:"expired"`
}
