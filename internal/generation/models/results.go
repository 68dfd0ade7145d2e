package models

import (
	id "atelier/pkg/domain"
)

// Caller identifies who is generating: a signed-in user or an anonymous guest
// keyed by client IP.
type Caller struct {
	UserID    id.UserID
	Email     string
	ClientIP  string
	UserAgent string
}

func (c Caller) IsGuest() bool {
	return c.UserID.IsNil()
}

// Image is one generated picture, base64 encoded.
type Image struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

// GuestAllowance is the quota snapshot returned to anonymous callers.
type GuestAllowance struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetAt   int64 `json:"reset_at"`
}

type GenerateResult struct {
	Images           []Image         `json:"images"`
	Prompt           string          `json:"prompt"`
	Requested        int             `json:"requested"`
	Failed           int             `json:"failed"`
	CreditsCharged   int             `json:"credits_charged"`
	RemainingCredits *int            `json:"remaining_credits,omitempty"`
	Guest            *GuestAllowance `json:"guest,omitempty"`
}

// Quote is a side-effect free preview of what Generate would do.
type Quote struct {
	Cost         int             `json:"cost"`
	PerImageCost int             `json:"per_image_cost"`
	Allowed      bool            `json:"allowed"`
	Reason       string          `json:"reason,omitempty"`
	Tier         id.Tier         `json:"tier"`
	Balance      *int            `json:"balance,omitempty"`
	Affordable   bool            `json:"affordable"`
	Guest        *GuestAllowance `json:"guest,omitempty"`
}
