package models

import (
	"time"

	"atelier/internal/entitlement"
	id "atelier/pkg/domain"
)

// SubscriptionStatus mirrors the payment service's subscription lifecycle.
type SubscriptionStatus string

const (
	StatusNone     SubscriptionStatus = "none"
	StatusActive   SubscriptionStatus = "active"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
)

func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case StatusNone, StatusActive, StatusTrialing, StatusPastDue, StatusCanceled:
		return true
	}
	return false
}

// Profile is the account row created the first time a user is seen.
type Profile struct {
	UserID             id.UserID          `json:"user_id"`
	Email              string             `json:"email"`
	Tier               id.Tier            `json:"tier"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	CurrentPeriodEnd   *time.Time         `json:"current_period_end,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Subscription is the tier change pushed by billing.
type Subscription struct {
	Tier      id.Tier
	Status    SubscriptionStatus
	PeriodEnd *time.Time
}

// MeResponse is the body of GET /api/me.
type MeResponse struct {
	Profile      *Profile           `json:"profile"`
	Entitlements entitlement.Limits `json:"entitlements"`
	Credits      int                `json:"credits"`
}
