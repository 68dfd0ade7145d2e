// Package models defines the billing catalog and payment events.
package models

import (
	"time"

	"atelier/internal/entitlement"
	id "atelier/pkg/domain"
)

type ProductKind string

const (
	KindSubscription ProductKind = "subscription"
	KindCreditPack   ProductKind = "credit_pack"
)

// Product is something a user can buy at checkout.
type Product struct {
	ID         string      `json:"id"`
	Kind       ProductKind `json:"kind"`
	Name       string      `json:"name"`
	Tier       id.Tier     `json:"tier,omitempty"`
	Credits    int         `json:"credits,omitempty"`
	PriceCents int         `json:"price_cents"`
	Currency   string      `json:"currency"`
}

var catalog = []Product{
	{ID: "starter_monthly", Kind: KindSubscription, Name: "Starter", Tier: id.TierStarter, PriceCents: 900, Currency: "usd"},
	{ID: "creator_monthly", Kind: KindSubscription, Name: "Creator", Tier: id.TierCreator, PriceCents: 2400, Currency: "usd"},
	{ID: "studio_monthly", Kind: KindSubscription, Name: "Studio", Tier: id.TierStudio, PriceCents: 7900, Currency: "usd"},
	{ID: "pack_50", Kind: KindCreditPack, Name: "50 credits", Credits: 50, PriceCents: 500, Currency: "usd"},
	{ID: "pack_200", Kind: KindCreditPack, Name: "200 credits", Credits: 200, PriceCents: 1500, Currency: "usd"},
}

// Catalog returns every product, subscriptions first.
func Catalog() []Product {
	out := make([]Product, len(catalog))
	copy(out, catalog)
	return out
}

func ProductByID(productID string) (Product, bool) {
	for _, p := range catalog {
		if p.ID == productID {
			return p, true
		}
	}
	return Product{}, false
}

// SubscriptionFor returns the subscription product selling tier.
func SubscriptionFor(tier id.Tier) (Product, bool) {
	for _, p := range catalog {
		if p.Kind == KindSubscription && p.Tier == tier {
			return p, true
		}
	}
	return Product{}, false
}

// TierOffer pairs a tier's entitlements with its price. Free has no product.
type TierOffer struct {
	entitlement.Limits
	ProductID  string `json:"product_id,omitempty"`
	PriceCents int    `json:"price_cents"`
	Currency   string `json:"currency,omitempty"`
}

type TiersResponse struct {
	Tiers []TierOffer `json:"tiers"`
	Packs []Product   `json:"packs"`
}

type CheckoutRequest struct {
	ProductID string `json:"product_id"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CheckoutSession is what the payment service needs to start a checkout.
type CheckoutSession struct {
	UserID     id.UserID
	Email      string
	Product    Product
	SuccessURL string
	CancelURL  string
}

// Session is the payment service's reply.
type Session struct {
	ID  string
	URL string
}

type EventType string

const (
	EventCheckoutCompleted    EventType = "checkout.completed"
	EventSubscriptionUpdated  EventType = "subscription.updated"
	EventSubscriptionCanceled EventType = "subscription.canceled"
	EventInvoicePaid          EventType = "invoice.paid"
)

// Event is a verified webhook payload reduced to the fields we act on.
type Event struct {
	ID        string
	Type      EventType
	UserID    id.UserID
	ProductID string
	Tier      id.Tier
	Status    string
	PeriodEnd *time.Time
	Created   time.Time
}

type WebhookResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}
