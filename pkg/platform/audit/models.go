package audit

import (
	"context"
	"time"

	id "atelier/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so stores
// and sinks can apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers billing and account changes that must be kept.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers abuse signals: quota exhaustion, crawler blocks,
	// rejected webhooks.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	// Subject names the entity acted on (image ID, pseudonymized IP key, product).
	Subject   string
	Action    string
	Decision  string
	Reason    string
	Amount    int
	RequestID string
	// ActorID is set when someone other than UserID performed the action,
	// e.g. an admin grant or a payment webhook.
	ActorID string
}

type AuditEvent string

const (
	// Account events
	EventProfileCreated      AuditEvent = "profile_created"
	EventSubscriptionChanged AuditEvent = "subscription_changed"

	// Credit events
	EventCreditsGranted   AuditEvent = "credits_granted"
	EventCreditsPurchased AuditEvent = "credits_purchased"
	EventCreditsDeducted  AuditEvent = "credits_deducted"
	EventCreditsRefunded  AuditEvent = "credits_refunded"

	// Generation events
	EventGenerationCompleted AuditEvent = "generation_completed"
	EventGenerationFailed    AuditEvent = "generation_failed"

	// Guest quota events
	EventGuestQuotaConsumed AuditEvent = "guest_quota_consumed"
	EventGuestQuotaReleased AuditEvent = "guest_quota_released"
	EventGuestQuotaExceeded AuditEvent = "guest_quota_exceeded"
	EventGuestQuotaReset    AuditEvent = "guest_quota_reset"
	EventCrawlerBlocked     AuditEvent = "crawler_blocked"
	EventRateLimitExceeded  AuditEvent = "rate_limit_exceeded"

	// Archive events
	EventArchiveSaved   AuditEvent = "archive_saved"
	EventArchiveDeleted AuditEvent = "archive_deleted"

	// Billing events
	EventCheckoutCreated  AuditEvent = "checkout_created"
	EventWebhookProcessed AuditEvent = "webhook_processed"
	EventWebhookRejected  AuditEvent = "webhook_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventProfileCreated:      CategoryCompliance,
	EventSubscriptionChanged: CategoryCompliance,
	EventCreditsGranted:      CategoryCompliance,
	EventCreditsPurchased:    CategoryCompliance,
	EventArchiveDeleted:      CategoryCompliance,
	EventWebhookProcessed:    CategoryCompliance,

	EventGuestQuotaExceeded: CategorySecurity,
	EventGuestQuotaReset:    CategorySecurity,
	EventCrawlerBlocked:     CategorySecurity,
	EventRateLimitExceeded:  CategorySecurity,
	EventWebhookRejected:    CategorySecurity,

	EventCreditsDeducted:     CategoryOperations,
	EventCreditsRefunded:     CategoryOperations,
	EventGenerationCompleted: CategoryOperations,
	EventGenerationFailed:    CategoryOperations,
	EventGuestQuotaConsumed:  CategoryOperations,
	EventGuestQuotaReleased:  CategoryOperations,
	EventArchiveSaved:        CategoryOperations,
	EventCheckoutCreated:     CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events for later querying.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// Sink receives a copy of every persisted event (e.g. a message broker).
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is the narrow interface domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
