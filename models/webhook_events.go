package models

import (
	"time"
)

// WebhookEvent is the deduplication ledger, keyed purely by the processor's
// event identifier. A row's existence is the sole proof that an event was
// already applied; every mutating event kind is recorded here, including
// subscription_updated, which produces no charge.
type WebhookEvent struct {
	EventID        string `gorm:"primaryKey"`
	SubscriptionID string
	Kind           EventKind
	CreatedAt      time.Time
}
