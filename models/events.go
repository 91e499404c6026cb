package models

import (
	"time"
)

type EventKind string

const (
	PaymentSucceeded        EventKind = "payment_succeeded"
	PaymentFailed           EventKind = "payment_failed"
	InvoicePaymentSucceeded EventKind = "invoice_payment_succeeded"
	InvoicePaymentFailed    EventKind = "invoice_payment_failed"
	SubscriptionUpdated     EventKind = "subscription_updated"
)

// BillingEvent is the closed ingestion-boundary form of a processor
// notification. Translation from the provider payload happens before any
// state is touched; payload shapes the engine does not recognize never get
// this far.
type BillingEvent struct {
	ID                     string
	Kind                   EventKind
	SubscriptionExternalID string

	// Payment events only.
	ChargeID string

	// subscription_updated only. The processor is authoritative for both
	// fields on that event kind.
	ReportedStatus    SubscriptionStatus
	ReportedPeriodEnd time.Time
}

func (ev *BillingEvent) PaymentSucceeded() bool {
	return ev.Kind == PaymentSucceeded || ev.Kind == InvoicePaymentSucceeded
}

func (ev *BillingEvent) PaymentFailed() bool {
	return ev.Kind == PaymentFailed || ev.Kind == InvoicePaymentFailed
}

// ChargeRef returns the identifier under which a successful payment is
// recorded in the charge ledger.
func (ev *BillingEvent) ChargeRef() string {
	if ev.ChargeID != "" {
		return ev.ChargeID
	}
	return ev.ID
}
