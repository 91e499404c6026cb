package billing

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"

	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/utils"
)

// TranslateEvent turns a verified provider event into the engine's closed
// variant. Payload shapes the engine claims to handle but cannot read fail
// here, before any state is touched; kinds the engine does not handle
// translate to a nil event, which the reconciler acknowledges as a no-op.
func TranslateEvent(event *stripe.Event) utils.Result[*models.BillingEvent] {
	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		kind := models.PaymentSucceeded
		if event.Type == "payment_intent.payment_failed" {
			kind = models.PaymentFailed
		}
		return translatePaymentEvent(event, kind)

	case "invoice.payment_succeeded", "invoice.payment_failed":
		kind := models.InvoicePaymentSucceeded
		if event.Type == "invoice.payment_failed" {
			kind = models.InvoicePaymentFailed
		}
		return translatePaymentEvent(event, kind)

	case "customer.subscription.updated", "customer.subscription.deleted":
		return translateSubscriptionEvent(event)

	default:
		return utils.SuccessResult[*models.BillingEvent](nil)
	}
}

func translatePaymentEvent(event *stripe.Event, kind models.EventKind) utils.Result[*models.BillingEvent] {
	var payload struct {
		ID           string `json:"id"`
		Subscription string `json:"subscription"`
	}
	if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
		return malformedEventResult(event, err)
	}
	if payload.ID == "" || payload.Subscription == "" {
		return malformedEventResult(event,
			fmt.Errorf("payload for %s carries no subscription reference", event.Type))
	}

	return utils.SuccessResult(&models.BillingEvent{
		ID:                     event.ID,
		Kind:                   kind,
		SubscriptionExternalID: payload.Subscription,
		ChargeID:               payload.ID,
	})
}

func translateSubscriptionEvent(event *stripe.Event) utils.Result[*models.BillingEvent] {
	var payload struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		CurrentPeriodEnd int64  `json:"current_period_end"`
	}
	if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
		return malformedEventResult(event, err)
	}
	if payload.ID == "" {
		return malformedEventResult(event,
			fmt.Errorf("payload for %s carries no subscription identifier", event.Type))
	}
	// The processor is authoritative for the period end on an update; without
	// the field there is nothing to apply, and zero would decode as the epoch.
	if payload.CurrentPeriodEnd == 0 && event.Type != "customer.subscription.deleted" {
		return malformedEventResult(event,
			fmt.Errorf("payload for %s carries no current_period_end", event.Type))
	}

	status := models.SubscriptionCanceled
	if event.Type != "customer.subscription.deleted" {
		statusResult := subscriptionStatusFromString(payload.Status)
		if statusResult.Failure() {
			return malformedEventResult(event, statusResult.Error())
		}
		status = statusResult.Value()
	}

	periodEndResult := utils.ToTime(payload.CurrentPeriodEnd)
	if periodEndResult.Failure() {
		return malformedEventResult(event, periodEndResult.Error())
	}

	return utils.SuccessResult(&models.BillingEvent{
		ID:                     event.ID,
		Kind:                   models.SubscriptionUpdated,
		SubscriptionExternalID: payload.ID,
		ReportedStatus:         status,
		ReportedPeriodEnd:      periodEndResult.Value(),
	})
}

func subscriptionStatus(status stripe.SubscriptionStatus) models.SubscriptionStatus {
	result := subscriptionStatusFromString(string(status))
	if result.Failure() {
		return models.SubscriptionPending
	}
	return result.Value()
}

func subscriptionStatusFromString(status string) utils.Result[models.SubscriptionStatus] {
	switch stripe.SubscriptionStatus(status) {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return utils.SuccessResult(models.SubscriptionActive)
	case stripe.SubscriptionStatusIncomplete:
		return utils.SuccessResult(models.SubscriptionPending)
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusPaused:
		return utils.SuccessResult(models.SubscriptionInactive)
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return utils.SuccessResult(models.SubscriptionCanceled)
	default:
		return utils.FailedResult[models.SubscriptionStatus](
			fmt.Errorf("unknown subscription status: %q", status))
	}
}

func malformedEventResult(event *stripe.Event, err error) utils.Result[*models.BillingEvent] {
	return utils.FailedResult[*models.BillingEvent](err).
		NonRetryable().
		AddErrorDetails("malformed", fmt.Sprintf("unreadable payload for event kind %s", event.Type))
}
