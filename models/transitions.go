package models

import (
	"fmt"
	"time"

	"github.com/relaypay/billing-reconciler/utils"
)

// SubscriptionChange is the state machine's verdict for one event: the next
// status, the next period boundary, and whether a charge row is owed.
type SubscriptionChange struct {
	Status           SubscriptionStatus
	CurrentPeriodEnd time.Time
	RecordCharge     bool
	ChargeID         string
}

func (change *SubscriptionChange) Mutates(sub *Subscription) bool {
	return change.Status != sub.Status ||
		!change.CurrentPeriodEnd.Equal(sub.CurrentPeriodEnd) ||
		change.RecordCharge
}

// NextState computes the transition for an incoming event against the
// current record. It is pure: persistence and deduplication are the caller's
// concern.
//
// Canceled is terminal. Events that land on a canceled subscription leave it
// untouched, which keeps the final state deterministic when a cancellation
// and a payment event for the same subscription race each other.
func NextState(sub *Subscription, ev *BillingEvent) utils.Result[*SubscriptionChange] {
	if sub.Terminated() {
		return utils.SuccessResult(&SubscriptionChange{
			Status:           sub.Status,
			CurrentPeriodEnd: sub.CurrentPeriodEnd,
		})
	}

	switch {
	case ev.PaymentSucceeded():
		return utils.SuccessResult(&SubscriptionChange{
			Status:           SubscriptionActive,
			CurrentPeriodEnd: utils.NextBillingPeriod(sub.CurrentPeriodEnd),
			RecordCharge:     true,
			ChargeID:         ev.ChargeRef(),
		})

	case ev.PaymentFailed():
		return utils.SuccessResult(&SubscriptionChange{
			Status:           SubscriptionInactive,
			CurrentPeriodEnd: sub.CurrentPeriodEnd,
		})

	case ev.Kind == SubscriptionUpdated:
		return utils.SuccessResult(&SubscriptionChange{
			Status:           ev.ReportedStatus,
			CurrentPeriodEnd: ev.ReportedPeriodEnd,
		})

	default:
		err := fmt.Errorf("unsupported event kind: %s", ev.Kind)
		return utils.FailedResult[*SubscriptionChange](err).
			NonRetryable().
			AddErrorDetails("unsupported_event_kind", "event kind has no transition")
	}
}
