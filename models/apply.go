package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/relaypay/billing-reconciler/utils"
)

// ApplyOutcome reports what a reconciliation transaction did.
type ApplyOutcome struct {
	AlreadyApplied bool
	Subscription   *Subscription
	Change         *SubscriptionChange
}

var errUnsupportedEventKind = errors.New("unsupported event kind")

// ApplyEvent runs the dedup check, the state transition, and every derived
// write in a single transaction. The subscription row is locked first, so two
// concurrent deliveries of the same event id, or two different events for the
// same subscription, serialize on the row: the second delivery observes the
// ledger entry committed by the first.
func (store *BillingStore) ApplyEvent(ctx context.Context, ev *BillingEvent) utils.Result[*ApplyOutcome] {
	var outcome *ApplyOutcome

	err := store.db.Connection.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub Subscription
		fetch := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_id = ?", ev.SubscriptionExternalID).
			First(&sub)
		if fetch.Error != nil {
			return fetch.Error
		}

		var applied int64
		dedup := tx.Model(&WebhookEvent{}).
			Where("event_id = ?", ev.ID).
			Count(&applied)
		if dedup.Error != nil {
			return dedup.Error
		}
		if applied > 0 {
			outcome = &ApplyOutcome{AlreadyApplied: true, Subscription: &sub}
			return nil
		}

		changeResult := NextState(&sub, ev)
		if changeResult.Failure() {
			return errUnsupportedEventKind
		}
		change := changeResult.Value()

		record := tx.Create(&WebhookEvent{
			EventID:        ev.ID,
			SubscriptionID: sub.ID,
			Kind:           ev.Kind,
			CreatedAt:      time.Now().UTC(),
		})
		if record.Error != nil {
			return record.Error
		}

		if change.RecordCharge {
			charge := tx.Create(&Charge{
				ExternalEventID: change.ChargeID,
				SubscriptionID:  sub.ID,
				CreatedAt:       time.Now().UTC(),
			})
			if charge.Error != nil {
				return charge.Error
			}
		}

		if change.Mutates(&sub) {
			update := tx.Model(&Subscription{}).
				Where("id = ?", sub.ID).
				Updates(map[string]any{
					"status":             change.Status,
					"current_period_end": change.CurrentPeriodEnd,
				})
			if update.Error != nil {
				return update.Error
			}
		}

		sub.Status = change.Status
		sub.CurrentPeriodEnd = change.CurrentPeriodEnd
		outcome = &ApplyOutcome{Subscription: &sub, Change: change}
		return nil
	})
	if err != nil {
		return failedApplyResult(err)
	}

	return utils.SuccessResult(outcome)
}

func failedApplyResult(err error) utils.Result[*ApplyOutcome] {
	result := utils.FailedResult[*ApplyOutcome](err)

	switch {
	case err.Error() == gorm.ErrRecordNotFound.Error():
		// Unknown subscription reference: a reconciliation gap. Reported,
		// acknowledged, never retried from our side.
		result = result.NonRetryable().
			AddErrorDetails("subscription_not_found", "no subscription matches the event's external reference")
	case errors.Is(err, errUnsupportedEventKind):
		result = result.NonRetryable().
			AddErrorDetails("unsupported_event_kind", "event kind has no transition")
	default:
		result = result.AddErrorDetails("store_failure", "reconciliation transaction could not commit")
	}

	return result
}
