package models

import (
	"context"
	"time"

	"github.com/relaypay/billing-reconciler/utils"
)

// Charge is the append-only audit record of an applied payment success. One
// row exists per applied payment event; rows are never updated or deleted.
type Charge struct {
	ExternalEventID string `gorm:"primaryKey"`
	SubscriptionID  string
	CreatedAt       time.Time
}

func (store *BillingStore) CountCharges(ctx context.Context, subscriptionID string) utils.Result[int64] {
	var count int64

	result := store.db.Connection.WithContext(ctx).
		Model(&Charge{}).
		Where("subscription_id = ?", subscriptionID).
		Count(&count)
	if result.Error != nil {
		return utils.FailedResult[int64](result.Error)
	}

	return utils.SuccessResult(count)
}
