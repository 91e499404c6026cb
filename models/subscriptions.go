package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/relaypay/billing-reconciler/utils"
)

type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// ErrActiveSubscriptionExists enforces the single-active invariant: a
// customer holds at most one active subscription at any time.
var ErrActiveSubscriptionExists = errors.New("customer already has an active subscription")

type Subscription struct {
	ID               string `gorm:"primaryKey"`
	CustomerID       string
	ExternalID       string
	Status           SubscriptionStatus
	CurrentPeriodEnd time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (sub *Subscription) Terminated() bool {
	return sub.Status == SubscriptionCanceled
}

// CheckoutSession is what the payment processor hands back when a
// subscription is created on its side.
type CheckoutSession struct {
	ExternalID       string
	Status           SubscriptionStatus
	CurrentPeriodEnd time.Time
	ClientSecret     string
}

func (store *BillingStore) FetchSubscriptionByExternalID(ctx context.Context, externalID string) utils.Result[*Subscription] {
	var sub Subscription

	result := store.db.Connection.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&sub)
	if result.Error != nil {
		return failedSubscriptionResult(result.Error)
	}

	return utils.SuccessResult(&sub)
}

// FetchLatestSubscription returns the customer's most recent subscription,
// terminated or not. Entitlement is derived from this record alone.
func (store *BillingStore) FetchLatestSubscription(ctx context.Context, customerID string) utils.Result[*Subscription] {
	var sub Subscription

	result := store.db.Connection.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(1).
		First(&sub)
	if result.Error != nil {
		return failedSubscriptionResult(result.Error)
	}

	return utils.SuccessResult(&sub)
}

// CreateSubscription inserts a new subscription. The active-subscription
// check and the insert run in one transaction so two concurrent signups for
// the same customer cannot both pass the check.
func (store *BillingStore) CreateSubscription(ctx context.Context, sub *Subscription) utils.Result[*Subscription] {
	err := store.db.Connection.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		count := tx.Model(&Subscription{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("customer_id = ? AND status = ?", sub.CustomerID, SubscriptionActive).
			Count(&active)
		if count.Error != nil {
			return count.Error
		}
		if active > 0 {
			return ErrActiveSubscriptionExists
		}

		return tx.Create(sub).Error
	})
	if err != nil {
		if errors.Is(err, ErrActiveSubscriptionExists) {
			return utils.FailedResult[*Subscription](err).
				NonCapturable().
				NonRetryable().
				AddErrorDetails("active_subscription_exists", "customer already has an active subscription")
		}
		return utils.FailedResult[*Subscription](err)
	}

	return utils.SuccessResult(sub)
}

func failedSubscriptionResult(err error) utils.Result[*Subscription] {
	result := utils.FailedResult[*Subscription](err)

	if err.Error() == gorm.ErrRecordNotFound.Error() {
		result = result.NonCapturable().NonRetryable()
	}

	return result
}
