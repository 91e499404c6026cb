package processors

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/tests"
	"github.com/relaypay/billing-reconciler/utils"
)

func setupReconciler() (*WebhookReconciler, *tests.MockVerifier, *tests.MockEventApplier, *tests.MockExpirer) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	verifier := &tests.MockVerifier{}
	applier := &tests.MockEventApplier{}
	expirer := &tests.MockExpirer{}
	return NewWebhookReconciler(logger, verifier, applier, expirer), verifier, applier, expirer
}

func TestReconcile(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	event := &models.BillingEvent{
		ID:                     "evt_1",
		Kind:                   models.InvoicePaymentSucceeded,
		SubscriptionExternalID: "sub_ext",
		ChargeID:               "in_1",
	}

	t.Run("should reject an unauthenticated payload without touching the store", func(t *testing.T) {
		reconciler, verifier, applier, _ := setupReconciler()
		verifier.ReturnedResult = utils.FailedResult[*models.BillingEvent](errors.New("signature mismatch")).
			NonCapturable().
			NonRetryable().
			AddErrorDetails("unauthenticated", "webhook signature could not be verified")

		result := reconciler.Reconcile(context.Background(), payload, "t=1,v1=bad")

		assert.False(t, result.Success())
		assert.False(t, result.IsRetryable())
		assert.Equal(t, "unauthenticated", result.ErrorCode())
		assert.Equal(t, 0, applier.ExecutionCount)
		assert.Equal(t, payload, verifier.LastPayload)
	})

	t.Run("should acknowledge a recognized but unhandled event kind", func(t *testing.T) {
		reconciler, verifier, applier, expirer := setupReconciler()
		verifier.ReturnedResult = utils.SuccessResult[*models.BillingEvent](nil)

		result := reconciler.Reconcile(context.Background(), payload, "t=1,v1=ok")

		assert.True(t, result.Success())
		assert.Equal(t, AckIgnored, result.Value().Reason)
		assert.Equal(t, 0, applier.ExecutionCount)
		assert.Equal(t, 0, expirer.ExecutionCount)
	})

	t.Run("should apply the event and expire the customer's entitlement entry", func(t *testing.T) {
		reconciler, verifier, applier, expirer := setupReconciler()
		verifier.ReturnedResult = utils.SuccessResult(event)
		applier.ReturnedResult = utils.SuccessResult(&models.ApplyOutcome{
			Subscription: &models.Subscription{ID: "sub123", CustomerID: "cus123", Status: models.SubscriptionActive},
			Change:       &models.SubscriptionChange{Status: models.SubscriptionActive},
		})

		result := reconciler.Reconcile(context.Background(), payload, "t=1,v1=ok")

		assert.True(t, result.Success())
		assert.Equal(t, AckApplied, result.Value().Reason)
		assert.Equal(t, "evt_1", result.Value().EventID)
		assert.Equal(t, event, applier.LastEvent)
		assert.Equal(t, "cus123", expirer.LastCustomerID)
	})

	t.Run("should acknowledge a replay without expiring the cache", func(t *testing.T) {
		reconciler, verifier, applier, expirer := setupReconciler()
		verifier.ReturnedResult = utils.SuccessResult(event)
		applier.ReturnedResult = utils.SuccessResult(&models.ApplyOutcome{
			AlreadyApplied: true,
			Subscription:   &models.Subscription{ID: "sub123", CustomerID: "cus123"},
		})

		result := reconciler.Reconcile(context.Background(), payload, "t=1,v1=ok")

		assert.True(t, result.Success())
		assert.Equal(t, AckAlreadyApplied, result.Value().Reason)
		assert.Equal(t, 0, expirer.ExecutionCount)
	})

	t.Run("should acknowledge an event for an unknown subscription", func(t *testing.T) {
		reconciler, verifier, applier, expirer := setupReconciler()
		verifier.ReturnedResult = utils.SuccessResult(event)
		applier.ReturnedResult = utils.FailedResult[*models.ApplyOutcome](errors.New("record not found")).
			NonRetryable().
			AddErrorDetails("subscription_not_found", "no subscription matches the event's external reference")

		result := reconciler.Reconcile(context.Background(), payload, "t=1,v1=ok")

		assert.True(t, result.Success())
		assert.Equal(t, AckNotFound, result.Value().Reason)
		assert.Equal(t, 0, expirer.ExecutionCount)
	})

	t.Run("should propagate a retryable store failure", func(t *testing.T) {
		reconciler, verifier, applier, _ := setupReconciler()
		verifier.ReturnedResult = utils.SuccessResult(event)
		applier.ReturnedResult = utils.FailedResult[*models.ApplyOutcome](errors.New("connection reset")).
			AddErrorDetails("store_failure", "reconciliation transaction could not commit")

		result := reconciler.Reconcile(context.Background(), payload, "t=1,v1=ok")

		assert.False(t, result.Success())
		assert.True(t, result.IsRetryable())
		assert.Equal(t, "store_failure", result.ErrorCode())
	})

	t.Run("should still acknowledge when the cache eviction fails", func(t *testing.T) {
		reconciler, verifier, applier, expirer := setupReconciler()
		verifier.ReturnedResult = utils.SuccessResult(event)
		applier.ReturnedResult = utils.SuccessResult(&models.ApplyOutcome{
			Subscription: &models.Subscription{ID: "sub123", CustomerID: "cus123"},
			Change:       &models.SubscriptionChange{},
		})
		expirer.ReturnedError = errors.New("connection refused")

		result := reconciler.Reconcile(context.Background(), payload, "t=1,v1=ok")

		assert.True(t, result.Success())
		assert.Equal(t, AckApplied, result.Value().Reason)
	})
}
