package processors

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	tracer "github.com/relaypay/billing-reconciler/config"
	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/utils"
)

const (
	AckApplied        = "applied"
	AckAlreadyApplied = "already_applied"
	AckIgnored        = "ignored"
	AckNotFound       = "subscription_not_found"
)

// Ack is the terminal answer for one delivery. Any Ack, whatever its reason,
// tells the sender to stop redelivering.
type Ack struct {
	EventID string `json:"event_id,omitempty"`
	Reason  string `json:"reason"`
}

// EventVerifier authenticates a raw payload and translates it into a
// BillingEvent. A nil event on success means the kind is recognized but
// carries nothing for the engine.
type EventVerifier interface {
	VerifyAndParse(payload []byte, signature string) utils.Result[*models.BillingEvent]
}

type EventApplier interface {
	ApplyEvent(ctx context.Context, ev *models.BillingEvent) utils.Result[*models.ApplyOutcome]
}

type EntitlementExpirer interface {
	Expire(customerID string) utils.Result[bool]
}

// WebhookReconciler is the single state-mutating entry point of the system:
// verify, translate, dedup-check, transition, persist — in that order, with
// everything from the dedup check onward inside one store transaction.
type WebhookReconciler struct {
	logger   *slog.Logger
	verifier EventVerifier
	store    EventApplier
	cache    EntitlementExpirer
}

func NewWebhookReconciler(logger *slog.Logger, verifier EventVerifier, store EventApplier, cache EntitlementExpirer) *WebhookReconciler {
	return &WebhookReconciler{
		logger:   logger,
		verifier: verifier,
		store:    store,
		cache:    cache,
	}
}

func (r *WebhookReconciler) Reconcile(ctx context.Context, payload []byte, signature string) utils.Result[*Ack] {
	span := tracer.GetTracerSpan(ctx, "reconciler", "Webhook.Reconcile")
	defer span.End()

	eventResult := r.verifier.VerifyAndParse(payload, signature)
	if eventResult.Failure() {
		r.logger.Warn("webhook rejected",
			slog.String("error_code", eventResult.ErrorCode()),
			slog.String("error", eventResult.ErrorMsg()),
		)
		if eventResult.IsCapturable() {
			utils.CaptureErrorResult(eventResult)
		}
		return failedAckResult(eventResult)
	}

	event := eventResult.Value()
	if event == nil {
		// Recognized sender, kind the engine does not act on. Not an error.
		r.logger.Info("ignoring unhandled event kind")
		return utils.SuccessResult(&Ack{Reason: AckIgnored})
	}

	span.SetAttributes(
		attribute.String("event.id", event.ID),
		attribute.String("event.kind", string(event.Kind)),
	)

	applyResult := r.store.ApplyEvent(ctx, event)
	if applyResult.Failure() {
		if applyResult.ErrorCode() == AckNotFound {
			// Unrecoverable locally: report it, then acknowledge so the
			// sender stops redelivering something we can never place.
			r.logger.Warn("event references unknown subscription",
				slog.String("event_id", event.ID),
				slog.String("subscription_external_id", event.SubscriptionExternalID),
			)
			utils.CaptureErrorResultWithExtra(applyResult, "event_id", event.ID)
			return utils.SuccessResult(&Ack{EventID: event.ID, Reason: AckNotFound})
		}

		r.logger.Error("failed to apply event",
			slog.String("event_id", event.ID),
			slog.String("error_code", applyResult.ErrorCode()),
			slog.String("error", applyResult.ErrorMsg()),
		)
		if applyResult.IsCapturable() {
			utils.CaptureErrorResultWithExtra(applyResult, "event_id", event.ID)
		}
		return failedAckResult(applyResult)
	}

	outcome := applyResult.Value()
	if outcome.AlreadyApplied {
		r.logger.Info("event already applied",
			slog.String("event_id", event.ID),
		)
		return utils.SuccessResult(&Ack{EventID: event.ID, Reason: AckAlreadyApplied})
	}

	expireResult := r.cache.Expire(outcome.Subscription.CustomerID)
	if expireResult.Failure() {
		// The cache self-expires at period end; a failed eviction is not
		// worth failing the delivery over.
		utils.CaptureError(expireResult.Error())
	}

	r.logger.Info("event applied",
		slog.String("event_id", event.ID),
		slog.String("event_kind", string(event.Kind)),
		slog.String("subscription_id", outcome.Subscription.ID),
		slog.String("status", string(outcome.Subscription.Status)),
	)

	return utils.SuccessResult(&Ack{EventID: event.ID, Reason: AckApplied})
}

func failedAckResult(r utils.AnyResult) utils.Result[*Ack] {
	result := utils.FailedResult[*Ack](r.Error()).AddErrorDetails(r.ErrorCode(), r.ErrorMessage())
	result.Retryable = r.IsRetryable()
	result.Capture = r.IsCapturable()
	return result
}
