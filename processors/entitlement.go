package processors

import (
	"context"
	"log/slog"
	"time"

	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/utils"
)

type SubscriptionReader interface {
	FetchLatestSubscription(ctx context.Context, customerID string) utils.Result[*models.Subscription]
}

// EntitlementService answers "is this customer entitled to service right
// now" from local state only. It never calls the payment processor, so the
// access-control path stays up when the processor is not.
type EntitlementService struct {
	logger *slog.Logger
	store  SubscriptionReader
	cache  *models.EntitlementCache
}

func NewEntitlementService(logger *slog.Logger, store SubscriptionReader, cache *models.EntitlementCache) *EntitlementService {
	return &EntitlementService{
		logger: logger,
		store:  store,
		cache:  cache,
	}
}

func (s *EntitlementService) IsActive(ctx context.Context, customerID string) utils.Result[bool] {
	cachedResult := s.cache.FetchPeriodEnd(customerID)
	if cachedResult.Success() {
		return utils.SuccessResult(time.Now().Before(cachedResult.Value()))
	}

	subResult := s.store.FetchLatestSubscription(ctx, customerID)
	if subResult.Failure() {
		if !subResult.IsRetryable() {
			// No subscription at all: not entitled, not an error.
			return utils.SuccessResult(false)
		}
		return utils.FailedBoolResult(subResult.Error()).
			AddErrorDetails("store_failure", "could not read subscription state")
	}

	sub := subResult.Value()
	active := sub.Status == models.SubscriptionActive && time.Now().Before(sub.CurrentPeriodEnd)

	if active {
		storeResult := s.cache.StorePeriodEnd(customerID, sub.CurrentPeriodEnd)
		if storeResult.Failure() {
			s.logger.Warn("failed to cache entitlement",
				slog.String("customer_id", customerID),
				slog.String("error", storeResult.ErrorMsg()),
			)
		}
	}

	return utils.SuccessResult(active)
}
