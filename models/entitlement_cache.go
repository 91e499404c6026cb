package models

import (
	"strings"
	"time"

	"github.com/relaypay/billing-reconciler/utils"
)

const CACHE_KEY_VERSION = "1"

// EntitlementCache keeps the answer to "is this customer entitled" hot in
// redis. Entries carry the active period end and expire with it; the
// reconciler drops a customer's entry whenever its subscription mutates.
type EntitlementCache struct {
	CacheStore Cacher
}

func NewEntitlementCache(cacheStore *Cacher) *EntitlementCache {
	return &EntitlementCache{
		CacheStore: *cacheStore,
	}
}

func entitlementKey(customerID string) string {
	return strings.Join([]string{"entitlement", CACHE_KEY_VERSION, customerID}, "/")
}

func (cache *EntitlementCache) FetchPeriodEnd(customerID string) utils.Result[time.Time] {
	valueResult := cache.CacheStore.GetKey(entitlementKey(customerID))
	if valueResult.Failure() {
		return utils.FailedResult[time.Time](valueResult.Error()).
			NonCapturable().
			NonRetryable()
	}

	periodEnd, err := time.Parse(time.RFC3339, valueResult.Value())
	if err != nil {
		// A corrupt entry must not poison the read path; drop it.
		cache.CacheStore.ExpireKey(entitlementKey(customerID))
		return utils.FailedResult[time.Time](err).NonRetryable()
	}

	return utils.SuccessResult(periodEnd)
}

func (cache *EntitlementCache) StorePeriodEnd(customerID string, periodEnd time.Time) utils.Result[bool] {
	ttl := time.Until(periodEnd)
	if ttl <= 0 {
		return utils.SuccessResult(false)
	}

	return cache.CacheStore.SetKey(
		entitlementKey(customerID),
		periodEnd.UTC().Format(time.RFC3339),
		ttl,
	)
}

func (cache *EntitlementCache) Expire(customerID string) utils.Result[bool] {
	return cache.CacheStore.ExpireKey(entitlementKey(customerID))
}
