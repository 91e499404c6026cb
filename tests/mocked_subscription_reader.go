package tests

import (
	"context"

	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/utils"
)

type MockSubscriptionReader struct {
	ReturnedResult utils.Result[*models.Subscription]
	ExecutionCount int
	LastCustomerID string
}

func (mr *MockSubscriptionReader) FetchLatestSubscription(ctx context.Context, customerID string) utils.Result[*models.Subscription] {
	mr.ExecutionCount++
	mr.LastCustomerID = customerID
	return mr.ReturnedResult
}
