package tests

import (
	"context"

	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/utils"
)

type MockAccountStore struct {
	FetchCustomerResult        utils.Result[*models.Customer]
	FetchCustomerByEmailResult utils.Result[*models.Customer]
	CreateSubscriptionResult   utils.Result[*models.Subscription]
	CreateCustomerError        error

	CreatedCustomer     *models.Customer
	CreatedSubscription *models.Subscription
}

func (ms *MockAccountStore) FetchCustomer(ctx context.Context, id string) utils.Result[*models.Customer] {
	return ms.FetchCustomerResult
}

func (ms *MockAccountStore) FetchCustomerByEmail(ctx context.Context, email string) utils.Result[*models.Customer] {
	return ms.FetchCustomerByEmailResult
}

func (ms *MockAccountStore) CreateCustomer(ctx context.Context, customer *models.Customer) utils.Result[*models.Customer] {
	ms.CreatedCustomer = customer

	if ms.CreateCustomerError != nil {
		return utils.FailedResult[*models.Customer](ms.CreateCustomerError)
	}

	return utils.SuccessResult(customer)
}

func (ms *MockAccountStore) CreateSubscription(ctx context.Context, sub *models.Subscription) utils.Result[*models.Subscription] {
	ms.CreatedSubscription = sub
	return ms.CreateSubscriptionResult
}
