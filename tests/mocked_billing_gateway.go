package tests

import (
	"context"

	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/utils"
)

type MockBillingGateway struct {
	CustomerResult      utils.Result[string]
	SubscriptionResult  utils.Result[*models.CheckoutSession]
	PaymentIntentResult utils.Result[string]

	LastEmail       string
	LastCustomerRef string
	LastPriceID     string
	LastAmountCents int64
}

func (mg *MockBillingGateway) CreateCustomer(ctx context.Context, email string, paymentMethodID string) utils.Result[string] {
	mg.LastEmail = email
	return mg.CustomerResult
}

func (mg *MockBillingGateway) CreateSubscription(ctx context.Context, customerRef string, priceID string) utils.Result[*models.CheckoutSession] {
	mg.LastCustomerRef = customerRef
	mg.LastPriceID = priceID
	return mg.SubscriptionResult
}

func (mg *MockBillingGateway) CreatePaymentIntent(ctx context.Context, amountCents int64) utils.Result[string] {
	mg.LastAmountCents = amountCents
	return mg.PaymentIntentResult
}
