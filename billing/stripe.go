package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/subscription"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/utils"
)

type StripeConfig struct {
	APIKey        string
	WebhookSecret string
}

// StripeClient is the only component that talks to the payment processor:
// outbound creation calls plus inbound payload verification. Reconciliation
// itself never depends on it being reachable.
type StripeClient struct {
	config StripeConfig
	logger *slog.Logger
}

func NewStripeClient(config StripeConfig, logger *slog.Logger) *StripeClient {
	stripe.Key = config.APIKey

	return &StripeClient{
		config: config,
		logger: logger.With("component", "stripe"),
	}
}

func (c *StripeClient) CreateCustomer(ctx context.Context, email string, paymentMethodID string) utils.Result[string] {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
	}
	if paymentMethodID != "" {
		params.PaymentMethod = stripe.String(paymentMethodID)
		params.InvoiceSettings = &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		}
	}

	cust, err := customer.New(params)
	if err != nil {
		c.logger.Error("customer creation failed", slog.String("error", err.Error()))
		return utils.FailedResult[string](err)
	}

	return utils.SuccessResult(cust.ID)
}

func (c *StripeClient) CreateSubscription(ctx context.Context, customerRef string, priceID string) utils.Result[*models.CheckoutSession] {
	params := &stripe.SubscriptionParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerRef),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := subscription.New(params)
	if err != nil {
		c.logger.Error("subscription creation failed",
			slog.String("customer_ref", customerRef),
			slog.String("error", err.Error()),
		)
		return utils.FailedResult[*models.CheckoutSession](err)
	}

	session := &models.CheckoutSession{
		ExternalID:       sub.ID,
		Status:           subscriptionStatus(sub.Status),
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		session.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}

	return utils.SuccessResult(session)
}

func (c *StripeClient) CreatePaymentIntent(ctx context.Context, amountCents int64) utils.Result[string] {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		c.logger.Error("payment intent creation failed", slog.String("error", err.Error()))
		return utils.FailedResult[string](err)
	}

	return utils.SuccessResult(pi.ClientSecret)
}

// VerifyAndParse authenticates the raw payload against the webhook signing
// secret and translates it. Nothing downstream ever sees an unverified byte.
func (c *StripeClient) VerifyAndParse(payload []byte, signature string) utils.Result[*models.BillingEvent] {
	event, err := webhook.ConstructEvent(payload, signature, c.config.WebhookSecret)
	if err != nil {
		return utils.FailedResult[*models.BillingEvent](err).
			NonCapturable().
			NonRetryable().
			AddErrorDetails("unauthenticated", "webhook signature verification failed")
	}

	return TranslateEvent(&event)
}
