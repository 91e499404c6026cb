package processors

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/utils"
)

// BillingGateway is the outbound face of the payment processor: creation
// only. Inbound notifications go through EventVerifier instead.
type BillingGateway interface {
	CreateCustomer(ctx context.Context, email string, paymentMethodID string) utils.Result[string]
	CreateSubscription(ctx context.Context, customerRef string, priceID string) utils.Result[*models.CheckoutSession]
	CreatePaymentIntent(ctx context.Context, amountCents int64) utils.Result[string]
}

type AccountStore interface {
	FetchCustomer(ctx context.Context, id string) utils.Result[*models.Customer]
	FetchCustomerByEmail(ctx context.Context, email string) utils.Result[*models.Customer]
	CreateCustomer(ctx context.Context, customer *models.Customer) utils.Result[*models.Customer]
	CreateSubscription(ctx context.Context, sub *models.Subscription) utils.Result[*models.Subscription]
}

// Checkout is handed to the frontend to confirm the first payment.
type Checkout struct {
	SubscriptionID string `json:"subscription_id"`
	ClientSecret   string `json:"client_secret"`
}

// SignupService covers the user-initiated half of the lifecycle: customers
// and subscriptions created locally, racing against webhook deliveries for
// the same entities.
type SignupService struct {
	logger  *slog.Logger
	store   AccountStore
	gateway BillingGateway
}

func NewSignupService(logger *slog.Logger, store AccountStore, gateway BillingGateway) *SignupService {
	return &SignupService{
		logger:  logger,
		store:   store,
		gateway: gateway,
	}
}

// RegisterCustomer returns the existing customer for the email or creates
// one, on the processor first and locally second. The external reference is
// immutable once set.
func (s *SignupService) RegisterCustomer(ctx context.Context, email string, paymentMethodID string) utils.Result[*models.Customer] {
	existingResult := s.store.FetchCustomerByEmail(ctx, email)
	if existingResult.Success() {
		return existingResult
	}
	if existingResult.IsRetryable() {
		return existingResult
	}

	refResult := s.gateway.CreateCustomer(ctx, email, paymentMethodID)
	if refResult.Failure() {
		return utils.FailedResult[*models.Customer](refResult.Error()).
			AddErrorDetails("processor_failure", "could not create customer with the payment processor")
	}

	customer := &models.Customer{
		ID:         uuid.NewString(),
		Email:      email,
		ExternalID: refResult.Value(),
	}

	createdResult := s.store.CreateCustomer(ctx, customer)
	if createdResult.Failure() {
		return createdResult
	}

	s.logger.Info("customer registered",
		slog.String("customer_id", customer.ID),
		slog.String("external_id", customer.ExternalID),
	)

	return createdResult
}

// StartSubscription creates a processor subscription for the customer and
// persists it. The single-active invariant is enforced by the store inside
// the insert transaction; violating it surfaces as a conflict to the caller,
// never to the webhook path.
func (s *SignupService) StartSubscription(ctx context.Context, customerID string, priceID string) utils.Result[*Checkout] {
	customerResult := s.store.FetchCustomer(ctx, customerID)
	if customerResult.Failure() {
		if customerResult.IsRetryable() {
			return utils.FailedResult[*Checkout](customerResult.Error()).
				AddErrorDetails("store_failure", "could not read customer record")
		}
		return utils.FailedResult[*Checkout](customerResult.Error()).
			NonCapturable().
			NonRetryable().
			AddErrorDetails("customer_not_found", "no customer with that identifier")
	}
	customer := customerResult.Value()

	sessionResult := s.gateway.CreateSubscription(ctx, customer.ExternalID, priceID)
	if sessionResult.Failure() {
		return utils.FailedResult[*Checkout](sessionResult.Error()).
			AddErrorDetails("processor_failure", "could not create subscription with the payment processor")
	}
	session := sessionResult.Value()

	status := session.Status
	if status == "" {
		status = models.SubscriptionPending
	}

	sub := &models.Subscription{
		ID:               uuid.NewString(),
		CustomerID:       customer.ID,
		ExternalID:       session.ExternalID,
		Status:           status,
		CurrentPeriodEnd: session.CurrentPeriodEnd,
	}

	createdResult := s.store.CreateSubscription(ctx, sub)
	if createdResult.Failure() {
		result := utils.FailedResult[*Checkout](createdResult.Error()).
			AddErrorDetails(createdResult.ErrorCode(), createdResult.ErrorMessage())
		result.Retryable = createdResult.IsRetryable()
		result.Capture = createdResult.IsCapturable()
		return result
	}

	s.logger.Info("subscription started",
		slog.String("subscription_id", sub.ID),
		slog.String("customer_id", customer.ID),
		slog.String("external_id", sub.ExternalID),
	)

	return utils.SuccessResult(&Checkout{
		SubscriptionID: sub.ID,
		ClientSecret:   session.ClientSecret,
	})
}

func (s *SignupService) CreatePaymentIntent(ctx context.Context, amountCents int64) utils.Result[string] {
	secretResult := s.gateway.CreatePaymentIntent(ctx, amountCents)
	if secretResult.Failure() {
		return utils.FailedResult[string](secretResult.Error()).
			AddErrorDetails("processor_failure", "could not create payment intent")
	}

	return secretResult
}
