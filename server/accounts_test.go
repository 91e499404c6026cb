package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/processors"
	"github.com/relaypay/billing-reconciler/utils"
)

type fakeSignupService struct {
	customerResult      utils.Result[*models.Customer]
	checkoutResult      utils.Result[*processors.Checkout]
	paymentIntentResult utils.Result[string]
}

func (f *fakeSignupService) RegisterCustomer(ctx context.Context, email string, paymentMethodID string) utils.Result[*models.Customer] {
	return f.customerResult
}

func (f *fakeSignupService) StartSubscription(ctx context.Context, customerID string, priceID string) utils.Result[*processors.Checkout] {
	return f.checkoutResult
}

func (f *fakeSignupService) CreatePaymentIntent(ctx context.Context, amountCents int64) utils.Result[string] {
	return f.paymentIntentResult
}

type fakeEntitlementChecker struct {
	returnedResult utils.Result[bool]
	lastCustomerID string
}

func (f *fakeEntitlementChecker) IsActive(ctx context.Context, customerID string) utils.Result[bool] {
	f.lastCustomerID = customerID
	return f.returnedResult
}

func setupAccountHandler(signup *fakeSignupService, entitlements *fakeEntitlementChecker) *AccountHandler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewAccountHandler(logger, signup, entitlements)
}

func TestCreateCustomerEndpoint(t *testing.T) {
	t.Run("should answer 201 with the customer", func(t *testing.T) {
		handler := setupAccountHandler(&fakeSignupService{
			customerResult: utils.SuccessResult(&models.Customer{ID: "cus123", Email: "jo@example.com"}),
		}, &fakeEntitlementChecker{})

		req := httptest.NewRequest(http.MethodPost, "/customers",
			strings.NewReader(`{"email":"jo@example.com"}`))
		rec := httptest.NewRecorder()
		handler.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "cus123")
	})

	t.Run("should answer 400 on an invalid email", func(t *testing.T) {
		handler := setupAccountHandler(&fakeSignupService{}, &fakeEntitlementChecker{})

		req := httptest.NewRequest(http.MethodPost, "/customers",
			strings.NewReader(`{"email":"not-an-email"}`))
		rec := httptest.NewRecorder()
		handler.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should answer 502 on a processor failure", func(t *testing.T) {
		handler := setupAccountHandler(&fakeSignupService{
			customerResult: utils.FailedResult[*models.Customer](errors.New("api key expired")).
				AddErrorDetails("processor_failure", "could not create customer with the payment processor"),
		}, &fakeEntitlementChecker{})

		req := httptest.NewRequest(http.MethodPost, "/customers",
			strings.NewReader(`{"email":"jo@example.com"}`))
		rec := httptest.NewRecorder()
		handler.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestCreateSubscriptionEndpoint(t *testing.T) {
	body := `{"customer_id":"cus123","price_id":"price_1"}`

	t.Run("should answer 201 with the checkout", func(t *testing.T) {
		handler := setupAccountHandler(&fakeSignupService{
			checkoutResult: utils.SuccessResult(&processors.Checkout{
				SubscriptionID: "sub123",
				ClientSecret:   "pi_secret",
			}),
		}, &fakeEntitlementChecker{})

		req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.CreateSubscription(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "pi_secret")
	})

	t.Run("should answer 400 when the price is missing", func(t *testing.T) {
		handler := setupAccountHandler(&fakeSignupService{}, &fakeEntitlementChecker{})

		req := httptest.NewRequest(http.MethodPost, "/subscriptions",
			strings.NewReader(`{"customer_id":"cus123"}`))
		rec := httptest.NewRecorder()
		handler.CreateSubscription(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should answer 404 for an unknown customer", func(t *testing.T) {
		handler := setupAccountHandler(&fakeSignupService{
			checkoutResult: utils.FailedResult[*processors.Checkout](errors.New("record not found")).
				NonCapturable().
				NonRetryable().
				AddErrorDetails("customer_not_found", "no customer with that identifier"),
		}, &fakeEntitlementChecker{})

		req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.CreateSubscription(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("should answer 409 when an active subscription exists", func(t *testing.T) {
		handler := setupAccountHandler(&fakeSignupService{
			checkoutResult: utils.FailedResult[*processors.Checkout](models.ErrActiveSubscriptionExists).
				NonCapturable().
				NonRetryable().
				AddErrorDetails("active_subscription_exists", "customer already has an active subscription"),
		}, &fakeEntitlementChecker{})

		req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.CreateSubscription(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestCreatePaymentIntentEndpoint(t *testing.T) {
	t.Run("should answer 201 with the client secret", func(t *testing.T) {
		handler := setupAccountHandler(&fakeSignupService{
			paymentIntentResult: utils.SuccessResult("pi_secret"),
		}, &fakeEntitlementChecker{})

		req := httptest.NewRequest(http.MethodPost, "/payment-intents",
			strings.NewReader(`{"amount_cents":1999}`))
		rec := httptest.NewRecorder()
		handler.CreatePaymentIntent(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "pi_secret")
	})

	t.Run("should answer 400 on a non positive amount", func(t *testing.T) {
		handler := setupAccountHandler(&fakeSignupService{}, &fakeEntitlementChecker{})

		req := httptest.NewRequest(http.MethodPost, "/payment-intents",
			strings.NewReader(`{"amount_cents":0}`))
		rec := httptest.NewRecorder()
		handler.CreatePaymentIntent(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSubscriptionStatusEndpoint(t *testing.T) {
	statusRequest := func(customerID string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/subscriptions/status/"+customerID, nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("customerID", customerID)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	}

	t.Run("should answer with the entitlement", func(t *testing.T) {
		checker := &fakeEntitlementChecker{returnedResult: utils.SuccessResult(true)}
		handler := setupAccountHandler(&fakeSignupService{}, checker)

		rec := httptest.NewRecorder()
		handler.SubscriptionStatus(rec, statusRequest("cus123"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"active":true}`, rec.Body.String())
		assert.Equal(t, "cus123", checker.lastCustomerID)
	})

	t.Run("should answer 500 when the store cannot be read", func(t *testing.T) {
		checker := &fakeEntitlementChecker{
			returnedResult: utils.FailedBoolResult(errors.New("connection reset")).
				AddErrorDetails("store_failure", "could not read subscription state"),
		}
		handler := setupAccountHandler(&fakeSignupService{}, checker)

		rec := httptest.NewRecorder()
		handler.SubscriptionStatus(rec, statusRequest("cus123"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
