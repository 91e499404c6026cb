package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/relaypay/billing-reconciler/models"
	"github.com/relaypay/billing-reconciler/processors"
	"github.com/relaypay/billing-reconciler/utils"
)

type SignupService interface {
	RegisterCustomer(ctx context.Context, email string, paymentMethodID string) utils.Result[*models.Customer]
	StartSubscription(ctx context.Context, customerID string, priceID string) utils.Result[*processors.Checkout]
	CreatePaymentIntent(ctx context.Context, amountCents int64) utils.Result[string]
}

type EntitlementChecker interface {
	IsActive(ctx context.Context, customerID string) utils.Result[bool]
}

type AccountHandler struct {
	logger       *slog.Logger
	signup       SignupService
	entitlements EntitlementChecker
	validate     *validator.Validate
}

func NewAccountHandler(logger *slog.Logger, signup SignupService, entitlements EntitlementChecker) *AccountHandler {
	return &AccountHandler{
		logger:       logger,
		signup:       signup,
		entitlements: entitlements,
		validate:     validator.New(),
	}
}

type createCustomerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	PaymentMethodID string `json:"payment_method_id"`
}

type createSubscriptionRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	PriceID    string `json:"price_id" validate:"required"`
}

type createPaymentIntentRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

func (h *AccountHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}

	result := h.signup.RegisterCustomer(r.Context(), req.Email, req.PaymentMethodID)
	if result.Failure() {
		h.writeServiceError(w, result)
		return
	}

	customer := result.Value()
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    customer.ID,
		"email": customer.Email,
	})
}

func (h *AccountHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if !h.decode(w, r, &req) {
		return
	}

	result := h.signup.StartSubscription(r.Context(), req.CustomerID, req.PriceID)
	if result.Failure() {
		h.writeServiceError(w, result)
		return
	}

	writeJSON(w, http.StatusCreated, result.Value())
}

func (h *AccountHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createPaymentIntentRequest
	if !h.decode(w, r, &req) {
		return
	}

	result := h.signup.CreatePaymentIntent(r.Context(), req.AmountCents)
	if result.Failure() {
		h.writeServiceError(w, result)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"client_secret": result.Value()})
}

func (h *AccountHandler) SubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	result := h.entitlements.IsActive(r.Context(), customerID)
	if result.Failure() {
		h.logger.Error("entitlement check failed",
			slog.String("customer_id", customerID),
			slog.String("error", result.ErrorMsg()),
		)
		writeError(w, http.StatusInternalServerError, "could not read subscription state")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"active": result.Value()})
}

func (h *AccountHandler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *AccountHandler) writeServiceError(w http.ResponseWriter, result utils.AnyResult) {
	switch result.ErrorCode() {
	case "active_subscription_exists":
		writeError(w, http.StatusConflict, result.ErrorMessage())
	case "customer_not_found":
		writeError(w, http.StatusNotFound, result.ErrorMessage())
	case "processor_failure":
		writeError(w, http.StatusBadGateway, result.ErrorMessage())
	default:
		writeError(w, http.StatusInternalServerError, "request could not be completed")
	}
}
