package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/relaypay/billing-reconciler/processors"
	"github.com/relaypay/billing-reconciler/utils"
)

type Reconciler interface {
	Reconcile(ctx context.Context, payload []byte, signature string) utils.Result[*processors.Ack]
}

type WebhookHandler struct {
	logger     *slog.Logger
	reconciler Reconciler
}

func NewWebhookHandler(logger *slog.Logger, reconciler Reconciler) *WebhookHandler {
	return &WebhookHandler{
		logger:     logger,
		reconciler: reconciler,
	}
}

// Handle answers 200 for every acknowledged delivery, replays and unknown
// subscriptions included, so the sender stops redelivering. Only a failed
// store transaction earns a 5xx: nothing was committed and the sender's
// at-least-once retry is the recovery path.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	signature := r.Header.Get("Stripe-Signature")

	result := h.reconciler.Reconcile(r.Context(), payload, signature)
	if result.Failure() {
		switch result.ErrorCode() {
		case "unauthenticated":
			writeError(w, http.StatusBadRequest, "invalid signature")
		case "malformed":
			writeError(w, http.StatusBadRequest, "unreadable event payload")
		default:
			writeError(w, http.StatusInternalServerError, "event not applied")
		}
		return
	}

	ack := result.Value()
	writeJSON(w, http.StatusOK, map[string]any{
		"received": true,
		"reason":   ack.Reason,
	})
}
