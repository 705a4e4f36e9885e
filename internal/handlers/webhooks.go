package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/canvas-market/api/internal/platform/httpx"
	"github.com/canvas-market/api/internal/services"
)

const maxWebhookBodySize = 64 * 1024

// WebhookHandlers receives signed Stripe callbacks. Signature verification is
// the only gate; order state changes stay command-driven, the events feed the
// audit log.
type WebhookHandlers struct {
	secret string
	logger services.Logger
}

// NewWebhookHandlers constructs the Stripe webhook receiver.
func NewWebhookHandlers(secret string, logger services.Logger) *WebhookHandlers {
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &WebhookHandlers{secret: secret, logger: logger}
}

// Routes registers the webhook endpoint on the supplied router.
func (h *WebhookHandlers) Routes(r chi.Router) {
	r.Post("/webhook", h.stripeEvent)
}

func (h *WebhookHandlers) stripeEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := readLimitedBody(r, maxWebhookBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_signature", "webhook signature verification failed", http.StatusBadRequest))
		return
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed event payload", http.StatusBadRequest))
			return
		}
		h.logger(ctx, "payments.webhook.intent", map[string]any{
			"event":         string(event.Type),
			"paymentIntent": intent.ID,
			"status":        string(intent.Status),
			"order":         intent.Metadata["orderId"],
		})
	default:
		h.logger(ctx, "payments.webhook.ignored", map[string]any{
			"event": string(event.Type),
		})
	}

	writeJSONResponse(w, http.StatusOK, map[string]bool{"received": true})
}
