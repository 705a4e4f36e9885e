package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stripe/stripe-go/v78/webhook"
)

const webhookTestSecret = "whsec_test_secret"

func newWebhookRouter(events *[]string) chi.Router {
	h := NewWebhookHandlers(webhookTestSecret, func(_ context.Context, event string, _ map[string]any) {
		*events = append(*events, event)
	})
	r := chi.NewRouter()
	r.Route("/payments", h.Routes)
	return r
}

func signedWebhookRequest(t *testing.T, payload string) *http.Request {
	t.Helper()
	at := time.Now()
	sig := webhook.ComputeSignature(at, []byte(payload), webhookTestSecret)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewBufferString(payload))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig)))
	return req
}

func TestStripeWebhookAcceptsSignedIntentEvent(t *testing.T) {
	var events []string
	router := newWebhookRouter(&events)

	payload := `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","status":"succeeded","metadata":{"orderId":"order-1"}}}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedWebhookRequest(t, payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(events) != 1 || events[0] != "payments.webhook.intent" {
		t.Fatalf("expected intent event to be logged, got %v", events)
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	var events []string
	router := newWebhookRouter(&events)

	payload := `{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewBufferString(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %v", events)
	}
}

func TestStripeWebhookIgnoresUnknownEventType(t *testing.T) {
	var events []string
	router := newWebhookRouter(&events)

	payload := `{"id":"evt_2","type":"customer.created","data":{"object":{"id":"cus_1"}}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, signedWebhookRequest(t, payload))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(events) != 1 || events[0] != "payments.webhook.ignored" {
		t.Fatalf("expected ignored event to be logged, got %v", events)
	}
}
