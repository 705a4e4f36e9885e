package payments

import (
	"context"
	"strings"
	"testing"
)

func TestSimulatedProviderDeterministicIntentIDs(t *testing.T) {
	ctx := context.Background()
	provider := NewSimulatedProvider(SimulatedProviderConfig{})

	first, err := provider.CreatePaymentIntent(ctx, CreateIntentRequest{Amount: 4500, Currency: "usd", OrderID: "ord-1"})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	second, err := provider.CreatePaymentIntent(ctx, CreateIntentRequest{Amount: 4500, Currency: "usd", OrderID: "ord-1"})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected deterministic id, got %s vs %s", first.ID, second.ID)
	}
	if !strings.HasPrefix(first.ID, "pi_sim_") {
		t.Fatalf("expected pi_sim_ prefix got %s", first.ID)
	}
	if first.Status != StatusSucceeded {
		t.Fatalf("expected succeeded got %s", first.Status)
	}
	if first.Currency != "USD" {
		t.Fatalf("expected USD got %s", first.Currency)
	}

	other, err := provider.CreatePaymentIntent(ctx, CreateIntentRequest{Amount: 4500, Currency: "usd", OrderID: "ord-2"})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if other.ID == first.ID {
		t.Fatalf("expected distinct ids per order")
	}
}

func TestSimulatedProviderEveryOperationSucceeds(t *testing.T) {
	ctx := context.Background()
	provider := NewSimulatedProvider(SimulatedProviderConfig{})

	intent, err := provider.CreatePaymentIntent(ctx, CreateIntentRequest{Amount: 100, Currency: "USD", OrderID: "ord-9"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	confirmed, err := provider.ConfirmPaymentIntent(ctx, intent.ID)
	if err != nil || confirmed.Status != StatusSucceeded {
		t.Fatalf("confirm: status=%s err=%v", confirmed.Status, err)
	}
	captured, err := provider.CapturePaymentIntent(ctx, intent.ID)
	if err != nil || captured.Status != StatusSucceeded {
		t.Fatalf("capture: status=%s err=%v", captured.Status, err)
	}
	fetched, err := provider.GetPaymentIntent(ctx, intent.ID)
	if err != nil || fetched.Status != StatusSucceeded || fetched.ID != intent.ID {
		t.Fatalf("get: %#v err=%v", fetched, err)
	}

	amount := int64(100)
	refund, err := provider.RefundPayment(ctx, RefundRequest{IntentID: intent.ID, Amount: &amount, Reason: "requested_by_customer"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refund.Status != StatusRefunded || !strings.HasPrefix(refund.ID, "re_sim_") || refund.Amount != 100 {
		t.Fatalf("unexpected refund %#v", refund)
	}

	method, err := provider.AttachPaymentMethod(ctx, "pm_1", "cus_1")
	if err != nil || method.ID != "pm_1" || method.CustomerID != "cus_1" {
		t.Fatalf("attach: %#v err=%v", method, err)
	}
}

func TestFromConfigSelectsProviderOnce(t *testing.T) {
	provider, err := FromConfig(Config{})
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	if _, ok := provider.(*SimulatedProvider); !ok {
		t.Fatalf("expected simulated provider without credentials, got %T", provider)
	}

	provider, err = FromConfig(Config{StripeAPIKey: "sk_test_123"})
	if err != nil {
		t.Fatalf("from config with key: %v", err)
	}
	if _, ok := provider.(*StripeProvider); !ok {
		t.Fatalf("expected stripe provider with credentials, got %T", provider)
	}
}
