package payments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stripe/stripe-go/v78"
)

type stubIntentAPI struct {
	newFn     func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	confirmFn func(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
	captureFn func(id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error)
	getFn     func(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

func (s *stubIntentAPI) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return s.newFn(params)
}

func (s *stubIntentAPI) Confirm(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error) {
	return s.confirmFn(id, params)
}

func (s *stubIntentAPI) Capture(id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error) {
	return s.captureFn(id, params)
}

func (s *stubIntentAPI) Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return s.getFn(id, params)
}

type stubRefundAPI struct {
	newFn func(params *stripe.RefundParams) (*stripe.Refund, error)
}

func (s *stubRefundAPI) New(params *stripe.RefundParams) (*stripe.Refund, error) {
	return s.newFn(params)
}

type stubMethodAPI struct {
	attachFn func(id string, params *stripe.PaymentMethodAttachParams) (*stripe.PaymentMethod, error)
}

func (s *stubMethodAPI) Attach(id string, params *stripe.PaymentMethodAttachParams) (*stripe.PaymentMethod, error) {
	return s.attachFn(id, params)
}

func newStubStripeProvider(t *testing.T, clients stripeClients) *StripeProvider {
	t.Helper()
	if clients.refunds == nil {
		clients.refunds = &stubRefundAPI{newFn: func(*stripe.RefundParams) (*stripe.Refund, error) {
			return nil, errors.New("not implemented")
		}}
	}
	if clients.intents == nil {
		clients.intents = &stubIntentAPI{}
	}
	if clients.paymentMethods == nil {
		clients.paymentMethods = &stubMethodAPI{attachFn: func(string, *stripe.PaymentMethodAttachParams) (*stripe.PaymentMethod, error) {
			return nil, errors.New("not implemented")
		}}
	}
	provider, err := NewStripeProvider(StripeProviderConfig{Clients: &clients})
	if err != nil {
		t.Fatalf("new stripe provider: %v", err)
	}
	return provider
}

func TestStripeCreatePaymentIntentCarriesOrderMetadata(t *testing.T) {
	var captured *stripe.PaymentIntentParams
	intents := &stubIntentAPI{
		newFn: func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
			captured = params
			return &stripe.PaymentIntent{
				ID:       "pi_1",
				Status:   stripe.PaymentIntentStatusRequiresPaymentMethod,
				Amount:   4500,
				Currency: "usd",
				Metadata: params.Metadata,
			}, nil
		},
	}

	provider := newStubStripeProvider(t, stripeClients{intents: intents})
	intent, err := provider.CreatePaymentIntent(context.Background(), CreateIntentRequest{
		Amount:   4500,
		Currency: "USD",
		OrderID:  "ord-1",
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	if captured == nil || captured.Metadata["orderId"] != "ord-1" {
		t.Fatalf("expected order metadata on params, got %#v", captured)
	}
	if *captured.Currency != "usd" {
		t.Fatalf("expected lowercase currency got %s", *captured.Currency)
	}
	if intent.Status != StatusPending {
		t.Fatalf("expected pending got %s", intent.Status)
	}
	if intent.Currency != "USD" {
		t.Fatalf("expected USD got %s", intent.Currency)
	}
	if intent.OrderID != "ord-1" {
		t.Fatalf("expected order id carried got %q", intent.OrderID)
	}
}

func TestStripeGetPaymentIntentMapsStatuses(t *testing.T) {
	statuses := map[stripe.PaymentIntentStatus]Status{
		stripe.PaymentIntentStatusSucceeded:            StatusSucceeded,
		stripe.PaymentIntentStatusCanceled:             StatusFailed,
		stripe.PaymentIntentStatusProcessing:           StatusPending,
		stripe.PaymentIntentStatusRequiresAction:       StatusPending,
		stripe.PaymentIntentStatusRequiresConfirmation: StatusPending,
	}
	for stripeStatus, want := range statuses {
		intents := &stubIntentAPI{
			getFn: func(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
				return &stripe.PaymentIntent{ID: id, Status: stripeStatus}, nil
			},
		}
		provider := newStubStripeProvider(t, stripeClients{intents: intents})
		intent, err := provider.GetPaymentIntent(context.Background(), "pi_1")
		if err != nil {
			t.Fatalf("get intent: %v", err)
		}
		if intent.Status != want {
			t.Fatalf("status %s: expected %s got %s", stripeStatus, want, intent.Status)
		}
	}
}

func TestStripeRefundPaymentWrapsProviderError(t *testing.T) {
	refunds := &stubRefundAPI{
		newFn: func(*stripe.RefundParams) (*stripe.Refund, error) {
			return nil, errors.New("charge already refunded")
		},
	}
	provider := newStubStripeProvider(t, stripeClients{
		refunds: refunds,
		intents: &stubIntentAPI{},
	})

	_, err := provider.RefundPayment(context.Background(), RefundRequest{IntentID: "pi_1"})
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider got %v", err)
	}
	if !strings.Contains(err.Error(), "charge already refunded") {
		t.Fatalf("expected provider message preserved, got %v", err)
	}
}

func TestStripeRefundPaymentMapsResult(t *testing.T) {
	var captured *stripe.RefundParams
	refunds := &stubRefundAPI{
		newFn: func(params *stripe.RefundParams) (*stripe.Refund, error) {
			captured = params
			return &stripe.Refund{ID: "re_1", Status: stripe.RefundStatusSucceeded, Amount: 4500}, nil
		},
	}
	provider := newStubStripeProvider(t, stripeClients{
		refunds: refunds,
		intents: &stubIntentAPI{},
	})

	amount := int64(4500)
	refund, err := provider.RefundPayment(context.Background(), RefundRequest{
		IntentID: "pi_1",
		Amount:   &amount,
		Reason:   "requested_by_customer",
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refund.Status != StatusRefunded || refund.ID != "re_1" || refund.Amount != 4500 {
		t.Fatalf("unexpected refund %#v", refund)
	}
	if captured == nil || captured.Reason == nil || *captured.Reason != string(stripe.RefundReasonRequestedByCustomer) {
		t.Fatalf("expected refund reason forwarded, got %#v", captured)
	}
}

func TestStripeAttachPaymentMethod(t *testing.T) {
	methods := &stubMethodAPI{
		attachFn: func(id string, params *stripe.PaymentMethodAttachParams) (*stripe.PaymentMethod, error) {
			if *params.Customer != "cus_1" {
				t.Fatalf("expected customer cus_1 got %s", *params.Customer)
			}
			return &stripe.PaymentMethod{ID: id}, nil
		},
	}
	provider := newStubStripeProvider(t, stripeClients{
		paymentMethods: methods,
		intents:        &stubIntentAPI{},
	})

	method, err := provider.AttachPaymentMethod(context.Background(), "pm_1", "cus_1")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if method.ID != "pm_1" || method.CustomerID != "cus_1" {
		t.Fatalf("unexpected method %#v", method)
	}
}
