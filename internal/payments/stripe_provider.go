package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

type stripePaymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Confirm(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
	Capture(id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeRefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripePaymentMethodAPI interface {
	Attach(id string, params *stripe.PaymentMethodAttachParams) (*stripe.PaymentMethod, error)
}

type stripeClients struct {
	intents        stripePaymentIntentAPI
	refunds        stripeRefundAPI
	paymentMethods stripePaymentMethodAPI
}

// StripeProviderConfig configures the StripeProvider.
type StripeProviderConfig struct {
	APIKey   string
	Backends *stripe.Backends
	Logger   Logger
	Clients  *stripeClients
}

// StripeProvider implements Provider against the Stripe Payment Intents API.
type StripeProvider struct {
	api    stripeClients
	logger Logger
}

// NewStripeProvider constructs a Stripe-backed Provider.
func NewStripeProvider(cfg StripeProviderConfig) (*StripeProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Clients == nil {
		return nil, errors.New("stripe: api key is required")
	}

	var clients stripeClients
	if cfg.Clients != nil {
		clients = *cfg.Clients
	} else {
		sc := client.New(apiKey, cfg.Backends)
		clients = stripeClients{
			intents:        sc.PaymentIntents,
			refunds:        sc.Refunds,
			paymentMethods: sc.PaymentMethods,
		}
	}
	if clients.intents == nil || clients.refunds == nil || clients.paymentMethods == nil {
		return nil, errors.New("stripe: incomplete client configuration")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StripeProvider{api: clients, logger: logger}, nil
}

// CreatePaymentIntent opens a payment intent for the order total.
func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (PaymentIntent, error) {
	if p == nil {
		return PaymentIntent{}, errors.New("stripe: provider is nil")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.OrderID != "" {
		params.Metadata = map[string]string{"orderId": req.OrderID}
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}

	intent, err := p.api.intents.New(params)
	if err != nil {
		return PaymentIntent{}, fmt.Errorf("%w: create payment intent: %v", ErrProvider, err)
	}
	p.logger(ctx, "payments.stripe.intent.created", map[string]any{
		"paymentIntent": intent.ID,
		"amount":        intent.Amount,
		"currency":      intent.Currency,
		"order":         req.OrderID,
	})
	return stripeIntent(intent), nil
}

// ConfirmPaymentIntent confirms the intent with the processor.
func (p *StripeProvider) ConfirmPaymentIntent(ctx context.Context, intentID string) (PaymentIntent, error) {
	if p == nil {
		return PaymentIntent{}, errors.New("stripe: provider is nil")
	}
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	intent, err := p.api.intents.Confirm(intentID, params)
	if err != nil {
		return PaymentIntent{}, fmt.Errorf("%w: confirm payment intent: %v", ErrProvider, err)
	}
	p.logger(ctx, "payments.stripe.intent.confirmed", map[string]any{
		"paymentIntent": intent.ID,
		"status":        intent.Status,
	})
	return stripeIntent(intent), nil
}

// CapturePaymentIntent captures a previously authorised intent.
func (p *StripeProvider) CapturePaymentIntent(ctx context.Context, intentID string) (PaymentIntent, error) {
	if p == nil {
		return PaymentIntent{}, errors.New("stripe: provider is nil")
	}
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	intent, err := p.api.intents.Capture(intentID, params)
	if err != nil {
		return PaymentIntent{}, fmt.Errorf("%w: capture payment intent: %v", ErrProvider, err)
	}
	p.logger(ctx, "payments.stripe.intent.captured", map[string]any{
		"paymentIntent":  intent.ID,
		"amountReceived": intent.AmountReceived,
	})
	return stripeIntent(intent), nil
}

// RefundPayment issues a refund against the intent, optionally partial.
func (p *StripeProvider) RefundPayment(ctx context.Context, req RefundRequest) (Refund, error) {
	if p == nil {
		return Refund{}, errors.New("stripe: provider is nil")
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.IntentID),
	}
	params.Context = ctx
	if req.Amount != nil {
		params.Amount = stripe.Int64(*req.Amount)
	}
	if reason := mapStripeRefundReason(req.Reason); reason != "" {
		params.Reason = stripe.String(reason)
	}

	refund, err := p.api.refunds.New(params)
	if err != nil {
		return Refund{}, fmt.Errorf("%w: refund payment: %v", ErrProvider, err)
	}
	p.logger(ctx, "payments.stripe.intent.refunded", map[string]any{
		"paymentIntent": req.IntentID,
		"refund":        refund.ID,
	})

	status := StatusPending
	switch refund.Status {
	case stripe.RefundStatusSucceeded:
		status = StatusRefunded
	case stripe.RefundStatusFailed, stripe.RefundStatusCanceled:
		status = StatusFailed
	}
	return Refund{
		ID:       refund.ID,
		IntentID: req.IntentID,
		Status:   status,
		Amount:   refund.Amount,
	}, nil
}

// GetPaymentIntent retrieves the current intent state.
func (p *StripeProvider) GetPaymentIntent(ctx context.Context, intentID string) (PaymentIntent, error) {
	if p == nil {
		return PaymentIntent{}, errors.New("stripe: provider is nil")
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := p.api.intents.Get(intentID, params)
	if err != nil {
		return PaymentIntent{}, fmt.Errorf("%w: get payment intent: %v", ErrProvider, err)
	}
	return stripeIntent(intent), nil
}

// AttachPaymentMethod attaches an instrument to a customer.
func (p *StripeProvider) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (PaymentMethod, error) {
	if p == nil {
		return PaymentMethod{}, errors.New("stripe: provider is nil")
	}
	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	method, err := p.api.paymentMethods.Attach(paymentMethodID, params)
	if err != nil {
		return PaymentMethod{}, fmt.Errorf("%w: attach payment method: %v", ErrProvider, err)
	}
	p.logger(ctx, "payments.stripe.method.attached", map[string]any{
		"paymentMethod": method.ID,
		"customer":      customerID,
	})
	return PaymentMethod{ID: method.ID, CustomerID: customerID}, nil
}

func stripeIntent(intent *stripe.PaymentIntent) PaymentIntent {
	if intent == nil {
		return PaymentIntent{}
	}

	status := StatusPending
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		status = StatusFailed
	}

	orderID := ""
	if intent.Metadata != nil {
		orderID = intent.Metadata["orderId"]
	}
	customerID := ""
	if intent.Customer != nil {
		customerID = intent.Customer.ID
	}

	return PaymentIntent{
		ID:         intent.ID,
		Status:     status,
		Amount:     intent.Amount,
		Currency:   strings.ToUpper(string(intent.Currency)),
		OrderID:    orderID,
		CustomerID: customerID,
	}
}

func mapStripeRefundReason(reason string) string {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case string(stripe.RefundReasonDuplicate):
		return string(stripe.RefundReasonDuplicate)
	case string(stripe.RefundReasonFraudulent):
		return string(stripe.RefundReasonFraudulent)
	case string(stripe.RefundReasonRequestedByCustomer):
		return string(stripe.RefundReasonRequestedByCustomer)
	default:
		return ""
	}
}
