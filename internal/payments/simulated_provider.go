package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	simulatedIntentPrefix = "pi_sim_"
	simulatedRefundPrefix = "re_sim_"
	simulatedIDBytes      = 12
)

// SimulatedProviderConfig configures the SimulatedProvider.
type SimulatedProviderConfig struct {
	Logger Logger
}

// SimulatedProvider is the development seam used when no Stripe credentials
// are configured. Intent ids are derived deterministically from the order id
// and every operation reports success, so local checkouts run end to end
// without touching a processor.
type SimulatedProvider struct {
	logger Logger
}

// NewSimulatedProvider constructs the simulation.
func NewSimulatedProvider(cfg SimulatedProviderConfig) *SimulatedProvider {
	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &SimulatedProvider{logger: logger}
}

// CreatePaymentIntent synthesizes a succeeded intent for the request.
func (p *SimulatedProvider) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (PaymentIntent, error) {
	intent := PaymentIntent{
		ID:         deriveSimulatedID(simulatedIntentPrefix, req.OrderID, fmt.Sprintf("%d|%s", req.Amount, req.Currency)),
		Status:     StatusSucceeded,
		Amount:     req.Amount,
		Currency:   strings.ToUpper(strings.TrimSpace(req.Currency)),
		OrderID:    req.OrderID,
		CustomerID: req.CustomerID,
	}
	p.logger(ctx, "payments.simulated.intent.created", map[string]any{
		"paymentIntent": intent.ID,
		"amount":        intent.Amount,
		"order":         intent.OrderID,
	})
	return intent, nil
}

// ConfirmPaymentIntent reports the intent as succeeded.
func (p *SimulatedProvider) ConfirmPaymentIntent(ctx context.Context, intentID string) (PaymentIntent, error) {
	return p.lookup(ctx, intentID), nil
}

// CapturePaymentIntent reports the intent as succeeded.
func (p *SimulatedProvider) CapturePaymentIntent(ctx context.Context, intentID string) (PaymentIntent, error) {
	return p.lookup(ctx, intentID), nil
}

// RefundPayment synthesizes a succeeded refund for the intent.
func (p *SimulatedProvider) RefundPayment(ctx context.Context, req RefundRequest) (Refund, error) {
	refund := Refund{
		ID:       deriveSimulatedID(simulatedRefundPrefix, req.IntentID, req.Reason),
		IntentID: req.IntentID,
		Status:   StatusRefunded,
	}
	if req.Amount != nil {
		refund.Amount = *req.Amount
	}
	p.logger(ctx, "payments.simulated.intent.refunded", map[string]any{
		"paymentIntent": req.IntentID,
		"refund":        refund.ID,
	})
	return refund, nil
}

// GetPaymentIntent reports the intent as succeeded.
func (p *SimulatedProvider) GetPaymentIntent(ctx context.Context, intentID string) (PaymentIntent, error) {
	return p.lookup(ctx, intentID), nil
}

// AttachPaymentMethod acknowledges the attachment.
func (p *SimulatedProvider) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (PaymentMethod, error) {
	p.logger(ctx, "payments.simulated.method.attached", map[string]any{
		"paymentMethod": paymentMethodID,
		"customer":      customerID,
	})
	return PaymentMethod{ID: paymentMethodID, CustomerID: customerID}, nil
}

func (p *SimulatedProvider) lookup(ctx context.Context, intentID string) PaymentIntent {
	p.logger(ctx, "payments.simulated.intent.lookup", map[string]any{
		"paymentIntent": intentID,
	})
	return PaymentIntent{
		ID:     intentID,
		Status: StatusSucceeded,
	}
}

func deriveSimulatedID(prefix, primary, fallback string) string {
	seed := strings.TrimSpace(primary)
	if seed == "" {
		seed = fallback
	}
	sum := sha256.Sum256([]byte(seed))
	return prefix + hex.EncodeToString(sum[:simulatedIDBytes])
}
