package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Status enumerates the normalised payment states shared across providers.
type Status string

const (
	// StatusPending indicates the payment is awaiting customer action or PSP confirmation.
	StatusPending Status = "pending"
	// StatusSucceeded indicates the PSP reports the payment as successfully captured.
	StatusSucceeded Status = "succeeded"
	// StatusFailed indicates the PSP reports a failure and no further action is possible.
	StatusFailed Status = "failed"
	// StatusRefunded indicates the payment has been refunded.
	StatusRefunded Status = "refunded"
)

// ErrProvider wraps failures reported by the underlying payment processor.
var ErrProvider = errors.New("payment provider error")

// Logger is the logging hook injected into providers.
type Logger func(ctx context.Context, event string, fields map[string]any)

// CreateIntentRequest captures the payload required to open a payment
// intent. Amounts are expressed in minor units.
type CreateIntentRequest struct {
	Amount     int64
	Currency   string
	OrderID    string
	CustomerID string
}

// RefundRequest describes a full or partial refund of a payment intent.
type RefundRequest struct {
	IntentID string
	Amount   *int64
	Reason   string
}

// PaymentIntent is the processor's handle for an attempted charge.
type PaymentIntent struct {
	ID         string
	Status     Status
	Amount     int64
	Currency   string
	OrderID    string
	CustomerID string
}

// Refund reports the outcome of a refund attempt.
type Refund struct {
	ID       string
	IntentID string
	Status   Status
	Amount   int64
}

// PaymentMethod is an attached customer payment instrument.
type PaymentMethod struct {
	ID         string
	CustomerID string
}

// Provider is the capability contract the order flow depends on. The real
// and simulated implementations are chosen once at construction; business
// logic never branches on which one is in play.
type Provider interface {
	CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (PaymentIntent, error)
	ConfirmPaymentIntent(ctx context.Context, intentID string) (PaymentIntent, error)
	CapturePaymentIntent(ctx context.Context, intentID string) (PaymentIntent, error)
	RefundPayment(ctx context.Context, req RefundRequest) (Refund, error)
	GetPaymentIntent(ctx context.Context, intentID string) (PaymentIntent, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (PaymentMethod, error)
}

// Config selects and parameterises the provider.
type Config struct {
	StripeAPIKey string
	Logger       Logger
}

// FromConfig builds the provider once at startup: Stripe when an API key is
// configured, the deterministic simulation otherwise.
func FromConfig(cfg Config) (Provider, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	if key := strings.TrimSpace(cfg.StripeAPIKey); key != "" {
		provider, err := NewStripeProvider(StripeProviderConfig{
			APIKey: key,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build stripe provider: %w", err)
		}
		return provider, nil
	}
	return NewSimulatedProvider(SimulatedProviderConfig{Logger: logger}), nil
}
