package services

import (
	"context"
	"errors"

	domain "github.com/canvas-market/api/internal/domain"
	"github.com/canvas-market/api/internal/payments"
	"github.com/canvas-market/api/internal/repositories"
)

// Logger is the structured logging hook handed to services.
type Logger func(ctx context.Context, event string, fields map[string]any)

// OrderEventPublisher delivers drained aggregate events to the outbound
// dispatcher. Services call it strictly after the triggering write committed;
// publish failures are logged and never propagated.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) (string, error)
}

// AddToCartCommand adds quantity of a product to the user's cart.
type AddToCartCommand struct {
	UserID    string
	ProductID string
	Quantity  int
}

// CartLine pairs a cart item with its resolved product and derived subtotal.
type CartLine struct {
	Item      domain.CartItem
	Product   domain.Product
	LineTotal domain.Money
}

// CartView is the priced read model of a user's cart.
type CartView struct {
	UserID string
	Lines  []CartLine
	Total  domain.Money
}

// CreateOrderCommand converts the user's cart into an order shipped to the
// given address.
type CreateOrderCommand struct {
	UserID          string
	ShippingAddress domain.ShippingAddressParams
}

// ProcessPaymentCommand opens a payment intent for a pending order.
type ProcessPaymentCommand struct {
	OrderID    string
	CustomerID string
}

// ConfirmOrderCommand confirms an order against a succeeded payment intent.
type ConfirmOrderCommand struct {
	OrderID         string
	PaymentIntentID string
}

// ShipOrderCommand marks an order shipped with its tracking number.
type ShipOrderCommand struct {
	OrderID        string
	TrackingNumber string
}

// CancelOrderCommand terminalises an order that has not shipped.
type CancelOrderCommand struct {
	OrderID string
}

// RefundOrderCommand refunds a delivered order through the payment provider.
type RefundOrderCommand struct {
	OrderID string
	Reason  string
}

// CartService owns the mutable pre-order cart.
type CartService interface {
	GetCart(ctx context.Context, userID string) (CartView, error)
	AddToCart(ctx context.Context, cmd AddToCartCommand) (domain.CartItem, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID string) error
}

// OrderService sequences the order lifecycle commands. No command spans a
// transaction across its persistence calls; failures part-way leave earlier
// writes committed.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (domain.OrderSnapshot, error)
	GetOrder(ctx context.Context, orderID string) (domain.OrderSnapshot, error)
	ListOrders(ctx context.Context, userID string) ([]domain.OrderSnapshot, error)
	ProcessPayment(ctx context.Context, cmd ProcessPaymentCommand) (payments.PaymentIntent, error)
	ConfirmOrder(ctx context.Context, cmd ConfirmOrderCommand) (domain.OrderSnapshot, error)
	ShipOrder(ctx context.Context, cmd ShipOrderCommand) (domain.OrderSnapshot, error)
	CancelOrder(ctx context.Context, cmd CancelOrderCommand) (domain.OrderSnapshot, error)
	RefundOrder(ctx context.Context, cmd RefundOrderCommand) (domain.OrderSnapshot, error)
}

// ComponentHealth reports one downstream dependency probe.
type ComponentHealth struct {
	Name   string
	Status string
	Error  string
}

// HealthReport aggregates component probes.
type HealthReport struct {
	Status     string
	Components []ComponentHealth
}

// SystemService exposes process health.
type SystemService interface {
	Health(ctx context.Context) HealthReport
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}

func isRepoConflict(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsConflict()
	}
	return false
}
