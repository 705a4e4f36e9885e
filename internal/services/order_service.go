package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/canvas-market/api/internal/domain"
	"github.com/canvas-market/api/internal/payments"
	"github.com/canvas-market/api/internal/repositories"
)

var (
	errOrderRepositoryRequired = errors.New("order service: order repository is required")
	errOrderCartsRequired      = errors.New("order service: cart repository is required")
	errOrderCatalogRequired    = errors.New("order service: catalog repository is required")
	errOrderLedgerRequired     = errors.New("order service: artist ledger is required")
	errOrderPaymentsRequired   = errors.New("order service: payment provider is required")
)

// ErrOrderInvalidInput indicates the caller supplied invalid input.
var ErrOrderInvalidInput = errors.New("order service: invalid input")

// ErrOrderUnavailable indicates the order backend cannot fulfil the request.
var ErrOrderUnavailable = errors.New("order service: unavailable")

// ErrPaymentNotSucceeded indicates the referenced payment intent has not
// succeeded; the order stays pending.
var ErrPaymentNotSucceeded = errors.New("order service: payment intent must be succeeded before the order can be confirmed")

const defaultOrderCurrency = "USD"

// OrderServiceDeps wires the collaborators for the order lifecycle commands.
// None of them share a transaction boundary.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Carts       repositories.CartRepository
	Catalog     repositories.CatalogRepository
	Artists     repositories.ArtistLedger
	Payments    payments.Provider
	Publisher   OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      Logger

	// Currency is the settlement currency all order lines must be priced
	// in. Defaults to USD.
	Currency string
}

type orderService struct {
	orders    repositories.OrderRepository
	carts     repositories.CartRepository
	catalog   repositories.CatalogRepository
	artists   repositories.ArtistLedger
	payments  payments.Provider
	publisher OrderEventPublisher
	currency  string
	now       func() time.Time
	newID     func() string
	logger    Logger
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errOrderRepositoryRequired
	}
	if deps.Carts == nil {
		return nil, errOrderCartsRequired
	}
	if deps.Catalog == nil {
		return nil, errOrderCatalogRequired
	}
	if deps.Artists == nil {
		return nil, errOrderLedgerRequired
	}
	if deps.Payments == nil {
		return nil, errOrderPaymentsRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	currency := strings.TrimSpace(deps.Currency)
	if currency == "" {
		currency = defaultOrderCurrency
	}
	zero, err := domain.ZeroMoney(currency)
	if err != nil {
		return nil, fmt.Errorf("order service: invalid currency: %w", err)
	}

	return &orderService{
		orders:    deps.Orders,
		carts:     deps.Carts,
		catalog:   deps.Catalog,
		artists:   deps.Artists,
		payments:  deps.Payments,
		publisher: deps.Publisher,
		currency:  zero.Currency(),
		now:       func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// CreateOrder converts the user's cart into an order: header first, then each
// line, then the cart is cleared. A failure after an earlier step committed
// leaves that state in place; there is no compensation.
func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (domain.OrderSnapshot, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return domain.OrderSnapshot{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}

	address, err := domain.NewShippingAddress(cmd.ShippingAddress)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}

	cartItems, err := s.carts.GetItems(ctx, uid)
	if err != nil {
		return domain.OrderSnapshot{}, s.translateRepoError(err)
	}
	if len(cartItems) == 0 {
		return domain.OrderSnapshot{}, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}

	items := make([]domain.OrderItem, 0, len(cartItems))
	for _, line := range cartItems {
		product, artwork, artist, err := s.resolveLine(ctx, line.ProductID)
		if err != nil {
			return domain.OrderSnapshot{}, err
		}
		if product.Price.Currency() != s.currency {
			return domain.OrderSnapshot{}, fmt.Errorf("%w: product %s is priced in %s, orders settle in %s",
				domain.ErrValidation, product.ID, product.Price.Currency(), s.currency)
		}
		item, err := domain.NewOrderItem(product.ID, line.Quantity, product.Price, product.Name, artwork.Title, artist.Name)
		if err != nil {
			return domain.OrderSnapshot{}, err
		}
		items = append(items, item)
	}

	order, err := domain.NewOrder(s.newID(), uid, items, address, s.now())
	if err != nil {
		return domain.OrderSnapshot{}, err
	}

	snapshot := order.Snapshot()
	if err := s.orders.Create(ctx, snapshot); err != nil {
		return domain.OrderSnapshot{}, s.translateRepoError(err)
	}
	for _, item := range items {
		if err := s.orders.AddItem(ctx, order.ID(), item); err != nil {
			return domain.OrderSnapshot{}, s.translateRepoError(err)
		}
	}
	s.publishEvents(ctx, order.DrainEvents())

	if err := s.carts.Clear(ctx, uid); err != nil {
		return domain.OrderSnapshot{}, s.translateRepoError(err)
	}

	s.logger(ctx, "orders.created", map[string]any{
		"orderId": order.ID(),
		"userId":  uid,
		"total":   order.TotalAmount().String(),
		"items":   len(items),
	})
	return snapshot, nil
}

// GetOrder loads a single order.
func (s *orderService) GetOrder(ctx context.Context, orderID string) (domain.OrderSnapshot, error) {
	return s.loadOrder(ctx, orderID)
}

// ListOrders returns the user's orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, userID string) ([]domain.OrderSnapshot, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	orders, err := s.orders.ListByUser(ctx, uid)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return orders, nil
}

// ProcessPayment opens a payment intent for a pending order's total.
func (s *orderService) ProcessPayment(ctx context.Context, cmd ProcessPaymentCommand) (payments.PaymentIntent, error) {
	snap, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return payments.PaymentIntent{}, err
	}
	if status := domain.ParseOrderStatus(snap.Status); status != domain.OrderStatusPending {
		return payments.PaymentIntent{}, fmt.Errorf("%w: order must be pending to process payment, currently %s", domain.ErrInvalidTransition, status)
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, payments.CreateIntentRequest{
		Amount:     snap.TotalAmount.MinorUnits(),
		Currency:   snap.TotalAmount.Currency(),
		OrderID:    snap.ID,
		CustomerID: strings.TrimSpace(cmd.CustomerID),
	})
	if err != nil {
		return payments.PaymentIntent{}, err
	}

	s.logger(ctx, "orders.payment.intent_created", map[string]any{
		"orderId":  snap.ID,
		"intentId": intent.ID,
		"amount":   intent.Amount,
		"currency": intent.Currency,
	})
	return intent, nil
}

// ConfirmOrder verifies the payment intent succeeded, transitions the order,
// then credits each line's artist ledger best-effort. A missing artwork or
// artist skips only that line's credit and never blocks confirmation.
func (s *orderService) ConfirmOrder(ctx context.Context, cmd ConfirmOrderCommand) (domain.OrderSnapshot, error) {
	intentID := strings.TrimSpace(cmd.PaymentIntentID)
	if intentID == "" {
		return domain.OrderSnapshot{}, fmt.Errorf("%w: payment intent id is required", ErrOrderInvalidInput)
	}

	snap, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}

	intent, err := s.payments.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}
	if intent.Status != payments.StatusSucceeded {
		return domain.OrderSnapshot{}, fmt.Errorf("%w: intent %s is %s", ErrPaymentNotSucceeded, intentID, intent.Status)
	}

	order := domain.OrderFromSnapshot(snap)
	if err := order.Confirm(intentID, s.now()); err != nil {
		return domain.OrderSnapshot{}, err
	}

	if err := s.orders.UpdateStatus(ctx, order.ID(), order.Status(), repositories.OrderStatusUpdate{
		PaymentIntentID: &intentID,
	}); err != nil {
		return domain.OrderSnapshot{}, s.translateRepoError(err)
	}
	s.publishEvents(ctx, order.DrainEvents())

	s.creditArtistLedgers(ctx, order)

	s.logger(ctx, "orders.confirmed", map[string]any{
		"orderId":  order.ID(),
		"intentId": intentID,
	})
	return order.Snapshot(), nil
}

// ShipOrder marks a confirmed or processing order shipped with its tracking
// number, passing through processing when needed.
func (s *orderService) ShipOrder(ctx context.Context, cmd ShipOrderCommand) (domain.OrderSnapshot, error) {
	snap, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}

	order := domain.OrderFromSnapshot(snap)
	now := s.now()
	if order.Status() == domain.OrderStatusConfirmed {
		if err := order.StartProcessing(now); err != nil {
			return domain.OrderSnapshot{}, err
		}
	}
	if err := order.Ship(cmd.TrackingNumber, now); err != nil {
		return domain.OrderSnapshot{}, err
	}

	tracking := order.TrackingNumber()
	if err := s.orders.UpdateStatus(ctx, order.ID(), order.Status(), repositories.OrderStatusUpdate{
		TrackingNumber: &tracking,
	}); err != nil {
		return domain.OrderSnapshot{}, s.translateRepoError(err)
	}
	s.publishEvents(ctx, order.DrainEvents())

	s.logger(ctx, "orders.shipped", map[string]any{
		"orderId":        order.ID(),
		"trackingNumber": tracking,
	})
	return order.Snapshot(), nil
}

// CancelOrder terminalises an order that has not shipped. It never triggers a
// refund, even when a payment was already captured.
func (s *orderService) CancelOrder(ctx context.Context, cmd CancelOrderCommand) (domain.OrderSnapshot, error) {
	snap, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}

	order := domain.OrderFromSnapshot(snap)
	if err := order.Cancel(s.now()); err != nil {
		return domain.OrderSnapshot{}, err
	}

	if err := s.orders.UpdateStatus(ctx, order.ID(), order.Status(), repositories.OrderStatusUpdate{}); err != nil {
		return domain.OrderSnapshot{}, s.translateRepoError(err)
	}
	s.publishEvents(ctx, order.DrainEvents())

	s.logger(ctx, "orders.cancelled", map[string]any{"orderId": order.ID()})
	return order.Snapshot(), nil
}

// RefundOrder refunds a delivered order through the payment provider, then
// terminalises it.
func (s *orderService) RefundOrder(ctx context.Context, cmd RefundOrderCommand) (domain.OrderSnapshot, error) {
	snap, err := s.loadOrder(ctx, cmd.OrderID)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}

	order := domain.OrderFromSnapshot(snap)
	if err := order.Refund(s.now()); err != nil {
		return domain.OrderSnapshot{}, err
	}
	if order.PaymentIntentID() == "" {
		return domain.OrderSnapshot{}, fmt.Errorf("%w: order %s has no payment intent to refund", ErrOrderInvalidInput, order.ID())
	}

	refund, err := s.payments.RefundPayment(ctx, payments.RefundRequest{
		IntentID: order.PaymentIntentID(),
		Reason:   strings.TrimSpace(cmd.Reason),
	})
	if err != nil {
		return domain.OrderSnapshot{}, err
	}

	if err := s.orders.UpdateStatus(ctx, order.ID(), order.Status(), repositories.OrderStatusUpdate{}); err != nil {
		return domain.OrderSnapshot{}, s.translateRepoError(err)
	}
	s.publishEvents(ctx, order.DrainEvents())

	s.logger(ctx, "orders.refunded", map[string]any{
		"orderId":  order.ID(),
		"refundId": refund.ID,
	})
	return order.Snapshot(), nil
}

// creditArtistLedgers re-resolves each line's catalog chain and adds the line
// subtotal to the artist's cumulative sales figure. Every failure is logged
// and skipped; confirmation already committed.
func (s *orderService) creditArtistLedgers(ctx context.Context, order *domain.Order) {
	for _, item := range order.Items() {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			s.skipLedgerLine(ctx, order.ID(), item.ProductID, "product", err)
			continue
		}
		artwork, err := s.catalog.GetArtwork(ctx, product.ArtworkID)
		if err != nil {
			s.skipLedgerLine(ctx, order.ID(), item.ProductID, "artwork", err)
			continue
		}
		artist, err := s.catalog.GetArtist(ctx, artwork.ArtistID)
		if err != nil {
			s.skipLedgerLine(ctx, order.ID(), item.ProductID, "artist", err)
			continue
		}

		subtotal := item.TotalPrice()
		total := subtotal
		if artist.TotalSales.Currency() != "" {
			total, err = artist.TotalSales.Add(subtotal)
			if err != nil {
				s.skipLedgerLine(ctx, order.ID(), item.ProductID, "ledger", err)
				continue
			}
		}
		if err := s.artists.UpdateSales(ctx, artist.ID, total); err != nil {
			s.skipLedgerLine(ctx, order.ID(), item.ProductID, "ledger", err)
			continue
		}
		s.logger(ctx, "orders.ledger.credited", map[string]any{
			"orderId":  order.ID(),
			"artistId": artist.ID,
			"amount":   subtotal.String(),
		})
	}
}

func (s *orderService) skipLedgerLine(ctx context.Context, orderID, productID, step string, err error) {
	s.logger(ctx, "orders.ledger.skipped", map[string]any{
		"orderId":   orderID,
		"productId": productID,
		"step":      step,
		"error":     err.Error(),
	})
}

func (s *orderService) resolveLine(ctx context.Context, productID string) (domain.Product, domain.Artwork, domain.Artist, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Product{}, domain.Artwork{}, domain.Artist{}, fmt.Errorf("%w: product %s not found", domain.ErrNotFound, productID)
		}
		return domain.Product{}, domain.Artwork{}, domain.Artist{}, s.translateRepoError(err)
	}
	artwork, err := s.catalog.GetArtwork(ctx, product.ArtworkID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Product{}, domain.Artwork{}, domain.Artist{}, fmt.Errorf("%w: artwork %s not found", domain.ErrNotFound, product.ArtworkID)
		}
		return domain.Product{}, domain.Artwork{}, domain.Artist{}, s.translateRepoError(err)
	}
	artist, err := s.catalog.GetArtist(ctx, artwork.ArtistID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Product{}, domain.Artwork{}, domain.Artist{}, fmt.Errorf("%w: artist %s not found", domain.ErrNotFound, artwork.ArtistID)
		}
		return domain.Product{}, domain.Artwork{}, domain.Artist{}, s.translateRepoError(err)
	}
	return product, artwork, artist, nil
}

func (s *orderService) loadOrder(ctx context.Context, orderID string) (domain.OrderSnapshot, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.OrderSnapshot{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	snap, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.OrderSnapshot{}, fmt.Errorf("%w: order %s not found", domain.ErrNotFound, id)
		}
		return domain.OrderSnapshot{}, s.translateRepoError(err)
	}
	return snap, nil
}

// publishEvents hands drained events to the dispatcher. Delivery is
// best-effort; failures are logged so the command outcome stands.
func (s *orderService) publishEvents(ctx context.Context, events []domain.OrderEvent) {
	if s.publisher == nil {
		return
	}
	for _, event := range events {
		if _, err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
			s.logger(ctx, "orders.events.publish_failed", map[string]any{
				"orderId": event.OrderID,
				"type":    event.Type,
				"error":   err.Error(),
			})
		}
	}
}

func (s *orderService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isRepoNotFound(err) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	if isRepoConflict(err) {
		return fmt.Errorf("%w: conflicting write: %v", ErrOrderUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
}
