package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// ParseOrderStatus maps a persisted status string onto the enum. Values
// outside the enum are treated as pending rather than rejected, so legacy
// rows keep loading.
func ParseOrderStatus(raw string) OrderStatus {
	switch status := OrderStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return status
	default:
		return OrderStatusPending
	}
}

var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusRefunded},
}

// Order domain event types drained by the command layer and delivered by an
// external dispatcher after the triggering write commits.
const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status.changed"
	OrderEventShipped       = "order.shipped"
)

// OrderEvent records a state change on the aggregate.
type OrderEvent struct {
	Type           string
	OrderID        string
	UserID         string
	PreviousStatus OrderStatus
	CurrentStatus  OrderStatus
	TrackingNumber string
	OccurredAt     time.Time
}

// OrderItem is a priced order line. The unit price and the denormalised
// catalog names are captured at order creation and never re-read, so the
// receipt stays stable even when the catalog entry changes or disappears.
type OrderItem struct {
	ProductID    string
	ProductName  string
	ArtworkTitle string
	ArtistName   string
	Quantity     int
	UnitPrice    Money
}

// NewOrderItem validates the line and snapshots the given unit price.
func NewOrderItem(productID string, quantity int, unitPrice Money, productName, artworkTitle, artistName string) (OrderItem, error) {
	if strings.TrimSpace(productID) == "" {
		return OrderItem{}, fmt.Errorf("%w: order item product id is required", ErrValidation)
	}
	if quantity <= 0 {
		return OrderItem{}, fmt.Errorf("%w: order item quantity must be positive, got %d", ErrValidation, quantity)
	}
	if unitPrice.Currency() == "" {
		return OrderItem{}, fmt.Errorf("%w: order item unit price is required", ErrValidation)
	}
	return OrderItem{
		ProductID:    strings.TrimSpace(productID),
		ProductName:  strings.TrimSpace(productName),
		ArtworkTitle: strings.TrimSpace(artworkTitle),
		ArtistName:   strings.TrimSpace(artistName),
		Quantity:     quantity,
		UnitPrice:    unitPrice,
	}, nil
}

// TotalPrice is the unit price scaled by the quantity. It is derived, never
// stored.
func (i OrderItem) TotalPrice() Money {
	total, err := i.UnitPrice.Multiply(float64(i.Quantity))
	if err != nil {
		// Quantity is validated positive at construction.
		return i.UnitPrice
	}
	return total
}

// Order is the purchase aggregate. Items are fixed at creation; only status,
// tracking number, payment reference, and (while pending) the shipping
// address may change, and only through the transition methods. Orders are
// never deleted, only terminalised into cancelled or refunded.
type Order struct {
	id              string
	userID          string
	items           []OrderItem
	status          OrderStatus
	shippingAddress ShippingAddress
	trackingNumber  string
	paymentIntentID string
	totalAmount     Money
	createdAt       time.Time
	updatedAt       time.Time

	events []OrderEvent
}

// NewOrder is the validating factory: it requires at least one item and a
// shipping address, derives the total, starts the order at pending, and
// records an OrderCreated event.
func NewOrder(id, userID string, items []OrderItem, address ShippingAddress, now time.Time) (*Order, error) {
	id = strings.TrimSpace(id)
	userID = strings.TrimSpace(userID)
	if id == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrValidation)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: order user id is required", ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	if address.IsZero() {
		return nil, fmt.Errorf("%w: order shipping address is required", ErrValidation)
	}

	total := items[0].TotalPrice()
	for _, item := range items[1:] {
		sum, err := total.Add(item.TotalPrice())
		if err != nil {
			return nil, err
		}
		total = sum
	}

	now = now.UTC()
	order := &Order{
		id:              id,
		userID:          userID,
		items:           append([]OrderItem(nil), items...),
		status:          OrderStatusPending,
		shippingAddress: address,
		totalAmount:     total,
		createdAt:       now,
		updatedAt:       now,
	}
	order.record(OrderEvent{
		Type:          OrderEventCreated,
		OrderID:       id,
		UserID:        userID,
		CurrentStatus: OrderStatusPending,
		OccurredAt:    now,
	})
	return order, nil
}

// OrderSnapshot is the persisted shape of an order.
type OrderSnapshot struct {
	ID              string
	UserID          string
	Items           []OrderItem
	Status          string
	ShippingAddress ShippingAddress
	TrackingNumber  string
	PaymentIntentID string
	TotalAmount     Money
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderFromSnapshot rehydrates an order from storage. It trusts the
// persisted state and does not re-run creation invariants; creation and
// rehydration stay distinct so legacy rows load and new rows still validate.
func OrderFromSnapshot(snap OrderSnapshot) *Order {
	return &Order{
		id:              snap.ID,
		userID:          snap.UserID,
		items:           append([]OrderItem(nil), snap.Items...),
		status:          ParseOrderStatus(snap.Status),
		shippingAddress: snap.ShippingAddress,
		trackingNumber:  snap.TrackingNumber,
		paymentIntentID: snap.PaymentIntentID,
		totalAmount:     snap.TotalAmount,
		createdAt:       snap.CreatedAt.UTC(),
		updatedAt:       snap.UpdatedAt.UTC(),
	}
}

// Snapshot exports the persisted shape of the aggregate.
func (o *Order) Snapshot() OrderSnapshot {
	return OrderSnapshot{
		ID:              o.id,
		UserID:          o.userID,
		Items:           o.Items(),
		Status:          string(o.status),
		ShippingAddress: o.shippingAddress,
		TrackingNumber:  o.trackingNumber,
		PaymentIntentID: o.paymentIntentID,
		TotalAmount:     o.totalAmount,
		CreatedAt:       o.createdAt,
		UpdatedAt:       o.updatedAt,
	}
}

func (o *Order) ID() string                       { return o.id }
func (o *Order) UserID() string                   { return o.userID }
func (o *Order) Status() OrderStatus              { return o.status }
func (o *Order) ShippingAddress() ShippingAddress { return o.shippingAddress }
func (o *Order) TrackingNumber() string           { return o.trackingNumber }
func (o *Order) PaymentIntentID() string          { return o.paymentIntentID }
func (o *Order) TotalAmount() Money               { return o.totalAmount }
func (o *Order) CreatedAt() time.Time             { return o.createdAt }
func (o *Order) UpdatedAt() time.Time             { return o.updatedAt }

// Items returns a copy of the order lines.
func (o *Order) Items() []OrderItem {
	return append([]OrderItem(nil), o.items...)
}

// Confirm moves a pending order to confirmed and stores the payment
// reference.
func (o *Order) Confirm(paymentIntentID string, now time.Time) error {
	if strings.TrimSpace(paymentIntentID) == "" {
		return fmt.Errorf("%w: payment intent id is required", ErrValidation)
	}
	if err := o.transition(OrderStatusPending, OrderStatusConfirmed, "confirm", now); err != nil {
		return err
	}
	o.paymentIntentID = strings.TrimSpace(paymentIntentID)
	return nil
}

// StartProcessing moves a confirmed order into fulfilment.
func (o *Order) StartProcessing(now time.Time) error {
	return o.transition(OrderStatusConfirmed, OrderStatusProcessing, "start processing", now)
}

// Ship marks a processing order shipped and records the tracking number.
func (o *Order) Ship(trackingNumber string, now time.Time) error {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return fmt.Errorf("%w: tracking number is required", ErrValidation)
	}
	if err := o.transition(OrderStatusProcessing, OrderStatusShipped, "ship", now); err != nil {
		return err
	}
	o.trackingNumber = trackingNumber
	o.record(OrderEvent{
		Type:           OrderEventShipped,
		OrderID:        o.id,
		UserID:         o.userID,
		PreviousStatus: OrderStatusProcessing,
		CurrentStatus:  OrderStatusShipped,
		TrackingNumber: trackingNumber,
		OccurredAt:     now.UTC(),
	})
	return nil
}

// Deliver marks a shipped order delivered.
func (o *Order) Deliver(now time.Time) error {
	return o.transition(OrderStatusShipped, OrderStatusDelivered, "deliver", now)
}

// Cancel terminalises an order that has not shipped yet.
func (o *Order) Cancel(now time.Time) error {
	switch o.status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing:
	default:
		return fmt.Errorf("%w: order must be pending, confirmed, or processing to cancel, currently %s", ErrInvalidTransition, o.status)
	}
	o.applyStatus(OrderStatusCancelled, now)
	return nil
}

// Refund terminalises a delivered order.
func (o *Order) Refund(now time.Time) error {
	return o.transition(OrderStatusDelivered, OrderStatusRefunded, "refund", now)
}

// UpdateShippingAddress replaces the destination while the order is still
// pending.
func (o *Order) UpdateShippingAddress(address ShippingAddress, now time.Time) error {
	if o.status != OrderStatusPending {
		return fmt.Errorf("%w: order must be pending to change the shipping address, currently %s", ErrInvalidTransition, o.status)
	}
	if address.IsZero() {
		return fmt.Errorf("%w: shipping address is required", ErrValidation)
	}
	o.shippingAddress = address
	o.updatedAt = now.UTC()
	return nil
}

// DrainEvents returns the collected domain events and clears the internal
// list. The aggregate never dispatches events itself.
func (o *Order) DrainEvents() []OrderEvent {
	events := o.events
	o.events = nil
	return events
}

func (o *Order) transition(required, target OrderStatus, action string, now time.Time) error {
	if o.status != required {
		return fmt.Errorf("%w: order must be %s to %s, currently %s", ErrInvalidTransition, required, action, o.status)
	}
	if !canTransition(o.status, target) {
		return fmt.Errorf("%w: %s cannot move to %s", ErrInvalidTransition, o.status, target)
	}
	o.applyStatus(target, now)
	return nil
}

func (o *Order) applyStatus(target OrderStatus, now time.Time) {
	previous := o.status
	o.status = target
	o.updatedAt = now.UTC()
	o.record(OrderEvent{
		Type:           OrderEventStatusChanged,
		OrderID:        o.id,
		UserID:         o.userID,
		PreviousStatus: previous,
		CurrentStatus:  target,
		OccurredAt:     now.UTC(),
	})
}

func (o *Order) record(event OrderEvent) {
	o.events = append(o.events, event)
}

func canTransition(current, target OrderStatus) bool {
	for _, next := range orderStatusTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}
