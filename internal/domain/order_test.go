package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testOrderItems(t *testing.T) []OrderItem {
	t.Helper()
	first, err := NewOrderItem("prod-1", 2, mustMoney(t, 10.00, "USD"), "Dawn Print", "Dawn", "R. Vega")
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	second, err := NewOrderItem("prod-2", 1, mustMoney(t, 25.00, "USD"), "Dusk Canvas", "Dusk", "M. Ito")
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	return []OrderItem{first, second}
}

func testOrder(t *testing.T) *Order {
	t.Helper()
	addr, err := NewShippingAddress(testAddressParams())
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	order, err := NewOrder("ord-1", "user-1", testOrderItems(t), addr, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	return order
}

func TestNewOrderItemRejectsNonPositiveQuantity(t *testing.T) {
	for _, quantity := range []int{0, -1} {
		if _, err := NewOrderItem("prod-1", quantity, mustMoney(t, 1, "USD"), "", "", ""); !errors.Is(err, ErrValidation) {
			t.Fatalf("quantity %d: expected validation error got %v", quantity, err)
		}
	}
}

func TestOrderItemTotalPrice(t *testing.T) {
	item, err := NewOrderItem("prod-1", 3, mustMoney(t, 9.99, "USD"), "", "", "")
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	if got := item.TotalPrice().Amount().StringFixed(2); got != "29.97" {
		t.Fatalf("expected 29.97 got %s", got)
	}
}

func TestNewOrderRequiresItemsAndAddress(t *testing.T) {
	addr, err := NewShippingAddress(testAddressParams())
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	now := time.Now()

	if _, err := NewOrder("ord-1", "user-1", nil, addr, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty items got %v", err)
	}
	if _, err := NewOrder("ord-1", "user-1", testOrderItems(t), ShippingAddress{}, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing address got %v", err)
	}
}

func TestNewOrderStartsPendingWithDerivedTotal(t *testing.T) {
	order := testOrder(t)
	if order.Status() != OrderStatusPending {
		t.Fatalf("expected pending got %s", order.Status())
	}
	if got := order.TotalAmount().Amount().StringFixed(2); got != "45.00" {
		t.Fatalf("expected total 45.00 got %s", got)
	}

	events := order.DrainEvents()
	if len(events) != 1 || events[0].Type != OrderEventCreated {
		t.Fatalf("expected one OrderCreated event got %#v", events)
	}
	if again := order.DrainEvents(); len(again) != 0 {
		t.Fatalf("expected drained list to be empty got %d", len(again))
	}
}

func TestOrderHappyPathTransitions(t *testing.T) {
	order := testOrder(t)
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	order.DrainEvents()

	if err := order.Confirm("pi_123", now); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if order.PaymentIntentID() != "pi_123" {
		t.Fatalf("expected payment intent stored got %q", order.PaymentIntentID())
	}
	if err := order.StartProcessing(now); err != nil {
		t.Fatalf("start processing: %v", err)
	}
	if err := order.Ship("1Z999", now); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if order.TrackingNumber() != "1Z999" {
		t.Fatalf("expected tracking number 1Z999 got %q", order.TrackingNumber())
	}
	if err := order.Deliver(now); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if order.Status() != OrderStatusDelivered {
		t.Fatalf("expected delivered got %s", order.Status())
	}

	events := order.DrainEvents()
	// Ship records both a status change and an OrderShipped event.
	if len(events) != 5 {
		t.Fatalf("expected 5 events got %d", len(events))
	}
	var shipped *OrderEvent
	for i := range events {
		if events[i].Type == OrderEventShipped {
			shipped = &events[i]
		}
	}
	if shipped == nil || shipped.TrackingNumber != "1Z999" {
		t.Fatalf("expected OrderShipped event carrying tracking number, got %#v", events)
	}
}

func TestOrderConfirmRequiresPending(t *testing.T) {
	order := testOrder(t)
	now := time.Now()
	if err := order.Confirm("pi_1", now); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	err := order.Confirm("pi_2", now)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}
	if want := "currently confirmed"; err == nil || !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error naming current status, got %v", err)
	}
}

func TestOrderShipRequiresTrackingNumber(t *testing.T) {
	order := testOrder(t)
	now := time.Now()
	if err := order.Confirm("pi_1", now); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := order.StartProcessing(now); err != nil {
		t.Fatalf("start processing: %v", err)
	}
	if err := order.Ship("  ", now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestOrderCancelAllowedStatuses(t *testing.T) {
	now := time.Now()

	advance := map[OrderStatus]func(o *Order){
		OrderStatusPending:   func(*Order) {},
		OrderStatusConfirmed: func(o *Order) { _ = o.Confirm("pi", now) },
		OrderStatusProcessing: func(o *Order) {
			_ = o.Confirm("pi", now)
			_ = o.StartProcessing(now)
		},
	}
	for status, setup := range advance {
		order := testOrder(t)
		setup(order)
		if err := order.Cancel(now); err != nil {
			t.Fatalf("cancel from %s: %v", status, err)
		}
		if order.Status() != OrderStatusCancelled {
			t.Fatalf("expected cancelled got %s", order.Status())
		}
	}

	blocked := map[OrderStatus]func(o *Order){
		OrderStatusShipped: func(o *Order) {
			_ = o.Confirm("pi", now)
			_ = o.StartProcessing(now)
			_ = o.Ship("1Z", now)
		},
		OrderStatusDelivered: func(o *Order) {
			_ = o.Confirm("pi", now)
			_ = o.StartProcessing(now)
			_ = o.Ship("1Z", now)
			_ = o.Deliver(now)
		},
		OrderStatusCancelled: func(o *Order) { _ = o.Cancel(now) },
	}
	for status, setup := range blocked {
		order := testOrder(t)
		setup(order)
		if err := order.Cancel(now); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("cancel from %s: expected invalid transition got %v", status, err)
		}
	}
}

func TestOrderRefundOnlyFromDelivered(t *testing.T) {
	now := time.Now()

	order := testOrder(t)
	if err := order.Refund(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("refund from pending: expected invalid transition got %v", err)
	}

	order = testOrder(t)
	_ = order.Confirm("pi", now)
	_ = order.StartProcessing(now)
	_ = order.Ship("1Z", now)
	_ = order.Deliver(now)
	if err := order.Refund(now); err != nil {
		t.Fatalf("refund from delivered: %v", err)
	}
	if order.Status() != OrderStatusRefunded {
		t.Fatalf("expected refunded got %s", order.Status())
	}
}

func TestOrderUpdateShippingAddressOnlyWhilePending(t *testing.T) {
	order := testOrder(t)
	now := time.Now()

	params := testAddressParams()
	params.City = "Boston"
	addr, err := NewShippingAddress(params)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	if err := order.UpdateShippingAddress(addr, now); err != nil {
		t.Fatalf("update address while pending: %v", err)
	}
	if order.ShippingAddress().City() != "Boston" {
		t.Fatalf("expected address replaced")
	}

	_ = order.Confirm("pi", now)
	if err := order.UpdateShippingAddress(addr, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition got %v", err)
	}
}

func TestParseOrderStatusDefaultsToPending(t *testing.T) {
	if got := ParseOrderStatus("shipped"); got != OrderStatusShipped {
		t.Fatalf("expected shipped got %s", got)
	}
	if got := ParseOrderStatus("archived"); got != OrderStatusPending {
		t.Fatalf("expected pending fallback got %s", got)
	}
	if got := ParseOrderStatus(""); got != OrderStatusPending {
		t.Fatalf("expected pending fallback got %s", got)
	}
}

func TestOrderTotalUnaffectedByLaterPriceChange(t *testing.T) {
	// The aggregate captures prices into items at creation; rebuilding the
	// snapshot with the original items must preserve the total.
	order := testOrder(t)
	snap := order.Snapshot()
	rehydrated := OrderFromSnapshot(snap)
	if !rehydrated.TotalAmount().Equal(order.TotalAmount()) {
		t.Fatalf("expected stable total, got %s vs %s", rehydrated.TotalAmount(), order.TotalAmount())
	}
}
