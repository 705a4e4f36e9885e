package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/canvas-market/api/internal/domain"
	"github.com/canvas-market/api/internal/payments"
	"github.com/canvas-market/api/internal/platform/httpx"
	"github.com/canvas-market/api/internal/services"
)

// OrderHandlers exposes the order lifecycle endpoints. Each transition is its
// own POST; there is no generic status-patch endpoint.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs handlers backed by the order service.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}/payment", h.processPayment)
	r.Post("/{orderID}/confirm", h.confirmOrder)
	r.Post("/{orderID}/ship", h.shipOrder)
	r.Post("/{orderID}/cancel", h.cancelOrder)
	r.Post("/{orderID}/refund", h.refundOrder)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	uid, ok := currentUserID(ctx, w)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.CreateOrder(ctx, services.CreateOrderCommand{
		UserID: uid,
		ShippingAddress: domain.ShippingAddressParams{
			FullName:     req.ShippingAddress.FullName,
			AddressLine1: req.ShippingAddress.AddressLine1,
			AddressLine2: req.ShippingAddress.AddressLine2,
			City:         req.ShippingAddress.City,
			State:        req.ShippingAddress.State,
			PostalCode:   req.ShippingAddress.PostalCode,
			Country:      req.ShippingAddress.Country,
		},
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	uid, ok := currentUserID(ctx, w)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(ctx, uid)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{Orders: payload})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	uid, ok := currentUserID(ctx, w)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if order.UserID != uid {
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "order not found", http.StatusNotFound))
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) processPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	if _, ok := currentUserID(ctx, w); !ok {
		return
	}

	// The customer reference is optional; an empty body opens an anonymous
	// intent.
	var req processPaymentRequest
	if err := decodeJSONBody(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(ctx, w, err)
		return
	}

	intent, err := h.orders.ProcessPayment(ctx, services.ProcessPaymentCommand{
		OrderID:    chi.URLParam(r, "orderID"),
		CustomerID: strings.TrimSpace(req.CustomerID),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, paymentIntentResponse{Intent: buildIntentPayload(intent)})
}

func (h *OrderHandlers) confirmOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	if _, ok := currentUserID(ctx, w); !ok {
		return
	}

	var req confirmOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.ConfirmOrder(ctx, services.ConfirmOrderCommand{
		OrderID:         chi.URLParam(r, "orderID"),
		PaymentIntentID: strings.TrimSpace(req.PaymentIntentID),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) shipOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	if _, ok := currentUserID(ctx, w); !ok {
		return
	}

	var req shipOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.ShipOrder(ctx, services.ShipOrderCommand{
		OrderID:        chi.URLParam(r, "orderID"),
		TrackingNumber: strings.TrimSpace(req.TrackingNumber),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	if _, ok := currentUserID(ctx, w); !ok {
		return
	}

	order, err := h.orders.CancelOrder(ctx, services.CancelOrderCommand{
		OrderID: chi.URLParam(r, "orderID"),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) refundOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	if _, ok := currentUserID(ctx, w); !ok {
		return
	}

	var req refundOrderRequest
	if err := decodeJSONBody(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.RefundOrder(ctx, services.RefundOrderCommand{
		OrderID: chi.URLParam(r, "orderID"),
		Reason:  strings.TrimSpace(req.Reason),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) requireService(w http.ResponseWriter, r *http.Request) bool {
	if h.orders != nil {
		return true
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
	return false
}

type createOrderRequest struct {
	ShippingAddress addressPayload `json:"shipping_address"`
}

type processPaymentRequest struct {
	CustomerID string `json:"customer_id"`
}

type confirmOrderRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

type shipOrderRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

type refundOrderRequest struct {
	Reason string `json:"reason"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderListResponse struct {
	Orders []orderPayload `json:"orders"`
}

type orderPayload struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	Status          string             `json:"status"`
	Items           []orderItemPayload `json:"items"`
	ShippingAddress addressPayload     `json:"shipping_address"`
	TrackingNumber  string             `json:"tracking_number,omitempty"`
	PaymentIntentID string             `json:"payment_intent_id,omitempty"`
	TotalAmount     moneyPayload       `json:"total_amount"`
	CreatedAt       string             `json:"created_at,omitempty"`
	UpdatedAt       string             `json:"updated_at,omitempty"`
}

type orderItemPayload struct {
	ProductID    string       `json:"product_id"`
	ProductName  string       `json:"product_name"`
	ArtworkTitle string       `json:"artwork_title"`
	ArtistName   string       `json:"artist_name"`
	Quantity     int          `json:"quantity"`
	UnitPrice    moneyPayload `json:"unit_price"`
	TotalPrice   moneyPayload `json:"total_price"`
}

func buildOrderPayload(order domain.OrderSnapshot) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ArtworkTitle: item.ArtworkTitle,
			ArtistName:   item.ArtistName,
			Quantity:     item.Quantity,
			UnitPrice:    buildMoneyPayload(item.UnitPrice),
			TotalPrice:   buildMoneyPayload(item.TotalPrice()),
		})
	}

	payload := orderPayload{
		ID:              order.ID,
		UserID:          order.UserID,
		Status:          order.Status,
		Items:           items,
		ShippingAddress: buildAddressPayload(order.ShippingAddress),
		TrackingNumber:  order.TrackingNumber,
		PaymentIntentID: order.PaymentIntentID,
		TotalAmount:     buildMoneyPayload(order.TotalAmount),
	}
	if !order.CreatedAt.IsZero() {
		payload.CreatedAt = formatTime(order.CreatedAt)
	}
	if !order.UpdatedAt.IsZero() {
		payload.UpdatedAt = formatTime(order.UpdatedAt)
	}
	return payload
}

type paymentIntentResponse struct {
	Intent paymentIntentPayload `json:"payment_intent"`
}

type paymentIntentPayload struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	OrderID  string `json:"order_id"`
}

func buildIntentPayload(intent payments.PaymentIntent) paymentIntentPayload {
	return paymentIntentPayload{
		ID:       intent.ID,
		Status:   string(intent.Status),
		Amount:   intent.Amount,
		Currency: intent.Currency,
		OrderID:  intent.OrderID,
	}
}
