package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/canvas-market/api/internal/domain"
	"github.com/canvas-market/api/internal/platform/httpx"
	"github.com/canvas-market/api/internal/services"
)

// CartHandlers exposes the authenticated cart endpoints for the current user.
type CartHandlers struct {
	carts services.CartService
}

// NewCartHandlers constructs handlers backed by the cart service.
func NewCartHandlers(carts services.CartService) *CartHandlers {
	return &CartHandlers{carts: carts}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Post("/items", h.addItem)
	r.Put("/items/{itemID}", h.updateItemQuantity)
	r.Delete("/items/{itemID}", h.removeItem)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	uid, ok := currentUserID(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(ctx, uid)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCartPayload(cart))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	uid, ok := currentUserID(ctx, w)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	item, err := h.carts.AddToCart(ctx, services.AddToCartCommand{
		UserID:    uid,
		ProductID: strings.TrimSpace(req.ProductID),
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, cartItemResponse{Item: buildCartItemPayload(item)})
}

func (h *CartHandlers) updateItemQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	uid, ok := currentUserID(ctx, w)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var req updateCartItemRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	item, err := h.carts.UpdateItemQuantity(ctx, uid, itemID, req.Quantity)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartItemResponse{Item: buildCartItemPayload(item)})
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireService(w, r) {
		return
	}
	uid, ok := currentUserID(ctx, w)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	if err := h.carts.RemoveItem(ctx, uid, itemID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) requireService(w http.ResponseWriter, r *http.Request) bool {
	if h.carts != nil {
		return true
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	return false
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type cartItemResponse struct {
	Item cartItemPayload `json:"item"`
}

type cartItemPayload struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func buildCartItemPayload(item domain.CartItem) cartItemPayload {
	payload := cartItemPayload{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}
	if !item.CreatedAt.IsZero() {
		payload.CreatedAt = formatTime(item.CreatedAt)
	}
	if !item.UpdatedAt.IsZero() {
		payload.UpdatedAt = formatTime(item.UpdatedAt)
	}
	return payload
}

type cartResponse struct {
	UserID string            `json:"user_id"`
	Lines  []cartLinePayload `json:"lines"`
	Total  moneyPayload      `json:"total"`
}

type cartLinePayload struct {
	Item        cartItemPayload `json:"item"`
	ProductName string          `json:"product_name"`
	UnitPrice   moneyPayload    `json:"unit_price"`
	LineTotal   moneyPayload    `json:"line_total"`
}

func buildCartPayload(cart services.CartView) cartResponse {
	lines := make([]cartLinePayload, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, cartLinePayload{
			Item:        buildCartItemPayload(line.Item),
			ProductName: line.Product.Name,
			UnitPrice:   buildMoneyPayload(line.Product.Price),
			LineTotal:   buildMoneyPayload(line.LineTotal),
		})
	}
	return cartResponse{
		UserID: cart.UserID,
		Lines:  lines,
		Total:  buildMoneyPayload(cart.Total),
	}
}
