package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	domain "github.com/canvas-market/api/internal/domain"
	"github.com/canvas-market/api/internal/services"
)

type stubCartService struct {
	getCartFn    func(ctx context.Context, userID string) (services.CartView, error)
	addFn        func(ctx context.Context, cmd services.AddToCartCommand) (domain.CartItem, error)
	updateQtyFn  func(ctx context.Context, userID, itemID string, quantity int) (domain.CartItem, error)
	removeItemFn func(ctx context.Context, userID, itemID string) error
}

func (s *stubCartService) GetCart(ctx context.Context, userID string) (services.CartView, error) {
	if s.getCartFn == nil {
		return services.CartView{UserID: userID}, nil
	}
	return s.getCartFn(ctx, userID)
}

func (s *stubCartService) AddToCart(ctx context.Context, cmd services.AddToCartCommand) (domain.CartItem, error) {
	if s.addFn == nil {
		return domain.CartItem{ID: "line-1", UserID: cmd.UserID, ProductID: cmd.ProductID, Quantity: cmd.Quantity}, nil
	}
	return s.addFn(ctx, cmd)
}

func (s *stubCartService) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (domain.CartItem, error) {
	if s.updateQtyFn == nil {
		return domain.CartItem{ID: itemID, UserID: userID, Quantity: quantity}, nil
	}
	return s.updateQtyFn(ctx, userID, itemID, quantity)
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	if s.removeItemFn == nil {
		return nil
	}
	return s.removeItemFn(ctx, userID, itemID)
}

func handlerMoney(t *testing.T, amount string) domain.Money {
	t.Helper()
	value, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("parse decimal: %v", err)
	}
	money, err := domain.NewMoneyFromDecimal(value, "USD")
	if err != nil {
		t.Fatalf("NewMoneyFromDecimal: %v", err)
	}
	return money
}

func newCartRouter(svc services.CartService) chi.Router {
	r := chi.NewRouter()
	r.Use(UserIdentity)
	r.Route("/cart", NewCartHandlers(svc).Routes)
	return r
}

func doRequest(router http.Handler, method, target, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if userID != "" {
		req.Header.Set(UserHeader, userID)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestGetCartReturnsPricedView(t *testing.T) {
	svc := &stubCartService{
		getCartFn: func(_ context.Context, userID string) (services.CartView, error) {
			return services.CartView{
				UserID: userID,
				Lines: []services.CartLine{{
					Item:      domain.CartItem{ID: "line-1", UserID: userID, ProductID: "prod-a", Quantity: 2, CreatedAt: time.Date(2026, time.April, 2, 12, 0, 0, 0, time.UTC)},
					Product:   domain.Product{ID: "prod-a", Name: "Dusk Print", Price: handlerMoney(t, "10.00")},
					LineTotal: handlerMoney(t, "20.00"),
				}},
				Total: handlerMoney(t, "20.00"),
			}, nil
		},
	}

	rr := doRequest(newCartRouter(svc), http.MethodGet, "/cart", "user-1", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body cartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.UserID != "user-1" || len(body.Lines) != 1 {
		t.Fatalf("unexpected payload: %+v", body)
	}
	if body.Total.Amount != "20.00" || body.Total.Currency != "USD" {
		t.Errorf("unexpected total: %+v", body.Total)
	}
	if body.Lines[0].ProductName != "Dusk Print" {
		t.Errorf("unexpected line: %+v", body.Lines[0])
	}
}

func TestGetCartRequiresUser(t *testing.T) {
	rr := doRequest(newCartRouter(&stubCartService{}), http.MethodGet, "/cart", "", "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAddCartItem(t *testing.T) {
	var captured services.AddToCartCommand
	svc := &stubCartService{
		addFn: func(_ context.Context, cmd services.AddToCartCommand) (domain.CartItem, error) {
			captured = cmd
			return domain.CartItem{ID: "line-9", UserID: cmd.UserID, ProductID: cmd.ProductID, Quantity: cmd.Quantity}, nil
		},
	}

	rr := doRequest(newCartRouter(svc), http.MethodPost, "/cart/items", "user-1", `{"product_id":"prod-a","quantity":2}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.UserID != "user-1" || captured.ProductID != "prod-a" || captured.Quantity != 2 {
		t.Errorf("unexpected command: %+v", captured)
	}
	var body cartItemResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Item.ID != "line-9" {
		t.Errorf("unexpected item: %+v", body.Item)
	}
}

func TestAddCartItemInvalidInput(t *testing.T) {
	svc := &stubCartService{
		addFn: func(_ context.Context, _ services.AddToCartCommand) (domain.CartItem, error) {
			return domain.CartItem{}, fmt.Errorf("%w: quantity must be positive", services.ErrCartInvalidInput)
		},
	}

	rr := doRequest(newCartRouter(svc), http.MethodPost, "/cart/items", "user-1", `{"product_id":"prod-a","quantity":0}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAddCartItemUnknownProduct(t *testing.T) {
	svc := &stubCartService{
		addFn: func(_ context.Context, _ services.AddToCartCommand) (domain.CartItem, error) {
			return domain.CartItem{}, fmt.Errorf("%w: product prod-x not found", domain.ErrNotFound)
		},
	}

	rr := doRequest(newCartRouter(svc), http.MethodPost, "/cart/items", "user-1", `{"product_id":"prod-x","quantity":1}`)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestUpdateCartItemQuantity(t *testing.T) {
	var gotItemID string
	var gotQty int
	svc := &stubCartService{
		updateQtyFn: func(_ context.Context, userID, itemID string, quantity int) (domain.CartItem, error) {
			gotItemID = itemID
			gotQty = quantity
			return domain.CartItem{ID: itemID, UserID: userID, Quantity: quantity}, nil
		},
	}

	rr := doRequest(newCartRouter(svc), http.MethodPut, "/cart/items/line-1", "user-1", `{"quantity":5}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotItemID != "line-1" || gotQty != 5 {
		t.Errorf("unexpected call: %s %d", gotItemID, gotQty)
	}
}

func TestRemoveCartItem(t *testing.T) {
	svc := &stubCartService{
		removeItemFn: func(_ context.Context, userID, itemID string) error {
			if userID != "user-1" || itemID != "line-1" {
				return errors.New("unexpected arguments")
			}
			return nil
		},
	}

	rr := doRequest(newCartRouter(svc), http.MethodDelete, "/cart/items/line-1", "user-1", "")

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCartUnavailableService(t *testing.T) {
	svc := &stubCartService{
		getCartFn: func(_ context.Context, _ string) (services.CartView, error) {
			return services.CartView{}, fmt.Errorf("%w: firestore down", services.ErrCartUnavailable)
		},
	}

	rr := doRequest(newCartRouter(svc), http.MethodGet, "/cart", "user-1", "")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
