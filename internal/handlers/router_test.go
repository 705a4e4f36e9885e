package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestRouterMountsGroups(t *testing.T) {
	router := NewRouter(
		WithCartRoutes(NewCartHandlers(&stubCartService{}).Routes),
		WithOrderRoutes(NewOrderHandlers(&stubOrderService{}).Routes),
	)

	rr := doRequest(router, http.MethodGet, "/v1/cart", "user-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /v1/cart, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(router, http.MethodGet, "/v1/orders", "user-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /v1/orders, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := NewRouter()

	rr := doRequest(router, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", rr.Code)
	}

	rr = doRequest(router, http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /readyz without probes, got %d", rr.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter()

	rr := doRequest(router, http.MethodGet, "/nope", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["error"] != "route_not_found" {
		t.Errorf("unexpected error code: %v", body["error"])
	}
}

func TestRouterNotImplementedGroup(t *testing.T) {
	router := NewRouter()

	rr := doRequest(router, http.MethodGet, "/v1/cart", "user-1", "")
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 for an unwired group, got %d", rr.Code)
	}

	rr = doRequest(router, http.MethodPost, "/v1/payments/webhook", "", "{}")
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 for the unwired payments group, got %d", rr.Code)
	}
}
