package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/canvas-market/api/internal/domain"
	"github.com/canvas-market/api/internal/payments"
	"github.com/canvas-market/api/internal/platform/httpx"
	"github.com/canvas-market/api/internal/platform/requestctx"
	"github.com/canvas-market/api/internal/services"
)

const maxBodySize = 16 * 1024

// UserHeader carries the authenticated user id resolved by the upstream
// gateway. The service trusts it; authentication itself happens before the
// request reaches this process.
const UserHeader = "X-User-Id"

var (
	errBodyTooLarge = errors.New("request body too large")
	errEmptyBody    = errors.New("request body is required")
)

// UserIdentity copies the gateway-resolved user id from the request header
// onto the context.
func UserIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid := strings.TrimSpace(r.Header.Get(UserHeader)); uid != "" {
			r = r.WithContext(requestctx.WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

func currentUserID(ctx context.Context, w http.ResponseWriter) (string, bool) {
	uid := requestctx.UserID(ctx)
	if uid == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return "", false
	}
	return uid, true
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, errEmptyBody
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errEmptyBody
	}
	return body, nil
}

func decodeJSONBody(r *http.Request, dst any) error {
	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("invalid JSON payload")
	}
	return nil
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

// writeServiceError maps service and domain failures onto the wire. The
// fallback classifies by message shape so partially wrapped errors still land
// on a sensible status.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, domain.ErrInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrPaymentNotSucceeded):
		httpx.WriteError(ctx, w, httpx.NewError("payment_not_succeeded", err.Error(), http.StatusPaymentRequired))
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, services.ErrCartInvalidInput),
		errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, payments.ErrProvider):
		httpx.WriteError(ctx, w, httpx.NewError("payment_provider_error", err.Error(), http.StatusBadGateway))
	case errors.Is(err, services.ErrCartUnavailable),
		errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "backend is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", err.Error(), httpx.StatusForMessage(err.Error())))
	}
}

type moneyPayload struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func buildMoneyPayload(m domain.Money) moneyPayload {
	return moneyPayload{
		Amount:   m.Amount().StringFixed(2),
		Currency: m.Currency(),
	}
}

type addressPayload struct {
	FullName     string `json:"full_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

func buildAddressPayload(addr domain.ShippingAddress) addressPayload {
	return addressPayload{
		FullName:     addr.FullName(),
		AddressLine1: addr.AddressLine1(),
		AddressLine2: addr.AddressLine2(),
		City:         addr.City(),
		State:        addr.State(),
		PostalCode:   addr.PostalCode(),
		Country:      addr.Country(),
	}
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
