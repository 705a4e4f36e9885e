package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/canvas-market/api/internal/domain"
	"github.com/canvas-market/api/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: cart repository is required")
	errCartCatalogRequired    = errors.New("cart service: catalog repository is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart backend cannot fulfil the request.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// CartServiceDeps wires the repositories and ambient hooks for cart operations.
type CartServiceDeps struct {
	Carts       repositories.CartRepository
	Catalog     repositories.CatalogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      Logger
}

type cartService struct {
	carts   repositories.CartRepository
	catalog repositories.CatalogRepository
	now     func() time.Time
	newID   func() string
	logger  Logger
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Catalog == nil {
		return nil, errCartCatalogRequired
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

	return &cartService{
		carts:   deps.Carts,
		catalog: deps.Catalog,
		now:     func() time.Time { return clock().UTC() },
		newID:   idGen,
		logger:  logger,
	}, nil
}

// GetCart returns the user's cart lines priced against the live catalog.
func (s *cartService) GetCart(ctx context.Context, userID string) (CartView, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return CartView{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}

	items, err := s.carts.GetItems(ctx, uid)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}

	view := CartView{UserID: uid}
	for _, item := range items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			if isRepoNotFound(err) {
				return CartView{}, fmt.Errorf("%w: product %s not found", domain.ErrNotFound, item.ProductID)
			}
			return CartView{}, s.translateRepoError(err)
		}
		lineTotal, err := product.Price.Multiply(float64(item.Quantity))
		if err != nil {
			return CartView{}, err
		}
		view.Lines = append(view.Lines, CartLine{Item: item, Product: product, LineTotal: lineTotal})

		if view.Total.Currency() == "" {
			view.Total = lineTotal
			continue
		}
		total, err := view.Total.Add(lineTotal)
		if err != nil {
			return CartView{}, err
		}
		view.Total = total
	}
	return view, nil
}

// AddToCart resolves the full catalog chain for the product and upserts a
// cart line. When the product is already in the cart the existing line's
// quantity is increased, not replaced.
func (s *cartService) AddToCart(ctx context.Context, cmd AddToCartCommand) (domain.CartItem, error) {
	uid := strings.TrimSpace(cmd.UserID)
	pid := strings.TrimSpace(cmd.ProductID)
	if uid == "" {
		return domain.CartItem{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	if pid == "" {
		return domain.CartItem{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return domain.CartItem{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrCartInvalidInput, cmd.Quantity)
	}

	if _, _, _, err := s.resolveCatalogChain(ctx, pid); err != nil {
		return domain.CartItem{}, err
	}

	items, err := s.carts.GetItems(ctx, uid)
	if err != nil {
		return domain.CartItem{}, s.translateRepoError(err)
	}
	for _, existing := range items {
		if existing.ProductID != pid {
			continue
		}
		updated, err := s.carts.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+cmd.Quantity)
		if err != nil {
			return domain.CartItem{}, s.translateRepoError(err)
		}
		s.logger(ctx, "cart.item.quantity_increased", map[string]any{
			"userId":    uid,
			"productId": pid,
			"quantity":  updated.Quantity,
		})
		return updated, nil
	}

	now := s.now()
	item := domain.CartItem{
		ID:        s.newID(),
		UserID:    uid,
		ProductID: pid,
		Quantity:  cmd.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	added, err := s.carts.AddItem(ctx, item)
	if err != nil {
		return domain.CartItem{}, s.translateRepoError(err)
	}
	s.logger(ctx, "cart.item.added", map[string]any{
		"userId":    uid,
		"productId": pid,
		"quantity":  added.Quantity,
	})
	return added, nil
}

// UpdateItemQuantity replaces the quantity on one of the user's lines.
func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (domain.CartItem, error) {
	uid := strings.TrimSpace(userID)
	id := strings.TrimSpace(itemID)
	if uid == "" || id == "" {
		return domain.CartItem{}, fmt.Errorf("%w: user id and item id are required", ErrCartInvalidInput)
	}
	if quantity <= 0 {
		return domain.CartItem{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrCartInvalidInput, quantity)
	}

	if err := s.requireOwnedItem(ctx, uid, id); err != nil {
		return domain.CartItem{}, err
	}
	updated, err := s.carts.UpdateItemQuantity(ctx, id, quantity)
	if err != nil {
		return domain.CartItem{}, s.translateRepoError(err)
	}
	return updated, nil
}

// RemoveItem deletes one of the user's lines.
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	uid := strings.TrimSpace(userID)
	id := strings.TrimSpace(itemID)
	if uid == "" || id == "" {
		return fmt.Errorf("%w: user id and item id are required", ErrCartInvalidInput)
	}

	if err := s.requireOwnedItem(ctx, uid, id); err != nil {
		return err
	}
	if err := s.carts.RemoveItem(ctx, id); err != nil {
		return s.translateRepoError(err)
	}
	return nil
}

// resolveCatalogChain walks product -> artwork -> artist -> product types and
// fails with NotFound at the first missing link.
func (s *cartService) resolveCatalogChain(ctx context.Context, productID string) (domain.Product, domain.Artwork, domain.Artist, error) {
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

	types, err := s.catalog.ListProductTypes(ctx)
	if err != nil {
		return domain.Product{}, domain.Artwork{}, domain.Artist{}, s.translateRepoError(err)
	}
	found := false
	for _, t := range types {
		if t.ID == product.ProductTypeID {
			found = true
			break
		}
	}
	if !found {
		return domain.Product{}, domain.Artwork{}, domain.Artist{}, fmt.Errorf("%w: product type %s not found", domain.ErrNotFound, product.ProductTypeID)
	}

	return product, artwork, artist, nil
}

func (s *cartService) requireOwnedItem(ctx context.Context, userID, itemID string) error {
	items, err := s.carts.GetItems(ctx, userID)
	if err != nil {
		return s.translateRepoError(err)
	}
	for _, item := range items {
		if item.ID == itemID {
			return nil
		}
	}
	return fmt.Errorf("%w: cart item %s not found", domain.ErrNotFound, itemID)
}

func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isRepoNotFound(err) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
}
