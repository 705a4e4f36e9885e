package repositories

import (
	"context"

	domain "github.com/canvas-market/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for
// dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Carts() CartRepository
	Catalog() CatalogRepository
	Orders() OrderRepository
	Artists() ArtistLedger
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation
// used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CartRepository owns the mutable per-user cart lines. There is no
// transactional boundary spanning cart and order writes; command handlers
// sequence calls and live with the gap.
type CartRepository interface {
	GetItems(ctx context.Context, userID string) ([]domain.CartItem, error)
	AddItem(ctx context.Context, item domain.CartItem) (domain.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID string, quantity int) (domain.CartItem, error)
	RemoveItem(ctx context.Context, itemID string) error
	Clear(ctx context.Context, userID string) error
}

// CatalogRepository is the read-only view of products, artworks, artists,
// and product types the order flow resolves against.
type CatalogRepository interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	GetArtwork(ctx context.Context, artworkID string) (domain.Artwork, error)
	GetArtist(ctx context.Context, artistID string) (domain.Artist, error)
	ListProductTypes(ctx context.Context) ([]domain.ProductType, error)
}

// OrderStatusUpdate carries the optional fields a status transition may
// persist alongside the new status.
type OrderStatusUpdate struct {
	PaymentIntentID *string
	TrackingNumber  *string
	ShippingAddress *domain.ShippingAddress
}

// OrderRepository persists order headers and their immutable lines. Headers
// and items are written in separate calls; the handler sequences them.
type OrderRepository interface {
	Create(ctx context.Context, order domain.OrderSnapshot) error
	FindByID(ctx context.Context, orderID string) (domain.OrderSnapshot, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, update OrderStatusUpdate) error
	AddItem(ctx context.Context, orderID string, item domain.OrderItem) error
	ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	ListByUser(ctx context.Context, userID string) ([]domain.OrderSnapshot, error)
}

// ArtistLedger maintains the cumulative total-sales figure per artist.
type ArtistLedger interface {
	UpdateSales(ctx context.Context, artistID string, totalSales domain.Money) error
}

// HealthRepository exposes reachability of downstream dependencies.
type HealthRepository interface {
	Ping(ctx context.Context) error
}
