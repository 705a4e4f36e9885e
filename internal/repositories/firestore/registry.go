package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/canvas-market/api/internal/platform/firestore"
	"github.com/canvas-market/api/internal/repositories"
)

// Registry wires the Firestore-backed repositories behind the repositories.Registry
// contract.
type Registry struct {
	provider *pfirestore.Provider

	carts   *CartRepository
	catalog *CatalogRepository
	orders  *OrderRepository
	artists *ArtistRepository
	health  *HealthRepository
}

// NewRegistry constructs every repository against the shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	carts, err := NewCartRepository(provider)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalogRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	artists, err := NewArtistRepository(provider)
	if err != nil {
		return nil, err
	}
	health, err := NewHealthRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider: provider,
		carts:    carts,
		catalog:  catalog,
		orders:   orders,
		artists:  artists,
		health:   health,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close()
}

func (r *Registry) Carts() repositories.CartRepository      { return r.carts }
func (r *Registry) Catalog() repositories.CatalogRepository { return r.catalog }
func (r *Registry) Orders() repositories.OrderRepository    { return r.orders }
func (r *Registry) Artists() repositories.ArtistLedger      { return r.artists }
func (r *Registry) Health() repositories.HealthRepository   { return r.health }

// Ensure interface compliance.
var _ repositories.Registry = (*Registry)(nil)
