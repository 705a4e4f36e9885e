package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/canvas-market/api/internal/domain"
	pfirestore "github.com/canvas-market/api/internal/platform/firestore"
	"github.com/canvas-market/api/internal/repositories"
)

const (
	productCollection     = "products"
	artworkCollection     = "artworks"
	artistCollection      = "artists"
	productTypeCollection = "productTypes"
)

// CatalogRepository reads products, artworks, artists, and product types.
type CatalogRepository struct {
	products     *pfirestore.Collection[productDocument]
	artworks     *pfirestore.Collection[artworkDocument]
	artists      *pfirestore.Collection[artistDocument]
	productTypes *pfirestore.Collection[productTypeDocument]
}

// NewCatalogRepository constructs a Firestore-backed catalog reader.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{
		products:     pfirestore.NewCollection[productDocument](provider, productCollection),
		artworks:     pfirestore.NewCollection[artworkDocument](provider, artworkCollection),
		artists:      pfirestore.NewCollection[artistDocument](provider, artistCollection),
		productTypes: pfirestore.NewCollection[productTypeDocument](provider, productTypeCollection),
	}, nil
}

// GetProduct fetches a single product by ID.
func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, errors.New("catalog repository: product id is required")
	}

	doc, err := r.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	price, err := decodeMoney(doc.Data.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("decode product %s: %w", id, err)
	}
	return domain.Product{
		ID:            doc.ID,
		ArtworkID:     doc.Data.ArtworkID,
		ProductTypeID: doc.Data.ProductTypeID,
		Name:          doc.Data.Name,
		Price:         price,
		CreatedAt:     doc.Data.CreatedAt,
		UpdatedAt:     doc.Data.UpdatedAt,
	}, nil
}

// GetArtwork fetches a single artwork by ID.
func (r *CatalogRepository) GetArtwork(ctx context.Context, artworkID string) (domain.Artwork, error) {
	id := strings.TrimSpace(artworkID)
	if id == "" {
		return domain.Artwork{}, errors.New("catalog repository: artwork id is required")
	}

	doc, err := r.artworks.Get(ctx, id)
	if err != nil {
		return domain.Artwork{}, err
	}
	return domain.Artwork{
		ID:       doc.ID,
		ArtistID: doc.Data.ArtistID,
		Title:    doc.Data.Title,
	}, nil
}

// GetArtist fetches a single artist by ID.
func (r *CatalogRepository) GetArtist(ctx context.Context, artistID string) (domain.Artist, error) {
	id := strings.TrimSpace(artistID)
	if id == "" {
		return domain.Artist{}, errors.New("catalog repository: artist id is required")
	}

	doc, err := r.artists.Get(ctx, id)
	if err != nil {
		return domain.Artist{}, err
	}
	sales, err := decodeMoney(doc.Data.TotalSales)
	if err != nil {
		return domain.Artist{}, fmt.Errorf("decode artist %s: %w", id, err)
	}
	return domain.Artist{
		ID:         doc.ID,
		Name:       doc.Data.Name,
		TotalSales: sales,
	}, nil
}

// ListProductTypes returns all product types ordered by name.
func (r *CatalogRepository) ListProductTypes(ctx context.Context) ([]domain.ProductType, error) {
	docs, err := r.productTypes.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	types := make([]domain.ProductType, 0, len(docs))
	for _, doc := range docs {
		types = append(types, domain.ProductType{ID: doc.ID, Name: doc.Data.Name})
	}
	return types, nil
}

// Ensure interface compliance.
var _ repositories.CatalogRepository = (*CatalogRepository)(nil)
