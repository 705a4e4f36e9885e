package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/canvas-market/api/internal/domain"
	pfirestore "github.com/canvas-market/api/internal/platform/firestore"
	"github.com/canvas-market/api/internal/repositories"
)

// ArtistRepository maintains the per-artist sales ledger.
type ArtistRepository struct {
	artists *pfirestore.Collection[artistDocument]
	now     func() time.Time
}

// NewArtistRepository constructs a Firestore-backed artist ledger.
func NewArtistRepository(provider *pfirestore.Provider) (*ArtistRepository, error) {
	if provider == nil {
		return nil, errors.New("artist repository requires firestore provider")
	}
	return &ArtistRepository{
		artists: pfirestore.NewCollection[artistDocument](provider, artistCollection),
		now:     time.Now,
	}, nil
}

// UpdateSales replaces the artist's cumulative total-sales figure.
func (r *ArtistRepository) UpdateSales(ctx context.Context, artistID string, totalSales domain.Money) error {
	id := strings.TrimSpace(artistID)
	if id == "" {
		return errors.New("artist repository: artist id is required")
	}

	updates := []firestore.Update{
		{Path: "totalSales", Value: encodeMoney(totalSales)},
		{Path: "updatedAt", Value: r.now().UTC()},
	}
	_, err := r.artists.Update(ctx, id, updates, firestore.Exists)
	return err
}

// Ensure interface compliance.
var _ repositories.ArtistLedger = (*ArtistRepository)(nil)
