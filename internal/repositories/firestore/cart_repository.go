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

const cartCollection = "cartItems"

// CartRepository persists per-user cart lines.
type CartRepository struct {
	provider *pfirestore.Provider
	items    *pfirestore.Collection[cartItemDocument]
	now      func() time.Time
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{
		provider: provider,
		items:    pfirestore.NewCollection[cartItemDocument](provider, cartCollection),
		now:      time.Now,
	}, nil
}

// GetItems returns the user's cart lines ordered by creation time.
func (r *CartRepository) GetItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("cart repository: user id is required")
	}

	docs, err := r.items.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("userId", "==", uid).OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, decodeCartItem(doc.ID, doc.Data))
	}
	return items, nil
}

// AddItem inserts a new cart line. The caller assigns the line ID.
func (r *CartRepository) AddItem(ctx context.Context, item domain.CartItem) (domain.CartItem, error) {
	if strings.TrimSpace(item.ID) == "" {
		return domain.CartItem{}, errors.New("cart repository: item id is required")
	}
	if strings.TrimSpace(item.UserID) == "" {
		return domain.CartItem{}, errors.New("cart repository: user id is required")
	}

	if _, err := r.items.Create(ctx, item.ID, encodeCartItem(item)); err != nil {
		return domain.CartItem{}, err
	}
	return item, nil
}

// UpdateItemQuantity replaces the quantity on an existing line.
func (r *CartRepository) UpdateItemQuantity(ctx context.Context, itemID string, quantity int) (domain.CartItem, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.CartItem{}, errors.New("cart repository: item id is required")
	}

	updatedAt := r.now().UTC()
	var updated domain.CartItem
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.items.Doc(id)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc cartItemDocument
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		doc.Quantity = quantity
		doc.UpdatedAt = updatedAt
		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		updated = decodeCartItem(id, doc)
		return nil
	})
	if err != nil {
		return domain.CartItem{}, err
	}
	return updated, nil
}

// RemoveItem deletes a single cart line.
func (r *CartRepository) RemoveItem(ctx context.Context, itemID string) error {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return errors.New("cart repository: item id is required")
	}
	return r.items.Delete(ctx, id)
}

// Clear removes every line in the user's cart. The lines are deleted one by
// one; a failure part-way leaves the remainder in place.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	items, err := r.GetItems(ctx, userID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := r.items.Delete(ctx, item.ID); err != nil {
			var repoErr *pfirestore.Error
			if errors.As(err, &repoErr) && repoErr.IsNotFound() {
				continue
			}
			return err
		}
	}
	return nil
}

// Ensure interface compliance.
var _ repositories.CartRepository = (*CartRepository)(nil)
