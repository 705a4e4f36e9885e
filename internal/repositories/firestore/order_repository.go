package firestore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/oklog/ulid/v2"
	"google.golang.org/api/iterator"

	domain "github.com/canvas-market/api/internal/domain"
	pfirestore "github.com/canvas-market/api/internal/platform/firestore"
	"github.com/canvas-market/api/internal/repositories"
)

const (
	orderCollection     = "orders"
	orderItemCollection = "items"
)

// OrderRepository persists order headers and their lines. Headers and items
// are written in separate calls; callers sequence them.
type OrderRepository struct {
	orders *pfirestore.Collection[orderDocument]
	now    func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		orders:  pfirestore.NewCollection[orderDocument](provider, orderCollection),
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Create inserts the order header. Lines are added separately via AddItem.
func (r *OrderRepository) Create(ctx context.Context, order domain.OrderSnapshot) error {
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.orders.Create(ctx, id, encodeOrder(order))
	return err
}

// FindByID loads the header and its lines.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.OrderSnapshot, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.OrderSnapshot{}, errors.New("order repository: order id is required")
	}

	doc, err := r.orders.Get(ctx, id)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}
	items, err := r.ListItems(ctx, id)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}
	return decodeOrder(doc.ID, doc.Data, items)
}

// UpdateStatus persists the new status together with any optional fields the
// transition carries.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, update repositories.OrderStatusUpdate) error {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}

	updates := []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: r.now().UTC()},
	}
	if update.PaymentIntentID != nil {
		updates = append(updates, firestore.Update{Path: "paymentIntentId", Value: *update.PaymentIntentID})
	}
	if update.TrackingNumber != nil {
		updates = append(updates, firestore.Update{Path: "trackingNumber", Value: *update.TrackingNumber})
	}
	if update.ShippingAddress != nil {
		updates = append(updates, firestore.Update{Path: "shippingAddress", Value: encodeAddress(*update.ShippingAddress)})
	}

	_, err := r.orders.Update(ctx, id, updates, firestore.Exists)
	return err
}

// AddItem appends a line to the order. Lines are keyed by monotonic ULIDs so
// document-id ordering matches insertion order regardless of count.
func (r *OrderRepository) AddItem(ctx context.Context, orderID string, item domain.OrderItem) error {
	coll, err := r.itemsRef(orderID)
	if err != nil {
		return err
	}

	if _, err := coll.Doc(r.newItemID()).Create(ctx, encodeOrderItem(item)); err != nil {
		return pfirestore.WrapError("orders.items.add", err)
	}
	return nil
}

func (r *OrderRepository) newItemID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(r.now().UTC()), r.entropy).String()
}

// ListItems returns the order lines in insertion order.
func (r *OrderRepository) ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	coll, err := r.itemsRef(orderID)
	if err != nil {
		return nil, err
	}

	iter := coll.OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var items []domain.OrderItem
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("orders.items.list", err)
		}
		var doc orderItemDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode order item %s: %w", snap.Ref.ID, err)
		}
		item, err := decodeOrderItem(doc)
		if err != nil {
			return nil, fmt.Errorf("decode order item %s: %w", snap.Ref.ID, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.OrderSnapshot, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("order repository: user id is required")
	}

	docs, err := r.orders.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("userId", "==", uid).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.OrderSnapshot, 0, len(docs))
	for _, doc := range docs {
		items, err := r.ListItems(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		snap, err := decodeOrder(doc.ID, doc.Data, items)
		if err != nil {
			return nil, err
		}
		orders = append(orders, snap)
	}
	return orders, nil
}

func (r *OrderRepository) itemsRef(orderID string) (*firestore.CollectionRef, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, errors.New("order repository: order id is required")
	}
	ref, err := r.orders.Doc(id)
	if err != nil {
		return nil, err
	}
	return ref.Collection(orderItemCollection), nil
}

// Ensure interface compliance.
var _ repositories.OrderRepository = (*OrderRepository)(nil)
