package firestore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/canvas-market/api/internal/domain"
)

// moneyDocument stores a monetary amount as a decimal string so no precision
// is lost in transit.
type moneyDocument struct {
	Amount   string `firestore:"amount"`
	Currency string `firestore:"currency"`
}

func encodeMoney(m domain.Money) moneyDocument {
	return moneyDocument{
		Amount:   m.Amount().StringFixed(2),
		Currency: m.Currency(),
	}
}

func decodeMoney(doc moneyDocument) (domain.Money, error) {
	// Documents written before any amount was recorded (an artist before
	// their first sale) carry neither field; that reads back as the zero
	// Money rather than a decode failure.
	if doc.Amount == "" && doc.Currency == "" {
		return domain.Money{}, nil
	}
	amount, err := decimal.NewFromString(doc.Amount)
	if err != nil {
		return domain.Money{}, fmt.Errorf("decode money amount %q: %w", doc.Amount, err)
	}
	money, err := domain.NewMoneyFromDecimal(amount, doc.Currency)
	if err != nil {
		return domain.Money{}, fmt.Errorf("decode money: %w", err)
	}
	return money, nil
}

type addressDocument struct {
	FullName     string `firestore:"fullName"`
	AddressLine1 string `firestore:"addressLine1"`
	AddressLine2 string `firestore:"addressLine2,omitempty"`
	City         string `firestore:"city"`
	State        string `firestore:"state"`
	PostalCode   string `firestore:"postalCode"`
	Country      string `firestore:"country"`
}

func encodeAddress(addr domain.ShippingAddress) addressDocument {
	return addressDocument{
		FullName:     addr.FullName(),
		AddressLine1: addr.AddressLine1(),
		AddressLine2: addr.AddressLine2(),
		City:         addr.City(),
		State:        addr.State(),
		PostalCode:   addr.PostalCode(),
		Country:      addr.Country(),
	}
}

func decodeAddress(doc addressDocument) domain.ShippingAddress {
	return domain.ShippingAddressFromStorage(domain.ShippingAddressParams{
		FullName:     doc.FullName,
		AddressLine1: doc.AddressLine1,
		AddressLine2: doc.AddressLine2,
		City:         doc.City,
		State:        doc.State,
		PostalCode:   doc.PostalCode,
		Country:      doc.Country,
	})
}

type orderItemDocument struct {
	ProductID    string        `firestore:"productId"`
	ProductName  string        `firestore:"productName"`
	ArtworkTitle string        `firestore:"artworkTitle,omitempty"`
	ArtistName   string        `firestore:"artistName,omitempty"`
	Quantity     int           `firestore:"quantity"`
	UnitPrice    moneyDocument `firestore:"unitPrice"`
}

func encodeOrderItem(item domain.OrderItem) orderItemDocument {
	return orderItemDocument{
		ProductID:    item.ProductID,
		ProductName:  item.ProductName,
		ArtworkTitle: item.ArtworkTitle,
		ArtistName:   item.ArtistName,
		Quantity:     item.Quantity,
		UnitPrice:    encodeMoney(item.UnitPrice),
	}
}

func decodeOrderItem(doc orderItemDocument) (domain.OrderItem, error) {
	price, err := decodeMoney(doc.UnitPrice)
	if err != nil {
		return domain.OrderItem{}, err
	}
	return domain.OrderItem{
		ProductID:    doc.ProductID,
		ProductName:  doc.ProductName,
		ArtworkTitle: doc.ArtworkTitle,
		ArtistName:   doc.ArtistName,
		Quantity:     doc.Quantity,
		UnitPrice:    price,
	}, nil
}

// orderDocument is the order header. Lines live in the items subcollection
// and are written in separate calls.
type orderDocument struct {
	UserID          string          `firestore:"userId"`
	Status          string          `firestore:"status"`
	ShippingAddress addressDocument `firestore:"shippingAddress"`
	TrackingNumber  string          `firestore:"trackingNumber,omitempty"`
	PaymentIntentID string          `firestore:"paymentIntentId,omitempty"`
	TotalAmount     moneyDocument   `firestore:"totalAmount"`
	CreatedAt       time.Time       `firestore:"createdAt"`
	UpdatedAt       time.Time       `firestore:"updatedAt"`
}

func encodeOrder(snap domain.OrderSnapshot) orderDocument {
	return orderDocument{
		UserID:          snap.UserID,
		Status:          snap.Status,
		ShippingAddress: encodeAddress(snap.ShippingAddress),
		TrackingNumber:  snap.TrackingNumber,
		PaymentIntentID: snap.PaymentIntentID,
		TotalAmount:     encodeMoney(snap.TotalAmount),
		CreatedAt:       snap.CreatedAt.UTC(),
		UpdatedAt:       snap.UpdatedAt.UTC(),
	}
}

func decodeOrder(id string, doc orderDocument, items []domain.OrderItem) (domain.OrderSnapshot, error) {
	total, err := decodeMoney(doc.TotalAmount)
	if err != nil {
		return domain.OrderSnapshot{}, fmt.Errorf("decode order %s: %w", id, err)
	}
	return domain.OrderSnapshot{
		ID:              id,
		UserID:          doc.UserID,
		Items:           items,
		Status:          doc.Status,
		ShippingAddress: decodeAddress(doc.ShippingAddress),
		TrackingNumber:  doc.TrackingNumber,
		PaymentIntentID: doc.PaymentIntentID,
		TotalAmount:     total,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}

type cartItemDocument struct {
	UserID    string    `firestore:"userId"`
	ProductID string    `firestore:"productId"`
	Quantity  int       `firestore:"quantity"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func encodeCartItem(item domain.CartItem) cartItemDocument {
	return cartItemDocument{
		UserID:    item.UserID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		CreatedAt: item.CreatedAt.UTC(),
		UpdatedAt: item.UpdatedAt.UTC(),
	}
}

func decodeCartItem(id string, doc cartItemDocument) domain.CartItem {
	return domain.CartItem{
		ID:        id,
		UserID:    doc.UserID,
		ProductID: doc.ProductID,
		Quantity:  doc.Quantity,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

type productDocument struct {
	ArtworkID     string        `firestore:"artworkId"`
	ProductTypeID string        `firestore:"productTypeId"`
	Name          string        `firestore:"name"`
	Price         moneyDocument `firestore:"price"`
	CreatedAt     time.Time     `firestore:"createdAt"`
	UpdatedAt     time.Time     `firestore:"updatedAt"`
}

type artworkDocument struct {
	ArtistID string `firestore:"artistId"`
	Title    string `firestore:"title"`
}

type artistDocument struct {
	Name       string        `firestore:"name"`
	TotalSales moneyDocument `firestore:"totalSales"`
}

type productTypeDocument struct {
	Name string `firestore:"name"`
}
