package domain

import "time"

// Product is a sellable rendition of an artwork (print, canvas, and so on).
// Catalog entities are owned by the catalog subsystem; the order flow only
// reads them.
type Product struct {
	ID            string
	ArtworkID     string
	ProductTypeID string
	Name          string
	Price         Money
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Artwork is the underlying piece a product reproduces.
type Artwork struct {
	ID       string
	ArtistID string
	Title    string
}

// Artist owns artworks and accumulates a sales ledger figure, credited when
// orders containing their work are confirmed.
type Artist struct {
	ID         string
	Name       string
	TotalSales Money
}

// ProductType labels the physical rendition of a product.
type ProductType struct {
	ID   string
	Name string
}

// CartItem is one mutable line of a per-user cart awaiting conversion into
// an order.
type CartItem struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
