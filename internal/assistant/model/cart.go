package model

import "context"

// GuestCartOwner scopes the cart of a conversation with no logged-in user.
const GuestCartOwner = "guest"

const (
	MinQuantity = 1
	MaxQuantity = 10
)

type CartItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Author   string  `json:"author,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image,omitempty"`
}

type CartSummary struct {
	Items     []CartItem `json:"items"`
	ItemCount int        `json:"item_count"`
	Total     float64    `json:"total"`
}

// NewCartSummary totals items in insertion order.
func NewCartSummary(items []CartItem) CartSummary {
	s := CartSummary{Items: items}
	for _, it := range items {
		s.ItemCount += it.Quantity
		s.Total += it.Price * float64(it.Quantity)
	}
	return s
}

// Find returns the item with id and its 0-based position.
func (s CartSummary) Find(id string) (CartItem, int, bool) {
	for i, it := range s.Items {
		if it.ID == id {
			return it, i, true
		}
	}
	return CartItem{}, -1, false
}

type CartStore interface {
	AddItem(ctx context.Context, owner string, book Book, quantity int) error
	RemoveItem(ctx context.Context, owner, itemID string) error
	UpdateQuantity(ctx context.Context, owner, itemID string, quantity int) error
	Clear(ctx context.Context, owner string) error
	Summary(ctx context.Context, owner string) (CartSummary, error)
}
