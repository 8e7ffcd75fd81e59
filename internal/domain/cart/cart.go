package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested cart does not exist.
var ErrNotFound = errors.New("cart not found")

// Cart is a customer's pending cart. It is destroyed, not emptied, once the
// order created from it is captured.
type Cart struct {
	ID     string
	UserID string
	Items  []Item
}

// Item is a single cart line. Prices are never stored here; checkout
// re-reads them from the catalog.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Repository defines persistence operations for carts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Cart, error)

	// Delete removes the cart. Deleting an absent cart is not an error.
	Delete(ctx context.Context, id string) error
}
