package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is the stock-relevant slice of a catalog item. Catalog management
// (descriptions, images, categories) lives outside this service.
type Product struct {
	ID         string
	Title      string
	Price      decimal.Decimal
	SalePrice  decimal.Decimal
	TotalStock int
}

// UnitPrice returns the authoritative price for a sale: the sale price when
// one is set, the list price otherwise.
func (p Product) UnitPrice() decimal.Decimal {
	if p.SalePrice.IsPositive() {
		return p.SalePrice
	}
	return p.Price
}

// Repository defines catalog reads and the inventory ledger primitive.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)

	// Decrement atomically lowers the product's stock by quantity, clamped
	// at zero, and returns the new stock level. Safe under concurrent
	// callers targeting the same product.
	Decrement(ctx context.Context, id string, quantity int) (int, error)
}
