package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rabbitstore/checkout/internal/domain/product"
)

const (
	getProductByIDSQL = `SELECT id, title, price, sale_price, total_stock
		FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, title, price, sale_price, total_stock
		FROM products WHERE id = ANY($1)`

	// Single conditional read-modify-write: the self-join locks the row and
	// exposes the pre-decrement stock, so callers can detect a clamp.
	decrementStockSQL = `UPDATE products p
		SET total_stock = GREATEST(p.total_stock - $2, 0)
		FROM (SELECT total_stock FROM products WHERE id = $1 FOR UPDATE) prev
		WHERE p.id = $1
		RETURNING prev.total_stock, p.total_stock`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs in a single query.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Decrement atomically lowers the product's stock, clamped at zero, and
// returns the new stock level.
func (r *ProductRepository) Decrement(ctx context.Context, id string, quantity int) (int, error) {
	var prev, curr int
	err := r.pool.QueryRow(ctx, decrementStockSQL, id, quantity).Scan(&prev, &curr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, product.ErrNotFound
		}
		return 0, fmt.Errorf("decrementing stock for %q: %w", id, err)
	}
	return curr, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Title, &p.Price, &p.SalePrice, &p.TotalStock)
	return p, err
}
