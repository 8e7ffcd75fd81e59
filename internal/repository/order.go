package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rabbitstore/checkout/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (
			id, user_id, cart_id, items, total_amount, address_info,
			payment_method, order_status, payment_status, intent_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	getOrderSQL = `SELECT id, user_id, cart_id, items, total_amount, address_info,
			payment_method, order_status, payment_status, intent_id,
			payment_id, payer_id, created_at, updated_at
		FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT id, user_id, cart_id, items, total_amount, address_info,
			payment_method, order_status, payment_status, intent_id,
			payment_id, payer_id, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	// The affected-row count of this statement is the per-order mutex: only
	// the caller that flips pending->confirmed performs side effects.
	confirmOrderSQL = `UPDATE orders
		SET order_status = 'confirmed', payment_status = 'paid',
			payment_id = $2, payer_id = $3, updated_at = now()
		WHERE id = $1 AND order_status = 'pending'`

	// Idempotency marker: one row per (order, product) decrement ever applied.
	markStockAppliedSQL = `INSERT INTO stock_applications (order_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, product_id) DO NOTHING`

	recordOversellSQL = `UPDATE stock_applications SET oversold = $3
		WHERE order_id = $1 AND product_id = $2`

	listOversellsSQL = `SELECT order_id, product_id, oversold, applied_at
		FROM stock_applications WHERE oversold > 0
		ORDER BY applied_at LIMIT $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new pending order. The item snapshot is serialized to
// JSON for storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	addressInfo := o.AddressInfo
	if len(addressInfo) == 0 {
		addressInfo = json.RawMessage(`{}`)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, o.CartID, itemsJSON, o.TotalAmount, addressInfo,
		o.PaymentMethod, o.OrderStatus, o.PaymentStatus, o.IntentID,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return getOrder(ctx, r.pool, id)
}

// ListByUser returns all orders belonging to a user, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		o, err := scanOrder(row)
		if err != nil {
			return order.Order{}, err
		}
		return *o, nil
	})
}

// Capture finalizes an order as one transaction: the conditional status flip,
// per-item stock decrements with applied markers, and the cart deletion
// commit together or not at all.
//
// When the conditional flip affects no row the order is either unknown or
// already final; the current state is returned unchanged with Applied=false.
func (r *OrderRepository) Capture(ctx context.Context, orderID, paymentID, payerID string) (*order.CaptureResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning capture tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tag, err := tx.Exec(ctx, confirmOrderSQL, orderID, paymentID, payerID)
	if err != nil {
		return nil, fmt.Errorf("confirming order %q: %w", orderID, err)
	}

	if tag.RowsAffected() == 0 {
		// Duplicate or unknown. A concurrent capture holds the row lock
		// until it commits, so the read below observes the final state.
		o, err := getOrder(ctx, tx, orderID)
		if err != nil {
			return nil, err
		}
		return &order.CaptureResult{Order: o, Applied: false}, nil
	}

	o, err := getOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	var oversold []order.Oversell
	for _, item := range o.Items {
		marked, err := tx.Exec(ctx, markStockAppliedSQL, orderID, item.ProductID, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("marking stock applied for %q: %w", item.ProductID, err)
		}
		if marked.RowsAffected() == 0 {
			// Already applied for this (order, product) by an earlier
			// partially-committed run.
			continue
		}

		var prev, curr int
		err = tx.QueryRow(ctx, decrementStockSQL, item.ProductID, item.Quantity).Scan(&prev, &curr)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Product vanished from the catalog; nothing to decrement.
				continue
			}
			return nil, fmt.Errorf("decrementing stock for %q: %w", item.ProductID, err)
		}

		if applied := prev - curr; applied < item.Quantity {
			shortfall := item.Quantity - applied
			if _, err := tx.Exec(ctx, recordOversellSQL, orderID, item.ProductID, shortfall); err != nil {
				return nil, fmt.Errorf("recording oversell for %q: %w", item.ProductID, err)
			}
			oversold = append(oversold, order.Oversell{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Applied:   applied,
			})
		}
	}

	if _, err := tx.Exec(ctx, deleteCartSQL, o.CartID); err != nil {
		return nil, fmt.Errorf("deleting cart %q: %w", o.CartID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing capture of %q: %w", orderID, err)
	}

	return &order.CaptureResult{Order: o, Applied: true, Oversold: oversold}, nil
}

// ListOversells returns oversold stock applications awaiting manual
// reconciliation, oldest first. Operators zero the oversold column once the
// compensating flow (refund or restock) has run.
func (r *OrderRepository) ListOversells(ctx context.Context, limit int) ([]order.OversellRecord, error) {
	rows, err := r.pool.Query(ctx, listOversellsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing oversells: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.OversellRecord, error) {
		var rec order.OversellRecord
		err := row.Scan(&rec.OrderID, &rec.ProductID, &rec.Shortfall, &rec.AppliedAt)
		return rec, err
	})
}

// querier is the subset of pgx shared by pools and transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getOrder(ctx context.Context, q querier, id string) (*order.Order, error) {
	rows, err := q.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return o, nil
}

func scanOrder(row pgx.CollectableRow) (*order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.CartID, &itemsJSON, &o.TotalAmount, &o.AddressInfo,
		&o.PaymentMethod, &o.OrderStatus, &o.PaymentStatus, &o.IntentID,
		&o.PaymentID, &o.PayerID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling order items: %w", err)
	}
	return &o, nil
}
