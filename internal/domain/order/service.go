package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rabbitstore/checkout/internal/domain/payment"
	"github.com/rabbitstore/checkout/internal/domain/product"
)

// ErrEmptyCart is returned when a checkout is initiated with no items.
var ErrEmptyCart = errors.New("cart items required")

// ProductNotFoundError indicates a cart line references a product that does
// not exist in the catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a cart line has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// CartLine is one line of the client-submitted cart snapshot. Only the
// product id and quantity are trusted; prices are re-read from the catalog.
type CartLine struct {
	ProductID string
	Quantity  int
}

// InitiateRequest holds the input for starting a checkout.
type InitiateRequest struct {
	UserID      string
	CartID      string
	Items       []CartLine
	AddressInfo json.RawMessage
}

// InitiateResult holds the references the client needs to complete payment
// out-of-band.
type InitiateResult struct {
	OrderID     string
	ApprovalURL string
}

// Service is the checkout orchestrator: it computes authoritative totals,
// requests payment intents, and finalizes orders on capture.
type Service struct {
	products product.Repository
	orders   Repository
	gateway  payment.Gateway
	currency string

	tracer    trace.Tracer
	oversells metric.Int64Counter
}

// NewService creates a checkout Service. currency is the fixed settlement
// currency sent to the gateway, independent of the storefront's display
// currency.
func NewService(
	products product.Repository,
	orders Repository,
	gateway payment.Gateway,
	currency string,
) *Service {
	oversells, _ := otel.Meter("checkout").Int64Counter("checkout.oversold_units",
		metric.WithDescription("Units that could not be deducted from stock because it was already zero."),
	)
	return &Service{
		products:  products,
		orders:    orders,
		gateway:   gateway,
		currency:  currency,
		tracer:    otel.Tracer("checkout"),
		oversells: oversells,
	}
}

// Initiate validates the cart snapshot, computes the authoritative total from
// current catalog prices, registers a payment intent with the gateway, and
// persists a pending order. On gateway failure nothing is persisted; each
// retry of Initiate creates a fresh intent and stale intents are abandoned.
func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Initiate",
		trace.WithAttributes(attribute.Int("cart.lines", len(req.Items))))
	defer span.End()

	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Duplicate lines for the same product are merged up front. The capture
	// transaction applies stock per (order, product), so a split line would
	// otherwise decrement only its first occurrence.
	lines := make([]CartLine, 0, len(req.Items))
	lineIdx := make(map[string]int, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: line.ProductID}
		}
		if i, ok := lineIdx[line.ProductID]; ok {
			lines[i].Quantity += line.Quantity
			continue
		}
		lineIdx[line.ProductID] = len(lines)
		lines = append(lines, line)
	}

	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}

	// Batch fetch once per checkout so all lines price against the same read.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	items := make([]Item, len(lines))
	payItems := make([]payment.Item, len(lines))
	total := decimal.Zero
	for i, line := range lines {
		p, ok := productMap[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}

		unitPrice := p.UnitPrice()
		items[i] = Item{
			ProductID: p.ID,
			Title:     p.Title,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		}
		payItems[i] = payment.Item{
			SKU:       p.ID,
			Name:      p.Title,
			UnitPrice: unitPrice,
			Quantity:  line.Quantity,
		}
		total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	total = total.Round(2)

	// The gateway call happens before any order exists, so gateway latency
	// never holds shared inventory state.
	intent, err := s.gateway.CreateIntent(ctx, payItems, total, s.currency)
	if err != nil {
		return nil, errors.Wrap(err, "create payment intent")
	}

	now := time.Now().UTC()
	o := &Order{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		CartID:        req.CartID,
		Items:         items,
		TotalAmount:   total,
		AddressInfo:   req.AddressInfo,
		PaymentMethod: PaymentMethodPayPal,
		OrderStatus:   StatusPending,
		PaymentStatus: PaymentUnpaid,
		IntentID:      intent.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		// The intent already exists at the gateway but was never approved;
		// it expires on its own and no new intent is issued for this order.
		return nil, errors.Wrap(err, "create order")
	}

	return &InitiateResult{
		OrderID:     o.ID,
		ApprovalURL: intent.ApprovalURL,
	}, nil
}

// Capture finalizes the order after the customer completed payment. The call
// is idempotent: redelivered gateway callbacks and concurrent duplicates get
// the already-final order with no side effects re-applied.
func (s *Service) Capture(ctx context.Context, orderID, paymentID, payerID string) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Capture",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	res, err := s.orders.Capture(ctx, orderID, paymentID, payerID)
	if err != nil {
		return nil, err
	}

	if res.Applied {
		for _, ov := range res.Oversold {
			// Payment is already taken externally, so the clamp is accepted
			// and surfaced for manual reconciliation instead of failing.
			zctx.From(ctx).Warn("stock oversold during capture",
				zap.String("order_id", orderID),
				zap.String("product_id", ov.ProductID),
				zap.Int("requested", ov.Requested),
				zap.Int("applied", ov.Applied),
			)
			s.oversells.Add(ctx, int64(ov.Requested-ov.Applied))
		}
	}

	return res.Order, nil
}
