package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the order lifecycle state. An order leaves pending exactly once,
// to confirmed or failed; confirmed, failed, and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// CanTransitionTo reports whether the transition s -> to is permitted.
func (s Status) CanTransitionTo(to Status) bool {
	if s != StatusPending {
		return false
	}
	return to == StatusConfirmed || to == StatusFailed
}

// PaymentStatus tracks the external payment state of an order.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

// PaymentMethodPayPal is the only gateway the storefront currently settles
// through.
const PaymentMethodPayPal = "paypal"

// Item is a purchase-time snapshot of one catalog line: a copy, not a live
// reference, so later catalog changes cannot alter a historical order.
type Item struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order is the persistent record of a purchase attempt.
type Order struct {
	ID            string
	UserID        string
	CartID        string
	Items         []Item
	TotalAmount   decimal.Decimal
	AddressInfo   json.RawMessage
	PaymentMethod string
	OrderStatus   Status
	PaymentStatus PaymentStatus
	IntentID      string
	PaymentID     string
	PayerID       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Oversell records a stock decrement that had to be clamped at zero:
// Requested units were ordered but only Applied could be deducted.
type Oversell struct {
	ProductID string
	Requested int
	Applied   int
}

// OversellRecord is a persisted oversell awaiting manual reconciliation:
// the capture clamped this product's stock and still owes Shortfall units.
type OversellRecord struct {
	OrderID   string
	ProductID string
	Shortfall int
	AppliedAt time.Time
}

// CaptureResult is the outcome of a capture attempt. Applied is true only
// for the single call that performed the side effects; duplicate deliveries
// observe Applied=false with the already-final order.
type CaptureResult struct {
	Order    *Order
	Applied  bool
	Oversold []Oversell
}

// Repository defines persistence operations for orders.
//
// Capture must execute as one atomic unit: the conditional pending->confirmed
// status flip, the per-item stock decrements with their applied markers, and
// the cart deletion either all commit or none do. The status flip's affected
// row count decides whether the call performs side effects at all.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	Capture(ctx context.Context, orderID, paymentID, payerID string) (*CaptureResult, error)
}
