package payment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Gateway failure taxonomy. Callers branch on these sentinels; the wrapped
// detail (provider payload, HTTP status) stays server-side and is never
// forwarded to end users.
var (
	// ErrRejected means the gateway refused the intent: invalid amount or
	// currency, account restriction.
	ErrRejected = errors.New("payment gateway rejected the request")

	// ErrUnavailable means the gateway could not be reached or timed out.
	ErrUnavailable = errors.New("payment gateway unavailable")
)

// Item is one line of the itemized list sent to the gateway.
type Item struct {
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Intent is a provisional payment registered with the gateway before the
// customer confirms it out-of-band.
type Intent struct {
	ID          string
	ApprovalURL string
}

// Gateway wraps the external payment processor. Implementations perform no
// retries: retry policy belongs to the checkout orchestrator, which only
// ever creates one intent per order.
type Gateway interface {
	CreateIntent(ctx context.Context, items []Item, total decimal.Decimal, currency string) (*Intent, error)
}
