package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rabbitstore/checkout/internal/domain/cart"
	"github.com/rabbitstore/checkout/internal/domain/order"
	"github.com/rabbitstore/checkout/internal/domain/payment"
)

// User-facing messages. Internal detail (gateway payloads, storage errors)
// is logged server-side only.
const (
	msgPaymentFailed = "Payment could not be processed. Please try again."
	msgInternalError = "An internal error occurred."
	msgOrderNotFound = "Order not found."
	msgCartNotFound  = "Cart not found."
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type orderItemResponse struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	CartID        string              `json:"cartId"`
	Items         []orderItemResponse `json:"items"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	AddressInfo   json.RawMessage     `json:"addressInfo"`
	PaymentMethod string              `json:"paymentMethod"`
	OrderStatus   string              `json:"orderStatus"`
	PaymentStatus string              `json:"paymentStatus"`
	PaymentID     string              `json:"paymentId,omitempty"`
	PayerID       string              `json:"payerId,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Title:     it.Title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}
	addressInfo := o.AddressInfo
	if len(addressInfo) == 0 {
		addressInfo = json.RawMessage(`{}`)
	}
	return orderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		CartID:        o.CartID,
		Items:         items,
		TotalAmount:   o.TotalAmount,
		AddressInfo:   addressInfo,
		PaymentMethod: o.PaymentMethod,
		OrderStatus:   string(o.OrderStatus),
		PaymentStatus: string(o.PaymentStatus),
		PaymentID:     o.PaymentID,
		PayerID:       o.PayerID,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Success: false, Message: message})
}

// respondDomainError maps domain errors to HTTP responses, logging internal
// detail without leaking it to the client.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	lg := zctx.From(r.Context())

	var (
		pnfErr *order.ProductNotFoundError
		iqErr  *order.InvalidQuantityError
	)
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "Cart items are required.")
	case errors.As(err, &iqErr):
		respondError(w, http.StatusBadRequest, iqErr.Error())
	case errors.As(err, &pnfErr):
		respondError(w, http.StatusBadRequest, pnfErr.Error())
	case errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, msgOrderNotFound)
	case errors.Is(err, cart.ErrNotFound):
		respondError(w, http.StatusNotFound, msgCartNotFound)
	case errors.Is(err, payment.ErrRejected), errors.Is(err, payment.ErrUnavailable):
		lg.Error("payment gateway failure", zap.Error(err))
		respondError(w, http.StatusInternalServerError, msgPaymentFailed)
	default:
		lg.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, msgInternalError)
	}
}
