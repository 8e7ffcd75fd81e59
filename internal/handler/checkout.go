package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rabbitstore/checkout/internal/domain/order"
)

type initiateRequest struct {
	UserID      string            `json:"userId"`
	CartID      string            `json:"cartId"`
	CartItems   []cartItemRequest `json:"cartItems"`
	AddressInfo json.RawMessage   `json:"addressInfo"`
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type initiateResponse struct {
	Success     bool   `json:"success"`
	ApprovalURL string `json:"approvalURL"`
	OrderID     string `json:"orderId"`
}

type captureRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	PayerID   string `json:"payerId"`
}

type captureResponse struct {
	Success bool          `json:"success"`
	Data    orderResponse `json:"data"`
}

func (h *Handler) initiate(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	items := make([]order.CartLine, len(req.CartItems))
	for i, it := range req.CartItems {
		items[i] = order.CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	result, err := h.checkout.Initiate(r.Context(), order.InitiateRequest{
		UserID:      req.UserID,
		CartID:      req.CartID,
		Items:       items,
		AddressInfo: req.AddressInfo,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, initiateResponse{
		Success:     true,
		ApprovalURL: result.ApprovalURL,
		OrderID:     result.OrderID,
	})
}

func (h *Handler) capture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "orderId is required.")
		return
	}

	o, err := h.checkout.Capture(r.Context(), req.OrderID, req.PaymentID, req.PayerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, captureResponse{
		Success: true,
		Data:    toOrderResponse(o),
	})
}
