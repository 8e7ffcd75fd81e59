package handler

import (
	"net/http"
)

type cartItemResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartResponse struct {
	ID     string             `json:"id"`
	UserID string             `json:"userId"`
	Items  []cartItemResponse `json:"items"`
}

type getCartResponse struct {
	Success bool         `json:"success"`
	Data    cartResponse `json:"data"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	c, err := h.carts.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	items := make([]cartItemResponse, len(c.Items))
	for i, it := range c.Items {
		items[i] = cartItemResponse{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	respondJSON(w, http.StatusOK, getCartResponse{
		Success: true,
		Data:    cartResponse{ID: c.ID, UserID: c.UserID, Items: items},
	})
}
