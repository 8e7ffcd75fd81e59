package handler

import (
	"net/http"
)

type listOrdersResponse struct {
	Success bool            `json:"success"`
	Data    []orderResponse `json:"data"`
}

type getOrderResponse struct {
	Success bool          `json:"success"`
	Data    orderResponse `json:"data"`
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	orders, err := h.orders.ListByUser(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	data := make([]orderResponse, len(orders))
	for i := range orders {
		data[i] = toOrderResponse(&orders[i])
	}
	respondJSON(w, http.StatusOK, listOrdersResponse{Success: true, Data: data})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, getOrderResponse{Success: true, Data: toOrderResponse(o)})
}
