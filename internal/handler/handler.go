// Package handler exposes the checkout core over HTTP with the JSON envelope
// the storefront's presentation layer consumes.
package handler

import (
	"net/http"

	"github.com/rabbitstore/checkout/internal/domain/cart"
	"github.com/rabbitstore/checkout/internal/domain/order"
)

// Handler serves the checkout, cart, and order-lookup endpoints, delegating
// business logic to the checkout service and the repositories.
type Handler struct {
	checkout *order.Service
	orders   order.Repository
	carts    cart.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(checkout *order.Service, orders order.Repository, carts cart.Repository) *Handler {
	return &Handler{
		checkout: checkout,
		orders:   orders,
		carts:    carts,
	}
}

// Register mounts all routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /checkout/initiate", h.initiate)
	mux.HandleFunc("POST /checkout/capture", h.capture)
	mux.HandleFunc("GET /carts/{id}", h.getCart)
	mux.HandleFunc("GET /orders/user/{userId}", h.listOrders)
	mux.HandleFunc("GET /orders/{id}", h.getOrder)
}
