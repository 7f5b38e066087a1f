// Package api implements the HTTP surface of the marketplace backend.
package api

import (
	"net/http"

	"github.com/thriftease/marketplace/internal/domain/cart"
	"github.com/thriftease/marketplace/internal/domain/checkout"
	"github.com/thriftease/marketplace/internal/domain/order"
	"github.com/thriftease/marketplace/internal/domain/product"
)

// Handler exposes the domain services over HTTP, delegating all business
// logic to the injected services.
type Handler struct {
	products product.Repository
	gate     product.VisibilityGate
	carts    *cart.Service
	checkout *checkout.Service
	orders   *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	gate product.VisibilityGate,
	carts *cart.Service,
	checkoutSvc *checkout.Service,
	orders *order.Service,
) *Handler {
	return &Handler{
		products: products,
		gate:     gate,
		carts:    carts,
		checkout: checkoutSvc,
		orders:   orders,
	}
}

// Routes registers every API route on the mux. Authentication runs in front
// of the mux (see Security.Middleware); role checks happen per handler.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("PATCH /api/products/{id}/visibility", h.SetProductVisibility)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.SetCartItemQuantity)
	mux.HandleFunc("DELETE /api/cart/items", h.RemoveCartItems)

	mux.HandleFunc("POST /api/checkout/begin", h.BeginCheckout)
	mux.HandleFunc("GET /api/checkout/staged", h.GetStaged)
	mux.HandleFunc("DELETE /api/checkout/staged", h.AbandonCheckout)
	mux.HandleFunc("POST /api/checkout/confirm", h.ConfirmCheckout)

	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("PATCH /api/orders/{id}/status", h.SetOrderStatus)
	mux.HandleFunc("PATCH /api/payments/{id}/status", h.SetPaymentStatus)
}
