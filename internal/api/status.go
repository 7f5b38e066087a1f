package api

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/thriftease/marketplace/internal/domain/order"
)

type orderLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Total     decimal.Decimal     `json:"total"`
	Status    order.Status        `json:"status"`
	Lines     []orderLineResponse `json:"lines,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Total:     o.Total,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, orderLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}
	return resp
}

// ListOrders returns the caller's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	orders, err := h.orders.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		zctx.From(r.Context()).Error("list orders", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	respond(w, r, http.StatusOK, out)
}

// GetOrder returns a single order with its lines. Customers see only their
// own orders; admins see all.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
	case errors.Is(err, order.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found")
		return
	default:
		zctx.From(r.Context()).Error("get order", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if o.UserID != identity.UserID && !identity.IsAdmin() {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}
	respond(w, r, http.StatusOK, toOrderResponse(o))
}

// SetOrderStatus applies an administrator-issued order status change.
func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}

	err := h.orders.SetOrderStatus(r.Context(), r.PathValue("id"), order.Status(req.Status))
	switch {
	case err == nil:
	case errors.Is(err, order.ErrInvalidStatus), errors.Is(err, order.ErrTransitionNotAllowed):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, order.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found")
		return
	default:
		zctx.From(r.Context()).Error("set order status", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetPaymentStatus applies an administrator-issued payment status change,
// including the FAILED cascade.
func (h *Handler) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var req struct {
		Status      string     `json:"status"`
		CompletedAt *time.Time `json:"completed_at"`
	}
	if !decode(w, r, &req) {
		return
	}

	err := h.orders.SetPaymentStatus(r.Context(), r.PathValue("id"), order.PaymentStatus(req.Status), req.CompletedAt)
	switch {
	case err == nil:
	case errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrTransitionNotAllowed),
		errors.Is(err, order.ErrCompletedAtRequired):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, order.ErrPaymentNotFound):
		respondError(w, http.StatusNotFound, "payment not found")
		return
	default:
		zctx.From(r.Context()).Error("set payment status", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
