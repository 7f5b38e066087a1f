package api

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/thriftease/marketplace/internal/domain/cart"
	"github.com/thriftease/marketplace/internal/domain/checkout"
)

type stagedLineResponse struct {
	LineID      string          `json:"line_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type stagedOrderResponse struct {
	Lines        []stagedLineResponse `json:"lines"`
	Subtotal     decimal.Decimal      `json:"subtotal"`
	ShippingCost decimal.Decimal      `json:"shipping_cost"`
	Total        decimal.Decimal      `json:"total"`
	StagedAt     time.Time            `json:"staged_at"`
}

func toStagedOrderResponse(s *checkout.StagedOrder) stagedOrderResponse {
	resp := stagedOrderResponse{
		Lines:        make([]stagedLineResponse, len(s.Lines)),
		Subtotal:     s.Subtotal,
		ShippingCost: s.ShippingCost,
		Total:        s.Total,
		StagedAt:     s.StagedAt,
	}
	for i, l := range s.Lines {
		resp.Lines[i] = stagedLineResponse{
			LineID:      l.LineID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       l.Price,
			Subtotal:    l.Subtotal(),
		}
	}
	return resp
}

// BeginCheckout stages a price-locked snapshot of the selected cart lines.
func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LineIDs []string `json:"line_ids"`
	}
	if !decode(w, r, &req) {
		return
	}

	identity := IdentityFrom(r.Context())
	staged, err := h.checkout.Begin(r.Context(), identity.UserID, req.LineIDs)
	switch {
	case err == nil:
	case errors.Is(err, checkout.ErrEmptySelection):
		// An empty selection goes back to the cart, it is never staged.
		respondError(w, http.StatusBadRequest, "no cart lines selected")
		return
	default:
		zctx.From(r.Context()).Error("begin checkout", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond(w, r, http.StatusOK, toStagedOrderResponse(staged))
}

// GetStaged returns the caller's staged snapshot so the confirmation page
// shows exactly the price that will be charged.
func (h *Handler) GetStaged(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	staged, err := h.checkout.Staged(r.Context(), identity.UserID)
	switch {
	case err == nil:
	case errors.Is(err, checkout.ErrNoStagedOrder):
		respondError(w, http.StatusBadRequest, "no staged order")
		return
	default:
		zctx.From(r.Context()).Error("get staged order", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond(w, r, http.StatusOK, toStagedOrderResponse(staged))
}

// AbandonCheckout discards the caller's staged snapshot. The cart is left as
// it was, so the user can adjust it and begin again.
func (h *Handler) AbandonCheckout(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	if err := h.checkout.Abandon(r.Context(), identity.UserID); err != nil {
		zctx.From(r.Context()).Error("abandon checkout", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConfirmCheckout consumes the staged snapshot and commits the order.
func (h *Handler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	if !decode(w, r, &req) {
		return
	}

	identity := IdentityFrom(r.Context())
	result, err := h.checkout.Confirm(r.Context(), identity.UserID, req.PaymentMethod)
	switch {
	case err == nil:
	case errors.Is(err, checkout.ErrEmptyPaymentMethod):
		respondError(w, http.StatusBadRequest, "payment method required")
		return
	case errors.Is(err, checkout.ErrNoStagedOrder):
		respondError(w, http.StatusBadRequest, "no staged order")
		return
	case errors.Is(err, cart.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient stock")
		return
	default:
		// Transaction failures stay opaque: nothing partial persisted and
		// nothing partial leaks to the caller.
		zctx.From(r.Context()).Error("confirm checkout", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "checkout failed")
		return
	}

	respond(w, r, http.StatusCreated, map[string]string{
		"order_id":     result.OrderID,
		"payment_id":   result.PaymentID,
		"message":      result.Notification.Message,
		"whatsapp_url": result.Notification.DeepLink,
	})
}
