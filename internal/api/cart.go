package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/thriftease/marketplace/internal/domain/cart"
	"github.com/thriftease/marketplace/internal/domain/product"
)

type cartLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   productResponse `json:"product"`
}

type cartResponse struct {
	ID    string             `json:"id,omitempty"`
	Lines []cartLineResponse `json:"lines"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	resp := cartResponse{ID: c.ID, Lines: make([]cartLineResponse, len(c.Lines))}
	for i, l := range c.Lines {
		resp.Lines[i] = cartLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Product:   toProductResponse(l.Product),
		}
	}
	return resp
}

// GetCart returns the caller's cart, empty when none exists.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	c, err := h.carts.Load(r.Context(), identity.UserID)
	if err != nil {
		zctx.From(r.Context()).Error("load cart", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond(w, r, http.StatusOK, toCartResponse(c))
}

// AddCartItem adds one unit of a product to the caller's cart.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if !decode(w, r, &req) {
		return
	}

	identity := IdentityFrom(r.Context())
	line, err := h.carts.AddOrIncrement(r.Context(), identity.UserID, req.ProductID)
	switch {
	case err == nil:
	case errors.Is(err, cart.ErrEmptyProductID):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, product.ErrNotFound):
		respondError(w, http.StatusNotFound, "product not found")
		return
	case errors.Is(err, cart.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient stock")
		return
	default:
		zctx.From(r.Context()).Error("add cart item", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond(w, r, http.StatusCreated, cartLineResponse{
		ID:        line.ID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		Product:   toProductResponse(line.Product),
	})
}

// SetCartItemQuantity updates a line's quantity in place. Out-of-bounds
// values are rejected, never clamped.
func (h *Handler) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decode(w, r, &req) {
		return
	}

	identity := IdentityFrom(r.Context())
	err := h.carts.SetQuantity(r.Context(), identity.UserID, r.PathValue("id"), req.Quantity)
	switch {
	case err == nil:
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid quantity")
		return
	case errors.Is(err, cart.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "cart line not found")
		return
	default:
		zctx.From(r.Context()).Error("set cart quantity", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveCartItems deletes a batch of lines. The delete is scoped to the
// caller's own cart; ids belonging to other users are silently skipped.
func (h *Handler) RemoveCartItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LineIDs []string `json:"line_ids"`
	}
	if !decode(w, r, &req) {
		return
	}
	if len(req.LineIDs) == 0 {
		respondError(w, http.StatusBadRequest, "line_ids required")
		return
	}

	identity := IdentityFrom(r.Context())
	removed, err := h.carts.RemoveLines(r.Context(), identity.UserID, req.LineIDs)
	if err != nil {
		zctx.From(r.Context()).Error("remove cart items", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond(w, r, http.StatusOK, map[string]int64{"removed": removed})
}
