package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/thriftease/marketplace/internal/domain/product"
)

type productResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
	ImageURL string          `json:"image_url"`
}

func toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Category: p.Category,
		ImageURL: p.ImageURL,
	}
}

// ListProducts returns every product currently offered. Hidden products are
// excluded at the query level: the visible flag is the sole listing signal.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListVisible(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list products", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	respond(w, r, http.StatusOK, out)
}

// SetProductVisibility lets an administrator hide a listing or put it back on
// the market, e.g. after a bulk import hid it by mistake. It goes through the
// same visibility gate as the checkout engine and the payment cascade.
func (h *Handler) SetProductVisibility(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var req struct {
		Visible bool `json:"visible"`
	}
	if !decode(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	if _, err := h.products.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		zctx.From(r.Context()).Error("get product", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var err error
	if req.Visible {
		err = h.gate.Restore(r.Context(), []string{id})
	} else {
		err = h.gate.Hide(r.Context(), []string{id})
	}
	if err != nil {
		zctx.From(r.Context()).Error("set product visibility", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
