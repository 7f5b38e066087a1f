package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Stock    int
	Category string
	Visible  bool
	ImageURL string
}

// Repository defines read operations for the product catalog. ListVisible
// consumes only the Visible flag to decide whether a product is offered.
type Repository interface {
	ListVisible(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// VisibilityGate is the sole mutation path for the Visible flag. It acts as a
// coarse reservation mechanism: a product is hidden from new buyers once any
// order references it, and restored only by the failed-payment cascade. Both
// callers go through the same UPDATE primitive so concurrent flips cannot be
// lost.
//
// It is deliberately not a stock counter. Replacing it with a real
// reservation model only requires a new implementation of this interface.
type VisibilityGate interface {
	Hide(ctx context.Context, productIDs []string) error
	Restore(ctx context.Context, productIDs []string) error
}
