package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/thriftease/marketplace/internal/domain/product"
)

// Sentinel errors for cart mutations.
var (
	// ErrInsufficientStock means a requested quantity would exceed the
	// product's live stock. The cart is left unchanged.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity means a quantity outside [1, stock] was requested.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrLineNotFound means the cart line does not exist or does not belong
	// to the requesting user.
	ErrLineNotFound = errors.New("cart line not found")
)

// Line is a single cart entry: one product with a positive quantity.
// A line reaching quantity zero is deleted, never stored.
type Line struct {
	ID        string
	ProductID string
	Quantity  int
	Product   product.Product
}

// Cart is the per-user collection of lines. A user has at most one cart, and
// the cart exists only while it has lines.
type Cart struct {
	ID     string
	UserID string
	Lines  []Line
}

// IsEmpty reports whether the cart has no lines. Load returns an empty cart
// value (not an error) for users without one.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Line returns the line with the given id, or nil.
func (c *Cart) Line(lineID string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return &c.Lines[i]
		}
	}
	return nil
}

// Repository defines persistence operations for carts.
//
// The quantity-mutating operations enforce 1 <= quantity <= product stock as
// part of a single serialized write: two concurrent increments on the same
// line must not both pass the stock check independently and overshoot.
type Repository interface {
	// Load returns the user's cart with product projections, or an empty
	// cart when none exists.
	Load(ctx context.Context, userID string) (*Cart, error)
	// AddOrIncrement creates the user's cart if missing, then creates a line
	// with quantity 1 or increments the existing line for the product.
	// Returns ErrInsufficientStock when the resulting quantity would exceed
	// stock, and product.ErrNotFound for an unknown product.
	AddOrIncrement(ctx context.Context, userID, productID string) (*Line, error)
	// SetQuantity updates a line in place. Returns ErrInvalidQuantity when
	// the quantity is outside [1, stock]; the stored quantity is unchanged.
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) error
	// RemoveLines deletes the given lines, scoped to the user's own cart
	// rows. Returns the number of lines actually deleted.
	RemoveLines(ctx context.Context, userID string, lineIDs []string) (int64, error)
}
