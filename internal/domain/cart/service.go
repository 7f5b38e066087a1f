package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrEmptyProductID is returned when an add request carries no product id.
var ErrEmptyProductID = errors.New("product id required")

// Service wraps the cart Repository with input validation. The stock
// invariant itself lives in the repository, where the check and the write are
// one serialized operation.
type Service struct {
	carts Repository
}

// NewService creates a cart Service.
func NewService(carts Repository) *Service {
	return &Service{carts: carts}
}

// Load returns the user's cart, empty when none exists.
func (s *Service) Load(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return c, nil
}

// AddOrIncrement adds one unit of the product to the user's cart.
func (s *Service) AddOrIncrement(ctx context.Context, userID, productID string) (*Line, error) {
	if productID == "" {
		return nil, ErrEmptyProductID
	}
	return s.carts.AddOrIncrement(ctx, userID, productID)
}

// SetQuantity updates a line's quantity. Quantities outside [1, stock] are
// rejected, never clamped.
func (s *Service) SetQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return s.carts.SetQuantity(ctx, userID, lineID, quantity)
}

// RemoveLines deletes a batch of lines from the user's own cart. IDs that do
// not belong to the user are ignored by the scoped delete, not an error: the
// caller-supplied list is never trusted on its own.
func (s *Service) RemoveLines(ctx context.Context, userID string, lineIDs []string) (int64, error) {
	if len(lineIDs) == 0 {
		return 0, nil
	}
	n, err := s.carts.RemoveLines(ctx, userID, lineIDs)
	if err != nil {
		return 0, errors.Wrap(err, "remove cart lines")
	}
	return n, nil
}
