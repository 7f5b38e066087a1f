package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for status transitions.
var (
	ErrInvalidStatus = errors.New("invalid status value")
	// ErrTransitionNotAllowed is returned when the transition table rejects
	// a status change. With the permissive table it only fires for unknown
	// values, but callers must treat it as a policy error.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	// ErrCompletedAtRequired means a payment was marked SUCCESS without a
	// completion timestamp. This is a caller error, not a default we fill.
	ErrCompletedAtRequired = errors.New("completed_at required for successful payment")
)

// Service applies administrator-issued status changes to orders and
// payments, enforcing the allowed value sets and executing the single defined
// cascade: payment FAILED cancels the order and restores product visibility.
type Service struct {
	orders Repository
}

// NewService creates a status transition Service.
func NewService(orders Repository) *Service {
	return &Service{orders: orders}
}

// Get returns an order with its lines.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.Get(ctx, orderID)
}

// ListByUser returns the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// SetOrderStatus writes the new status and bumps the updated timestamp.
func (s *Service) SetOrderStatus(ctx context.Context, orderID string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	current, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(status) {
		return ErrTransitionNotAllowed
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return errors.Wrap(err, "update order status")
	}
	return nil
}

// SetPaymentStatus writes the new payment status. SUCCESS requires a
// completion timestamp. FAILED runs the cascade in the same database
// transaction: the owning order becomes CANCELLED and every product on its
// lines becomes visible again — or nothing changes at all. Re-failing an
// already failed payment converges on the same terminal state.
func (s *Service) SetPaymentStatus(ctx context.Context, paymentID string, status PaymentStatus, completedAt *time.Time) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if status == PaymentSuccess && completedAt == nil {
		return ErrCompletedAtRequired
	}

	current, err := s.orders.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(status) {
		return ErrTransitionNotAllowed
	}

	if status == PaymentFailed {
		if err := s.orders.FailPayment(ctx, paymentID); err != nil {
			return errors.Wrap(err, "fail payment")
		}
		return nil
	}

	if err := s.orders.UpdatePaymentStatus(ctx, paymentID, status, completedAt); err != nil {
		return errors.Wrap(err, "update payment status")
	}
	return nil
}
