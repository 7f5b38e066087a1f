package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order and payment lookups.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

// OrderLine is a single line of a persisted order. Price is the per-unit
// price captured at order creation time and is never recomputed from the live
// catalog: it is the audit record of what the customer was charged.
type OrderLine struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

// Order is a durable customer order. It is created atomically with its lines
// and payment; afterwards only Status and UpdatedAt change.
type Order struct {
	ID        string
	UserID    string
	Total     decimal.Decimal
	Status    Status
	Lines     []OrderLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is the one-to-one money record for an order. Amount equals the
// order total for the lifetime of both records.
type Payment struct {
	ID          string
	OrderID     string
	Method      string
	Status      PaymentStatus
	Amount      decimal.Decimal
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// Repository defines persistence operations for orders and payments.
//
// FailPayment is the cascade: within one transaction it marks the payment
// FAILED, cancels the owning order, and restores visibility for every product
// on the order's lines. A failed-payment transition that cannot also cancel
// the order rolls back entirely.
type Repository interface {
	Get(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)

	UpdateOrderStatus(ctx context.Context, orderID string, status Status) error
	UpdatePaymentStatus(ctx context.Context, paymentID string, status PaymentStatus, completedAt *time.Time) error
	FailPayment(ctx context.Context, paymentID string) error
}
