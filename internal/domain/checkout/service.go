package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/thriftease/marketplace/internal/domain/cart"
)

// Sentinel errors for checkout staging and confirmation.
var (
	ErrEmptySelection     = errors.New("no cart lines selected")
	ErrEmptyPaymentMethod = errors.New("payment method required")
)

// Receipt identifies the records produced by a confirmed checkout.
type Receipt struct {
	OrderID   string
	PaymentID string
}

// TransactionEngine turns a staged snapshot into a durable Order, its lines,
// and a pending Payment as one indivisible operation: it also hides every
// referenced product and deletes the consumed cart lines. If any step fails,
// nothing persists.
type TransactionEngine interface {
	CreateOrder(ctx context.Context, staged *StagedOrder, method string) (*Receipt, error)
}

// Notification is the order-confirmation payload handed to the caller.
type Notification struct {
	Message  string
	DeepLink string
}

// Notifier formats and dispatches the post-commit confirmation message.
// Dispatch failure is non-fatal and must be handled by the implementation;
// the formatted payload is always returned.
type Notifier interface {
	OrderConfirmed(ctx context.Context, staged *StagedOrder, receipt Receipt) Notification
}

// ConfirmResult is the outcome of a successful checkout confirmation.
type ConfirmResult struct {
	OrderID      string
	PaymentID    string
	Notification Notification
}

// Service implements checkout staging and confirmation on top of the cart
// store, the staging store, and the transaction engine.
type Service struct {
	carts    cart.Repository
	staging  StagingStore
	engine   TransactionEngine
	notifier Notifier
	shipping decimal.Decimal
	lg       *zap.Logger
	now      func() time.Time
}

// NewService creates a checkout Service. shipping is the fixed shipping cost
// added to every staged order.
func NewService(
	carts cart.Repository,
	staging StagingStore,
	engine TransactionEngine,
	notifier Notifier,
	shipping decimal.Decimal,
	lg *zap.Logger,
) *Service {
	return &Service{
		carts:    carts,
		staging:  staging,
		engine:   engine,
		notifier: notifier,
		shipping: shipping,
		lg:       lg,
		now:      time.Now,
	}
}

// Begin computes a price-locked snapshot of the selected cart lines plus
// shipping and stores it under the user id, overwriting any prior snapshot.
// Concurrent Begin calls from the same user race last-write-wins. Neither the
// cart nor any product is mutated.
func (s *Service) Begin(ctx context.Context, userID string, lineIDs []string) (*StagedOrder, error) {
	if len(lineIDs) == 0 {
		return nil, ErrEmptySelection
	}

	c, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	selected := make(map[string]struct{}, len(lineIDs))
	for _, id := range lineIDs {
		selected[id] = struct{}{}
	}

	staged := &StagedOrder{
		UserID:       userID,
		ShippingCost: s.shipping,
		StagedAt:     s.now(),
	}
	subtotal := decimal.Zero
	for _, line := range c.Lines {
		if _, ok := selected[line.ID]; !ok {
			continue
		}
		sl := StagedLine{
			LineID:      line.ID,
			ProductID:   line.ProductID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			Price:       line.Product.Price,
		}
		staged.Lines = append(staged.Lines, sl)
		subtotal = subtotal.Add(sl.Subtotal())
	}
	if len(staged.Lines) == 0 {
		return nil, ErrEmptySelection
	}

	staged.Subtotal = subtotal
	staged.Total = subtotal.Add(s.shipping)

	if err := s.staging.Put(ctx, staged); err != nil {
		return nil, errors.Wrap(err, "stage order")
	}
	return staged, nil
}

// Staged returns the user's current snapshot, or ErrNoStagedOrder. The
// confirmation page reads it so the price shown equals the price charged.
func (s *Service) Staged(ctx context.Context, userID string) (*StagedOrder, error) {
	return s.staging.Get(ctx, userID)
}

// Abandon discards the user's snapshot, if any. Cart lines stay untouched;
// the user returns to the cart and can begin again.
func (s *Service) Abandon(ctx context.Context, userID string) error {
	return s.staging.Delete(ctx, userID)
}

// Confirm consumes the staged snapshot exactly once. The snapshot is taken
// out of the store atomically before the engine runs, so concurrent
// confirmations from the same user produce at most one order; the losers see
// ErrNoStagedOrder. A failed commit puts the snapshot back so the user can
// retry. Notification dispatch happens strictly after the commit and never
// rolls it back.
func (s *Service) Confirm(ctx context.Context, userID, method string) (*ConfirmResult, error) {
	if method == "" {
		return nil, ErrEmptyPaymentMethod
	}

	staged, err := s.staging.Take(ctx, userID)
	if err != nil {
		return nil, err
	}

	receipt, err := s.engine.CreateOrder(ctx, staged, method)
	if err != nil {
		if putErr := s.staging.Put(ctx, staged); putErr != nil {
			// The snapshot is lost; the user has to re-stage from the cart,
			// which was not touched by the rolled-back transaction.
			s.lg.Warn("restore staged order failed",
				zap.String("user_id", userID),
				zap.Error(putErr),
			)
		}
		return nil, errors.Wrap(err, "create order")
	}

	notif := s.notifier.OrderConfirmed(ctx, staged, *receipt)

	return &ConfirmResult{
		OrderID:      receipt.OrderID,
		PaymentID:    receipt.PaymentID,
		Notification: notif,
	}, nil
}
