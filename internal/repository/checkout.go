package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thriftease/marketplace/internal/domain/checkout"
	"github.com/thriftease/marketplace/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, user_id, total, status)
		VALUES ($1, $2, $3, $4)`

	insertOrderLineSQL = `INSERT INTO order_lines (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)`

	insertPaymentSQL = `INSERT INTO payments (id, order_id, method, status, amount)
		VALUES ($1, $2, $3, $4, $5)`

	deleteConsumedLinesSQL = `DELETE FROM cart_lines l USING carts c
		WHERE l.cart_id = c.id AND c.user_id = $1 AND l.id = ANY($2)`
)

var _ checkout.TransactionEngine = (*TxEngine)(nil)

// TxEngine is the order/payment transaction engine: it commits an order, its
// lines, the pending payment, the visibility flips, and the cart cleanup as
// one database transaction. A partial commit would leave the catalog and the
// money-owed ledger inconsistent, so any failure rolls everything back.
type TxEngine struct {
	pool *pgxpool.Pool
}

// NewTxEngine returns a TxEngine that uses the given pool.
func NewTxEngine(pool *pgxpool.Pool) *TxEngine {
	return &TxEngine{pool: pool}
}

// CreateOrder materializes a staged snapshot. Prices and total come from the
// snapshot, never from a fresh catalog lookup. It may block briefly on the
// referenced product rows, but holds no locks across any external call:
// notification dispatch happens in the caller, after commit.
func (e *TxEngine) CreateOrder(ctx context.Context, staged *checkout.StagedOrder, method string) (*checkout.Receipt, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderID := uuid.New().String()
	paymentID := uuid.New().String()

	if _, err := tx.Exec(ctx, insertOrderSQL,
		orderID, staged.UserID, staged.Total, string(order.StatusPending),
	); err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	for _, line := range staged.Lines {
		if _, err := tx.Exec(ctx, insertOrderLineSQL,
			uuid.New().String(), orderID, line.ProductID, line.Quantity, line.Price,
		); err != nil {
			return nil, fmt.Errorf("creating order line for product %q: %w", line.ProductID, err)
		}
	}

	if _, err := tx.Exec(ctx, insertPaymentSQL,
		paymentID, orderID, method, string(order.PaymentPending), staged.Total,
	); err != nil {
		return nil, fmt.Errorf("creating payment: %w", err)
	}

	if err := setVisibility(ctx, tx, staged.ProductIDs(), false); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, deleteConsumedLinesSQL, staged.UserID, staged.LineIDs()); err != nil {
		return nil, fmt.Errorf("deleting consumed cart lines: %w", err)
	}
	if _, err := tx.Exec(ctx, dropEmptyCartSQL, staged.UserID); err != nil {
		return nil, fmt.Errorf("dropping empty cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	return &checkout.Receipt{OrderID: orderID, PaymentID: paymentID}, nil
}
