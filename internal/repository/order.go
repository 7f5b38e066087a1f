package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thriftease/marketplace/internal/domain/order"
)

const (
	getOrderSQL = `SELECT id, user_id, total, status, created_at, updated_at
		FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT id, user_id, total, status, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	listOrderLinesSQL = `SELECT id, order_id, product_id, quantity, price
		FROM order_lines WHERE order_id = $1 ORDER BY id`

	getPaymentSQL = `SELECT id, order_id, method, status, amount, completed_at, updated_at
		FROM payments WHERE id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1`

	updatePaymentStatusSQL = `UPDATE payments
		SET status = $2, completed_at = COALESCE($3, completed_at), updated_at = NOW()
		WHERE id = $1`

	failPaymentSQL = `UPDATE payments SET status = $2, updated_at = NOW()
		WHERE id = $1 RETURNING order_id`

	orderProductIDsSQL = `SELECT DISTINCT product_id FROM order_lines WHERE order_id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Get returns an order with its lines.
func (r *OrderRepository) Get(ctx context.Context, orderID string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", orderID, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", orderID, err)
	}

	lineRows, err := r.pool.Query(ctx, listOrderLinesSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing order lines: %w", err)
	}
	o.Lines, err = pgx.CollectRows(lineRows, scanOrderLine)
	if err != nil {
		return nil, fmt.Errorf("scanning order lines: %w", err)
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first, without lines.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// GetPayment returns a payment record.
func (r *OrderRepository) GetPayment(ctx context.Context, paymentID string) (*order.Payment, error) {
	var p order.Payment
	err := r.pool.QueryRow(ctx, getPaymentSQL, paymentID).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Status, &p.Amount, &p.CompletedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("getting payment %q: %w", paymentID, err)
	}
	return &p, nil
}

// UpdateOrderStatus writes the status and bumps updated_at.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, orderID, string(status))
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// UpdatePaymentStatus writes the status, records completedAt when given, and
// bumps updated_at.
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, paymentID string, status order.PaymentStatus, completedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, updatePaymentStatusSQL, paymentID, string(status), completedAt)
	if err != nil {
		return fmt.Errorf("updating payment %q status: %w", paymentID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrPaymentNotFound
	}
	return nil
}

// FailPayment runs the cascade in one transaction: payment to FAILED, owning
// order to CANCELLED, and visibility restored for every product on the
// order's lines. If any step fails the whole transition rolls back — the
// payment is never left FAILED with a still-active order.
func (r *OrderRepository) FailPayment(ctx context.Context, paymentID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin fail payment: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderID string
	err = tx.QueryRow(ctx, failPaymentSQL, paymentID, string(order.PaymentFailed)).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrPaymentNotFound
		}
		return fmt.Errorf("failing payment %q: %w", paymentID, err)
	}

	if _, err := tx.Exec(ctx, updateOrderStatusSQL, orderID, string(order.StatusCancelled)); err != nil {
		return fmt.Errorf("cancelling order %q: %w", orderID, err)
	}

	idRows, err := tx.Query(ctx, orderProductIDsSQL, orderID)
	if err != nil {
		return fmt.Errorf("collecting order products: %w", err)
	}
	productIDs, err := pgx.CollectRows(idRows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("scanning order products: %w", err)
	}

	if err := setVisibility(ctx, tx, productIDs, true); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit fail payment: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func scanOrderLine(row pgx.CollectableRow) (order.OrderLine, error) {
	var l order.OrderLine
	err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.Price)
	return l, err
}
