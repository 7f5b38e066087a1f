package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thriftease/marketplace/internal/domain/cart"
	"github.com/thriftease/marketplace/internal/domain/product"
)

const (
	getCartSQL = `SELECT id FROM carts WHERE user_id = $1`

	// Always returns the cart id, whether freshly inserted or pre-existing.
	ensureCartSQL = `INSERT INTO carts (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id`

	listCartLinesSQL = `SELECT l.id, l.product_id, l.quantity,
			p.id, p.name, p.price, p.stock, p.category, p.visible, p.image_url
		FROM cart_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.cart_id = $1
		ORDER BY l.created_at`

	// Inserts a fresh line only when stock allows one unit; on conflict
	// increments only when the new quantity still fits the live stock. The
	// row lock taken by the upsert serializes concurrent increments, so two
	// simultaneous adds cannot both pass the stock check and overshoot.
	upsertCartLineSQL = `INSERT INTO cart_lines (id, cart_id, product_id, quantity)
		SELECT $1, $2, $3, 1 FROM products p WHERE p.id = $3 AND p.stock >= 1
		ON CONFLICT (cart_id, product_id) DO UPDATE
			SET quantity = cart_lines.quantity + 1
			WHERE cart_lines.quantity + 1 <= (SELECT stock FROM products WHERE id = $3)
		RETURNING id`

	productStockSQL = `SELECT stock FROM products WHERE id = $1`

	// Conditional in-place update: the quantity bound is checked in the same
	// statement that writes, and the row stays untouched on rejection.
	setQuantitySQL = `UPDATE cart_lines l SET quantity = $3
		FROM carts c, products p
		WHERE l.id = $1 AND l.cart_id = c.id AND c.user_id = $2
			AND p.id = l.product_id
			AND $3 >= 1 AND $3 <= p.stock`

	lineExistsSQL = `SELECT 1 FROM cart_lines l
		JOIN carts c ON c.id = l.cart_id
		WHERE l.id = $1 AND c.user_id = $2`

	getLineSQL = `SELECT l.id, l.product_id, l.quantity,
			p.id, p.name, p.price, p.stock, p.category, p.visible, p.image_url
		FROM cart_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.id = $1`

	// Scoped to the requesting user's own cart rows. A caller-supplied id
	// list alone is never trusted.
	removeLinesSQL = `DELETE FROM cart_lines l USING carts c
		WHERE l.cart_id = c.id AND c.user_id = $1 AND l.id = ANY($2)`

	dropEmptyCartSQL = `DELETE FROM carts
		WHERE user_id = $1
			AND NOT EXISTS (SELECT 1 FROM cart_lines WHERE cart_id = carts.id)`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Load returns the user's cart with product projections, or an empty cart
// when none exists.
func (r *CartRepository) Load(ctx context.Context, userID string) (*cart.Cart, error) {
	c := &cart.Cart{UserID: userID}

	err := r.pool.QueryRow(ctx, getCartSQL, userID).Scan(&c.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, nil
		}
		return nil, fmt.Errorf("getting cart for user %q: %w", userID, err)
	}

	rows, err := r.pool.Query(ctx, listCartLinesSQL, c.ID)
	if err != nil {
		return nil, fmt.Errorf("listing cart lines: %w", err)
	}
	c.Lines, err = pgx.CollectRows(rows, scanCartLine)
	if err != nil {
		return nil, fmt.Errorf("scanning cart lines: %w", err)
	}
	return c, nil
}

// AddOrIncrement creates the user's cart if missing, then upserts the product
// line. The stock bound is enforced by the conditional upsert itself.
func (r *CartRepository) AddOrIncrement(ctx context.Context, userID, productID string) (*cart.Line, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin add to cart: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cartID string
	if err := tx.QueryRow(ctx, ensureCartSQL, uuid.New().String(), userID).Scan(&cartID); err != nil {
		return nil, fmt.Errorf("ensuring cart for user %q: %w", userID, err)
	}

	var lineID string
	err = tx.QueryRow(ctx, upsertCartLineSQL, uuid.New().String(), cartID, productID).Scan(&lineID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("upserting cart line: %w", err)
		}
		// No row returned: either the product is unknown or the increment
		// would exceed stock.
		var stock int
		if scanErr := tx.QueryRow(ctx, productStockSQL, productID).Scan(&stock); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return nil, product.ErrNotFound
			}
			return nil, fmt.Errorf("checking stock for product %q: %w", productID, scanErr)
		}
		return nil, cart.ErrInsufficientStock
	}

	rows, err := tx.Query(ctx, getLineSQL, lineID)
	if err != nil {
		return nil, fmt.Errorf("reloading cart line %q: %w", lineID, err)
	}
	line, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		return nil, fmt.Errorf("scanning cart line %q: %w", lineID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit add to cart: %w", err)
	}
	return &line, nil
}

// SetQuantity updates a line in place; values outside [1, stock] leave the
// stored quantity unchanged and return cart.ErrInvalidQuantity.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, setQuantitySQL, lineID, userID, quantity)
	if err != nil {
		return fmt.Errorf("updating cart line %q: %w", lineID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var one int
	if err := r.pool.QueryRow(ctx, lineExistsSQL, lineID, userID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart.ErrLineNotFound
		}
		return fmt.Errorf("checking cart line %q: %w", lineID, err)
	}
	return cart.ErrInvalidQuantity
}

// RemoveLines deletes the given lines from the user's own cart and drops the
// cart itself once its last line is gone.
func (r *CartRepository) RemoveLines(ctx context.Context, userID string, lineIDs []string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin remove lines: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, removeLinesSQL, userID, lineIDs)
	if err != nil {
		return 0, fmt.Errorf("removing cart lines: %w", err)
	}

	if _, err := tx.Exec(ctx, dropEmptyCartSQL, userID); err != nil {
		return 0, fmt.Errorf("dropping empty cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit remove lines: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(
		&l.ID, &l.ProductID, &l.Quantity,
		&l.Product.ID, &l.Product.Name, &l.Product.Price, &l.Product.Stock,
		&l.Product.Category, &l.Product.Visible, &l.Product.ImageURL,
	)
	return l, err
}
