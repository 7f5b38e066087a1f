package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thriftease/marketplace/internal/domain/product"
)

const (
	listVisibleProductsSQL = `SELECT id, name, price, stock, category, visible, image_url
		FROM products WHERE visible ORDER BY id`

	getProductByIDSQL = `SELECT id, name, price, stock, category, visible, image_url
		FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, name, price, stock, category, visible, image_url
		FROM products WHERE id = ANY($1)`
)

var (
	_ product.Repository     = (*ProductRepository)(nil)
	_ product.VisibilityGate = (*ProductRepository)(nil)
)

// ProductRepository implements product.Repository and product.VisibilityGate
// backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// ListVisible returns the products currently offered by the marketplace.
func (r *ProductRepository) ListVisible(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listVisibleProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Hide removes the products from marketplace listings.
func (r *ProductRepository) Hide(ctx context.Context, productIDs []string) error {
	return setVisibility(ctx, r.pool, productIDs, false)
}

// Restore makes the products listable again.
func (r *ProductRepository) Restore(ctx context.Context, productIDs []string) error {
	return setVisibility(ctx, r.pool, productIDs, true)
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Stock, &p.Category, &p.Visible, &p.ImageURL,
	)
	return p, err
}
