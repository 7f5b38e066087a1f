package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thriftease/marketplace/internal/domain/product"
)

// --- Mock implementations ---

type mockRepo struct {
	cart *Cart

	addedProduct string
	addErr       error

	setLineID   string
	setQuantity int
	setErr      error

	removedIDs []string
	removedN   int64
	removeErr  error
}

func (m *mockRepo) Load(_ context.Context, userID string) (*Cart, error) {
	if m.cart != nil {
		return m.cart, nil
	}
	return &Cart{UserID: userID}, nil
}

func (m *mockRepo) AddOrIncrement(_ context.Context, _, productID string) (*Line, error) {
	m.addedProduct = productID
	if m.addErr != nil {
		return nil, m.addErr
	}
	return &Line{ID: "l1", ProductID: productID, Quantity: 1}, nil
}

func (m *mockRepo) SetQuantity(_ context.Context, _, lineID string, quantity int) error {
	m.setLineID = lineID
	m.setQuantity = quantity
	return m.setErr
}

func (m *mockRepo) RemoveLines(_ context.Context, _ string, lineIDs []string) (int64, error) {
	m.removedIDs = lineIDs
	return m.removedN, m.removeErr
}

// --- Tests ---

func TestLoad_EmptyCart(t *testing.T) {
	svc := NewService(&mockRepo{})

	c, err := svc.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestAddOrIncrement_EmptyProductID(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	_, err := svc.AddOrIncrement(context.Background(), "u1", "")
	require.ErrorIs(t, err, ErrEmptyProductID)
	assert.Empty(t, repo.addedProduct)
}

func TestAddOrIncrement_PassesThrough(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	line, err := svc.AddOrIncrement(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", line.ProductID)
	assert.Equal(t, 1, line.Quantity)
}

func TestAddOrIncrement_InsufficientStock(t *testing.T) {
	repo := &mockRepo{addErr: ErrInsufficientStock}
	svc := NewService(repo)

	_, err := svc.AddOrIncrement(context.Background(), "u1", "p1")
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestAddOrIncrement_UnknownProduct(t *testing.T) {
	repo := &mockRepo{addErr: product.ErrNotFound}
	svc := NewService(repo)

	_, err := svc.AddOrIncrement(context.Background(), "u1", "ghost")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestSetQuantity_BelowOne(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	err := svc.SetQuantity(context.Background(), "u1", "l1", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	// The repository must not be touched for an obviously bad quantity.
	assert.Empty(t, repo.setLineID)

	err = svc.SetQuantity(context.Background(), "u1", "l1", -3)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestSetQuantity_PassesThrough(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	require.NoError(t, svc.SetQuantity(context.Background(), "u1", "l1", 3))
	assert.Equal(t, "l1", repo.setLineID)
	assert.Equal(t, 3, repo.setQuantity)
}

func TestSetQuantity_ExceedsStock(t *testing.T) {
	repo := &mockRepo{setErr: ErrInvalidQuantity}
	svc := NewService(repo)

	err := svc.SetQuantity(context.Background(), "u1", "l1", 99)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemoveLines_EmptyList(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	n, err := svc.RemoveLines(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, repo.removedIDs)
}

func TestRemoveLines_PassesThrough(t *testing.T) {
	repo := &mockRepo{removedN: 2}
	svc := NewService(repo)

	n, err := svc.RemoveLines(context.Background(), "u1", []string{"l1", "l2", "not-mine"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, []string{"l1", "l2", "not-mine"}, repo.removedIDs)
}

func TestCartLineLookup(t *testing.T) {
	c := &Cart{
		ID:     "c1",
		UserID: "u1",
		Lines: []Line{
			{ID: "l1", ProductID: "p1", Quantity: 1, Product: product.Product{ID: "p1", Price: decimal.NewFromInt(50000)}},
			{ID: "l2", ProductID: "p2", Quantity: 2, Product: product.Product{ID: "p2", Price: decimal.NewFromInt(80000)}},
		},
	}

	assert.False(t, c.IsEmpty())
	require.NotNil(t, c.Line("l2"))
	assert.Equal(t, "p2", c.Line("l2").ProductID)
	assert.Nil(t, c.Line("l3"))
}
