package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	orders   map[string]*Order
	payments map[string]*Payment

	updatedOrderID     string
	updatedOrderStatus Status

	updatedPaymentID     string
	updatedPaymentStatus PaymentStatus
	updatedCompletedAt   *time.Time

	failedPaymentID string
	failErr         error
}

func (m *mockOrderRepo) Get(_ context.Context, orderID string) (*Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) GetPayment(_ context.Context, paymentID string) (*Payment, error) {
	p, ok := m.payments[paymentID]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (m *mockOrderRepo) UpdateOrderStatus(_ context.Context, orderID string, status Status) error {
	if _, ok := m.orders[orderID]; !ok {
		return ErrOrderNotFound
	}
	m.updatedOrderID = orderID
	m.updatedOrderStatus = status
	return nil
}

func (m *mockOrderRepo) UpdatePaymentStatus(_ context.Context, paymentID string, status PaymentStatus, completedAt *time.Time) error {
	if _, ok := m.payments[paymentID]; !ok {
		return ErrPaymentNotFound
	}
	m.updatedPaymentID = paymentID
	m.updatedPaymentStatus = status
	m.updatedCompletedAt = completedAt
	return nil
}

func (m *mockOrderRepo) FailPayment(_ context.Context, paymentID string) error {
	if m.failErr != nil {
		return m.failErr
	}
	if _, ok := m.payments[paymentID]; !ok {
		return ErrPaymentNotFound
	}
	m.failedPaymentID = paymentID
	return nil
}

// --- Helpers ---

func newRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: map[string]*Order{
			"o1": {
				ID:     "o1",
				UserID: "u1",
				Total:  decimal.NewFromInt(115000),
				Status: StatusPending,
				Lines: []OrderLine{
					{ID: "ol1", OrderID: "o1", ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(100000)},
				},
			},
		},
		payments: map[string]*Payment{
			"pay1": {
				ID:      "pay1",
				OrderID: "o1",
				Method:  "transfer",
				Status:  PaymentPending,
				Amount:  decimal.NewFromInt(115000),
			},
		},
	}
}

// --- Tests ---

func TestGet_Unknown(t *testing.T) {
	svc := NewService(newRepo())

	_, err := svc.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSetOrderStatus_Invalid(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo)

	err := svc.SetOrderStatus(context.Background(), "o1", Status("SHIPPING"))
	require.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, repo.updatedOrderID)
}

func TestSetOrderStatus_UnknownOrder(t *testing.T) {
	svc := NewService(newRepo())

	err := svc.SetOrderStatus(context.Background(), "ghost", StatusProcessing)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSetOrderStatus_OK(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo)

	require.NoError(t, svc.SetOrderStatus(context.Background(), "o1", StatusProcessing))
	assert.Equal(t, "o1", repo.updatedOrderID)
	assert.Equal(t, StatusProcessing, repo.updatedOrderStatus)
}

func TestSetPaymentStatus_SuccessRequiresCompletedAt(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo)

	err := svc.SetPaymentStatus(context.Background(), "pay1", PaymentSuccess, nil)
	require.ErrorIs(t, err, ErrCompletedAtRequired)
	assert.Empty(t, repo.updatedPaymentID)
}

func TestSetPaymentStatus_Success(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.SetPaymentStatus(context.Background(), "pay1", PaymentSuccess, &at))

	assert.Equal(t, "pay1", repo.updatedPaymentID)
	assert.Equal(t, PaymentSuccess, repo.updatedPaymentStatus)
	require.NotNil(t, repo.updatedCompletedAt)
	assert.True(t, at.Equal(*repo.updatedCompletedAt))
	assert.Empty(t, repo.failedPaymentID)
}

func TestSetPaymentStatus_FailedRunsCascade(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo)

	require.NoError(t, svc.SetPaymentStatus(context.Background(), "pay1", PaymentFailed, nil))

	// FAILED must go through the cascade, not the plain status update.
	assert.Equal(t, "pay1", repo.failedPaymentID)
	assert.Empty(t, repo.updatedPaymentID)
}

func TestSetPaymentStatus_Invalid(t *testing.T) {
	svc := NewService(newRepo())

	err := svc.SetPaymentStatus(context.Background(), "pay1", PaymentStatus("PAID"), nil)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetPaymentStatus_UnknownPayment(t *testing.T) {
	svc := NewService(newRepo())

	err := svc.SetPaymentStatus(context.Background(), "ghost", PaymentFailed, nil)
	require.ErrorIs(t, err, ErrPaymentNotFound)
}
