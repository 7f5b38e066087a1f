package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thriftease/marketplace/internal/domain/cart"
	"github.com/thriftease/marketplace/internal/domain/product"
)

// --- Mock implementations ---

type mockCartRepo struct {
	cart *cart.Cart
	err  error
}

func (m *mockCartRepo) Load(_ context.Context, userID string) (*cart.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cart != nil {
		return m.cart, nil
	}
	return &cart.Cart{UserID: userID}, nil
}

func (m *mockCartRepo) AddOrIncrement(_ context.Context, _, _ string) (*cart.Line, error) {
	panic("not used")
}

func (m *mockCartRepo) SetQuantity(_ context.Context, _, _ string, _ int) error {
	panic("not used")
}

func (m *mockCartRepo) RemoveLines(_ context.Context, _ string, _ []string) (int64, error) {
	panic("not used")
}

type mockStaging struct {
	mu      sync.Mutex
	staged  map[string]*StagedOrder
	putErr  error
	deletes int
}

func newMockStaging() *mockStaging {
	return &mockStaging{staged: make(map[string]*StagedOrder)}
}

func (m *mockStaging) Put(_ context.Context, staged *StagedOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.staged[staged.UserID] = staged
	return nil
}

func (m *mockStaging) Get(_ context.Context, userID string) (*StagedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.staged[userID]
	if !ok {
		return nil, ErrNoStagedOrder
	}
	return s, nil
}

func (m *mockStaging) Take(_ context.Context, userID string) (*StagedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.staged[userID]
	if !ok {
		return nil, ErrNoStagedOrder
	}
	delete(m.staged, userID)
	return s, nil
}

func (m *mockStaging) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.staged, userID)
	return nil
}

type mockEngine struct {
	receipt    *Receipt
	err        error
	lastStaged *StagedOrder
	lastMethod string
	calls      int
}

func (m *mockEngine) CreateOrder(_ context.Context, staged *StagedOrder, method string) (*Receipt, error) {
	m.calls++
	m.lastStaged = staged
	m.lastMethod = method
	if m.err != nil {
		return nil, m.err
	}
	return m.receipt, nil
}

type mockNotifier struct {
	notification Notification
	calls        int
}

func (m *mockNotifier) OrderConfirmed(_ context.Context, _ *StagedOrder, _ Receipt) Notification {
	m.calls++
	return m.notification
}

// --- Helpers ---

func testCart() *cart.Cart {
	return &cart.Cart{
		ID:     "c1",
		UserID: "u1",
		Lines: []cart.Line{
			{
				ID:        "l1",
				ProductID: "p1",
				Quantity:  1,
				Product:   product.Product{ID: "p1", Name: "Vintage Jeans", Price: decimal.NewFromInt(100000), Stock: 1},
			},
			{
				ID:        "l2",
				ProductID: "p2",
				Quantity:  2,
				Product:   product.Product{ID: "p2", Name: "Flannel Shirt", Price: decimal.NewFromInt(65000), Stock: 3},
			},
		},
	}
}

func newTestService(carts cart.Repository, staging StagingStore, engine TransactionEngine, notifier Notifier) *Service {
	return NewService(carts, staging, engine, notifier, decimal.NewFromInt(15000), zap.NewNop())
}

// --- Tests ---

func TestBegin_EmptySelection(t *testing.T) {
	svc := newTestService(&mockCartRepo{}, newMockStaging(), &mockEngine{}, &mockNotifier{})

	_, err := svc.Begin(context.Background(), "u1", nil)
	require.ErrorIs(t, err, ErrEmptySelection)
}

func TestBegin_TotalsIncludeShipping(t *testing.T) {
	staging := newMockStaging()
	svc := newTestService(&mockCartRepo{cart: testCart()}, staging, &mockEngine{}, &mockNotifier{})

	staged, err := svc.Begin(context.Background(), "u1", []string{"l1"})
	require.NoError(t, err)

	require.Len(t, staged.Lines, 1)
	assert.True(t, staged.Subtotal.Equal(decimal.NewFromInt(100000)), "subtotal %s", staged.Subtotal)
	assert.True(t, staged.ShippingCost.Equal(decimal.NewFromInt(15000)))
	assert.True(t, staged.Total.Equal(decimal.NewFromInt(115000)), "total %s", staged.Total)
}

func TestBegin_MultiLineSubtotal(t *testing.T) {
	staging := newMockStaging()
	svc := newTestService(&mockCartRepo{cart: testCart()}, staging, &mockEngine{}, &mockNotifier{})

	staged, err := svc.Begin(context.Background(), "u1", []string{"l1", "l2"})
	require.NoError(t, err)

	require.Len(t, staged.Lines, 2)
	// 100000 + 2 x 65000 = 230000, plus shipping.
	assert.True(t, staged.Subtotal.Equal(decimal.NewFromInt(230000)))
	assert.True(t, staged.Total.Equal(decimal.NewFromInt(245000)))
}

func TestBegin_UnknownLineIDsIgnored(t *testing.T) {
	staging := newMockStaging()
	svc := newTestService(&mockCartRepo{cart: testCart()}, staging, &mockEngine{}, &mockNotifier{})

	staged, err := svc.Begin(context.Background(), "u1", []string{"l1", "ghost"})
	require.NoError(t, err)
	require.Len(t, staged.Lines, 1)
	assert.Equal(t, "l1", staged.Lines[0].LineID)
}

func TestBegin_OnlyUnknownLineIDs(t *testing.T) {
	svc := newTestService(&mockCartRepo{cart: testCart()}, newMockStaging(), &mockEngine{}, &mockNotifier{})

	_, err := svc.Begin(context.Background(), "u1", []string{"ghost"})
	require.ErrorIs(t, err, ErrEmptySelection)
}

func TestBegin_LocksPriceSnapshot(t *testing.T) {
	c := testCart()
	staging := newMockStaging()
	svc := newTestService(&mockCartRepo{cart: c}, staging, &mockEngine{}, &mockNotifier{})

	staged, err := svc.Begin(context.Background(), "u1", []string{"l1"})
	require.NoError(t, err)

	// A later catalog price change must not affect the snapshot.
	c.Lines[0].Product.Price = decimal.NewFromInt(999999)

	got, err := svc.Staged(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, got.Lines[0].Price.Equal(decimal.NewFromInt(100000)))
	assert.True(t, staged.Total.Equal(got.Total))
}

func TestBegin_OverwritesPriorSnapshot(t *testing.T) {
	staging := newMockStaging()
	svc := newTestService(&mockCartRepo{cart: testCart()}, staging, &mockEngine{}, &mockNotifier{})

	_, err := svc.Begin(context.Background(), "u1", []string{"l1", "l2"})
	require.NoError(t, err)

	_, err = svc.Begin(context.Background(), "u1", []string{"l2"})
	require.NoError(t, err)

	got, err := svc.Staged(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "l2", got.Lines[0].LineID)
}

func TestStaged_NoSnapshot(t *testing.T) {
	svc := newTestService(&mockCartRepo{}, newMockStaging(), &mockEngine{}, &mockNotifier{})

	_, err := svc.Staged(context.Background(), "u1")
	require.ErrorIs(t, err, ErrNoStagedOrder)
}

func TestConfirm_EmptyMethod(t *testing.T) {
	svc := newTestService(&mockCartRepo{}, newMockStaging(), &mockEngine{}, &mockNotifier{})

	_, err := svc.Confirm(context.Background(), "u1", "")
	require.ErrorIs(t, err, ErrEmptyPaymentMethod)
}

func TestConfirm_NoStagedOrder(t *testing.T) {
	engine := &mockEngine{}
	svc := newTestService(&mockCartRepo{}, newMockStaging(), engine, &mockNotifier{})

	_, err := svc.Confirm(context.Background(), "u1", "transfer")
	require.ErrorIs(t, err, ErrNoStagedOrder)
	assert.Zero(t, engine.calls)
}

func TestConfirm_HappyPath(t *testing.T) {
	staging := newMockStaging()
	engine := &mockEngine{receipt: &Receipt{OrderID: "o1", PaymentID: "pay1"}}
	notifier := &mockNotifier{notification: Notification{Message: "msg", DeepLink: "link"}}
	svc := newTestService(&mockCartRepo{cart: testCart()}, staging, engine, notifier)

	_, err := svc.Begin(context.Background(), "u1", []string{"l1"})
	require.NoError(t, err)

	res, err := svc.Confirm(context.Background(), "u1", "transfer")
	require.NoError(t, err)

	assert.Equal(t, "o1", res.OrderID)
	assert.Equal(t, "pay1", res.PaymentID)
	assert.Equal(t, "msg", res.Notification.Message)
	assert.Equal(t, "transfer", engine.lastMethod)
	assert.Equal(t, 1, notifier.calls)

	// The snapshot is consumed: a second confirm finds nothing.
	_, err = svc.Confirm(context.Background(), "u1", "transfer")
	require.ErrorIs(t, err, ErrNoStagedOrder)
	assert.Equal(t, 1, engine.calls)
}

func TestConfirm_EngineFailureKeepsSnapshot(t *testing.T) {
	staging := newMockStaging()
	engine := &mockEngine{err: errors.New("stock gone")}
	notifier := &mockNotifier{}
	svc := newTestService(&mockCartRepo{cart: testCart()}, staging, engine, notifier)

	_, err := svc.Begin(context.Background(), "u1", []string{"l1"})
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), "u1", "transfer")
	require.Error(t, err)
	assert.Zero(t, notifier.calls)
	assert.Zero(t, staging.deletes)

	// The snapshot survives a failed commit and can be retried.
	_, err = svc.Staged(context.Background(), "u1")
	require.NoError(t, err)
}

func TestConfirm_ConcurrentSingleWinner(t *testing.T) {
	staging := newMockStaging()
	engine := &mockEngine{receipt: &Receipt{OrderID: "o1", PaymentID: "pay1"}}
	svc := newTestService(&mockCartRepo{cart: testCart()}, staging, engine, &mockNotifier{})

	_, err := svc.Begin(context.Background(), "u1", []string{"l1"})
	require.NoError(t, err)

	// Two tabs confirm at the same time: the snapshot is taken atomically,
	// so only one confirmation can reach the engine.
	start := make(chan struct{})
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Confirm(context.Background(), "u1", "transfer")
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrNoStagedOrder):
			lost++
		default:
			t.Fatalf("unexpected confirm error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
	assert.Equal(t, 1, engine.calls)
}

func TestConfirm_RestoreFailureSurfacesEngineError(t *testing.T) {
	staging := newMockStaging()
	engine := &mockEngine{err: errors.New("db down")}
	svc := newTestService(&mockCartRepo{cart: testCart()}, staging, engine, &mockNotifier{})

	_, err := svc.Begin(context.Background(), "u1", []string{"l1"})
	require.NoError(t, err)

	// The restore after a failed commit can itself fail; the caller still
	// gets the engine error, and the snapshot is gone.
	staging.putErr = errors.New("redis down")

	_, err = svc.Confirm(context.Background(), "u1", "transfer")
	require.ErrorContains(t, err, "create order")

	_, err = svc.Staged(context.Background(), "u1")
	require.ErrorIs(t, err, ErrNoStagedOrder)
}

func TestAbandon_DiscardsSnapshot(t *testing.T) {
	staging := newMockStaging()
	engine := &mockEngine{}
	svc := newTestService(&mockCartRepo{cart: testCart()}, staging, engine, &mockNotifier{})

	_, err := svc.Begin(context.Background(), "u1", []string{"l1"})
	require.NoError(t, err)

	require.NoError(t, svc.Abandon(context.Background(), "u1"))
	_, err = svc.Staged(context.Background(), "u1")
	require.ErrorIs(t, err, ErrNoStagedOrder)

	// Abandoning with nothing staged is a no-op.
	require.NoError(t, svc.Abandon(context.Background(), "u1"))
	assert.Zero(t, engine.calls)
}

func TestStagedOrder_ProductIDsDistinct(t *testing.T) {
	staged := &StagedOrder{
		Lines: []StagedLine{
			{LineID: "l1", ProductID: "p1"},
			{LineID: "l2", ProductID: "p2"},
			{LineID: "l3", ProductID: "p1"},
		},
	}

	assert.Equal(t, []string{"l1", "l2", "l3"}, staged.LineIDs())
	assert.Equal(t, []string{"p1", "p2"}, staged.ProductIDs())
}
