package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabbitstore/checkout/internal/domain/payment"
	"github.com/rabbitstore/checkout/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]*product.Product
	getErr error
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Decrement(_ context.Context, id string, quantity int) (int, error) {
	p, ok := m.byID[id]
	if !ok {
		return 0, product.ErrNotFound
	}
	p.TotalStock -= quantity
	if p.TotalStock < 0 {
		p.TotalStock = 0
	}
	return p.TotalStock, nil
}

type mockGateway struct {
	intent *payment.Intent
	err    error

	lastItems    []payment.Item
	lastTotal    decimal.Decimal
	lastCurrency string
	calls        int
}

func (m *mockGateway) CreateIntent(_ context.Context, items []payment.Item, total decimal.Decimal, currency string) (*payment.Intent, error) {
	m.calls++
	m.lastItems = items
	m.lastTotal = total
	m.lastCurrency = currency
	if m.err != nil {
		return nil, m.err
	}
	return m.intent, nil
}

type mockOrderRepo struct {
	lastOrder  *Order
	createErr  error
	captureRes *CaptureResult
	captureErr error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.lastOrder = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	if m.lastOrder != nil && m.lastOrder.ID == id {
		return m.lastOrder, nil
	}
	return nil, ErrNotFound
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ string) ([]Order, error) {
	if m.lastOrder == nil {
		return nil, nil
	}
	return []Order{*m.lastOrder}, nil
}

func (m *mockOrderRepo) Capture(_ context.Context, _, _, _ string) (*CaptureResult, error) {
	return m.captureRes, m.captureErr
}

// --- Helpers ---

func newTestProduct(id, title string, price, salePrice decimal.Decimal, stock int) product.Product {
	return product.Product{
		ID:         id,
		Title:      title,
		Price:      price,
		SalePrice:  salePrice,
		TotalStock: stock,
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

func newGateway() *mockGateway {
	return &mockGateway{
		intent: &payment.Intent{
			ID:          "PAY-123",
			ApprovalURL: "https://gateway.example/approve/PAY-123",
		},
	}
}

// --- Initiate tests ---

func TestInitiate_EmptyCart(t *testing.T) {
	svc := NewService(newProductRepo(), &mockOrderRepo{}, newGateway(), "USD")

	_, err := svc.Initiate(context.Background(), InitiateRequest{})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestInitiate_InvalidQuantity(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10), decimal.Zero, 5)
	gw := newGateway()
	svc := NewService(newProductRepo(p1), &mockOrderRepo{}, gw, "USD")

	_, err := svc.Initiate(context.Background(), InitiateRequest{
		Items: []CartLine{{ProductID: "p1", Quantity: 0}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
	assert.Zero(t, gw.calls, "validation must reject before any gateway call")
}

func TestInitiate_ProductNotFound(t *testing.T) {
	gw := newGateway()
	svc := NewService(newProductRepo(), &mockOrderRepo{}, gw, "USD")

	_, err := svc.Initiate(context.Background(), InitiateRequest{
		Items: []CartLine{{ProductID: "missing", Quantity: 1}},
	})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, "missing", pnfErr.ProductID)
	assert.Zero(t, gw.calls)
}

func TestInitiate_TotalFromCatalogPrices(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.RequireFromString("10.00"), decimal.Zero, 5)
	p2 := newTestProduct("p2", "Gadget", decimal.RequireFromString("20.00"), decimal.Zero, 5)
	gw := newGateway()
	repo := &mockOrderRepo{}
	svc := NewService(newProductRepo(p1, p2), repo, gw, "USD")

	result, err := svc.Initiate(context.Background(), InitiateRequest{
		UserID: "u1",
		CartID: "c1",
		Items: []CartLine{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, repo.lastOrder.ID, result.OrderID)
	assert.Equal(t, "https://gateway.example/approve/PAY-123", result.ApprovalURL)
	assert.True(t, decimal.RequireFromString("40.00").Equal(gw.lastTotal))
	assert.Equal(t, "USD", gw.lastCurrency)
}

func TestInitiate_MergesDuplicateLines(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.RequireFromString("10.00"), decimal.Zero, 5)
	gw := newGateway()
	repo := &mockOrderRepo{}
	svc := NewService(newProductRepo(p1), repo, gw, "USD")

	_, err := svc.Initiate(context.Background(), InitiateRequest{
		UserID: "u1",
		CartID: "c1",
		Items: []CartLine{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p1", Quantity: 2},
		},
	})

	require.NoError(t, err)
	// One snapshot item per product: the capture transaction decrements stock
	// per (order, product), so the order must carry the combined quantity.
	require.Len(t, repo.lastOrder.Items, 1)
	assert.Equal(t, 4, repo.lastOrder.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("40.00").Equal(repo.lastOrder.TotalAmount))
	require.Len(t, gw.lastItems, 1)
	assert.Equal(t, 4, gw.lastItems[0].Quantity)
	assert.True(t, decimal.RequireFromString("40.00").Equal(gw.lastTotal))
}

func TestInitiate_SalePriceWins(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.RequireFromString("10.00"),
		decimal.RequireFromString("7.50"), 5)
	gw := newGateway()
	repo := &mockOrderRepo{}
	svc := NewService(newProductRepo(p1), repo, gw, "USD")

	_, err := svc.Initiate(context.Background(), InitiateRequest{
		Items: []CartLine{{ProductID: "p1", Quantity: 2}},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("15.00").Equal(gw.lastTotal))
	require.Len(t, repo.lastOrder.Items, 1)
	assert.True(t, decimal.RequireFromString("7.50").Equal(repo.lastOrder.Items[0].UnitPrice))
}

func TestInitiate_PersistsPendingOrder(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.RequireFromString("10.00"), decimal.Zero, 5)
	repo := &mockOrderRepo{}
	svc := NewService(newProductRepo(p1), repo, newGateway(), "USD")

	_, err := svc.Initiate(context.Background(), InitiateRequest{
		UserID:      "u1",
		CartID:      "c1",
		Items:       []CartLine{{ProductID: "p1", Quantity: 3}},
		AddressInfo: []byte(`{"city":"Berlin"}`),
	})

	require.NoError(t, err)
	o := repo.lastOrder
	require.NotNil(t, o)
	assert.Equal(t, StatusPending, o.OrderStatus)
	assert.Equal(t, PaymentUnpaid, o.PaymentStatus)
	assert.Equal(t, "PAY-123", o.IntentID)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, "c1", o.CartID)
	assert.Equal(t, PaymentMethodPayPal, o.PaymentMethod)
	assert.True(t, decimal.RequireFromString("30.00").Equal(o.TotalAmount))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Widget", o.Items[0].Title)
	assert.Equal(t, 3, o.Items[0].Quantity)
}

func TestInitiate_GatewayRejected(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10), decimal.Zero, 5)
	gw := &mockGateway{err: errors.Wrap(payment.ErrRejected, "currency not supported")}
	repo := &mockOrderRepo{}
	svc := NewService(newProductRepo(p1), repo, gw, "USD")

	_, err := svc.Initiate(context.Background(), InitiateRequest{
		Items: []CartLine{{ProductID: "p1", Quantity: 1}},
	})

	require.ErrorIs(t, err, payment.ErrRejected)
	assert.Nil(t, repo.lastOrder, "no order may be persisted on gateway failure")
}

func TestInitiate_OrderCreateError(t *testing.T) {
	p1 := newTestProduct("p1", "Widget", decimal.NewFromInt(10), decimal.Zero, 5)
	svc := NewService(
		newProductRepo(p1),
		&mockOrderRepo{createErr: errors.New("db write failed")},
		newGateway(),
		"USD",
	)

	_, err := svc.Initiate(context.Background(), InitiateRequest{
		Items: []CartLine{{ProductID: "p1", Quantity: 1}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

// --- Capture tests ---

func TestCapture_AppliesOnce(t *testing.T) {
	confirmed := &Order{
		ID:            "o1",
		OrderStatus:   StatusConfirmed,
		PaymentStatus: PaymentPaid,
		PaymentID:     "PAY-123",
		PayerID:       "PAYER-1",
	}
	repo := &mockOrderRepo{captureRes: &CaptureResult{Order: confirmed, Applied: true}}
	svc := NewService(newProductRepo(), repo, newGateway(), "USD")

	o, err := svc.Capture(context.Background(), "o1", "PAY-123", "PAYER-1")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.OrderStatus)
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
}

func TestCapture_DuplicateReturnsExisting(t *testing.T) {
	confirmed := &Order{ID: "o1", OrderStatus: StatusConfirmed, PaymentStatus: PaymentPaid}
	repo := &mockOrderRepo{captureRes: &CaptureResult{Order: confirmed, Applied: false}}
	svc := NewService(newProductRepo(), repo, newGateway(), "USD")

	o, err := svc.Capture(context.Background(), "o1", "PAY-123", "PAYER-1")
	require.NoError(t, err)
	assert.Same(t, confirmed, o)
}

func TestCapture_NotFound(t *testing.T) {
	repo := &mockOrderRepo{captureErr: ErrNotFound}
	svc := NewService(newProductRepo(), repo, newGateway(), "USD")

	_, err := svc.Capture(context.Background(), "missing", "PAY-123", "PAYER-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCapture_OversellAccepted(t *testing.T) {
	confirmed := &Order{ID: "o1", OrderStatus: StatusConfirmed, PaymentStatus: PaymentPaid}
	repo := &mockOrderRepo{captureRes: &CaptureResult{
		Order:   confirmed,
		Applied: true,
		Oversold: []Oversell{
			{ProductID: "p1", Requested: 5, Applied: 3},
		},
	}}
	svc := NewService(newProductRepo(), repo, newGateway(), "USD")

	// Payment is already taken, so a clamped decrement must not fail capture.
	o, err := svc.Capture(context.Background(), "o1", "PAY-123", "PAYER-1")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.OrderStatus)
}
