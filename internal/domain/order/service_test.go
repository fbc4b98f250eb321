package order

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/store-orders/internal/domain/apperr"
	"github.com/xenking/store-orders/internal/domain/customer"
	"github.com/xenking/store-orders/internal/domain/ident"
	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[string]*product.Product
	getErr error
	calls  atomic.Int32
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	m.calls.Add(1)
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(context.Context, *product.Product) error { return nil }
func (m *mockProductRepo) Update(context.Context, *product.Product) error { return nil }
func (m *mockProductRepo) Delete(context.Context, string) error           { return nil }

// mockStore plays both the stock reader and the order repository so that
// commits see the same quantities the validation pass read.
type mockStore struct {
	mu        sync.Mutex
	stock     map[string]int
	orders    map[string]Order
	createErr error
	writes    int
	// beforeCommit runs under no lock right before Create applies its
	// reservations.
	beforeCommit func()
}

func newMockStore(stock map[string]int) *mockStore {
	return &mockStore{stock: stock, orders: make(map[string]Order)}
}

func (m *mockStore) Quantity(_ context.Context, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[productID], nil
}

func (m *mockStore) Create(_ context.Context, o *Order, reservations []inventory.Reservation) error {
	if m.beforeCommit != nil {
		m.beforeCommit()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	need := make(map[string]int)
	for _, r := range reservations {
		need[r.ProductID] += r.Quantity
	}
	for id, n := range need {
		if m.stock[id] < n {
			return &inventory.StockConflictError{ProductID: id, Requested: n, Available: m.stock[id]}
		}
	}
	for id, n := range need {
		m.stock[id] -= n
		m.writes++
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *mockStore) Get(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *mockStore) List(_ context.Context) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockStore) SetStatus(_ context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

type mockCustomerRepo struct {
	byID map[string]*customer.Customer
}

func (m *mockCustomerRepo) List(context.Context) ([]customer.Customer, error) { return nil, nil }

func (m *mockCustomerRepo) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

func (m *mockCustomerRepo) GetByIDs(_ context.Context, ids []string) ([]customer.Customer, error) {
	var out []customer.Customer
	for _, id := range ids {
		if c, ok := m.byID[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCustomerRepo) Create(context.Context, *customer.Customer) error { return nil }
func (m *mockCustomerRepo) Update(context.Context, *customer.Customer) error { return nil }
func (m *mockCustomerRepo) Delete(context.Context, string) error            { return nil }

// --- Helpers ---

func newTestProduct(name, price string) product.Product {
	return product.Product{
		ID:       ident.New(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "test",
		ImageURL: "https://example.com/" + name + ".jpg",
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{byID: byID}
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, products *mockProductRepo, store *mockStore, customers ...*customer.Customer) *Service {
	t.Helper()
	byID := make(map[string]*customer.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}
	svc, err := NewService(products, store, &mockCustomerRepo{byID: byID}, store,
		WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	return svc
}

// --- Tests ---

func TestPlaceOrder_EmptyItems(t *testing.T) {
	products := newProductRepo()
	store := newMockStore(map[string]int{})
	svc := newTestService(t, products, store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{ShippingAddress: "1 Main St"})
	require.ErrorIs(t, err, ErrEmptyItems)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, products.calls.Load(), "no store touched")
	assert.Zero(t, store.writes)
}

func TestPlaceOrder_MissingShippingAddress(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	svc := newTestService(t, newProductRepo(p), newMockStore(map[string]int{p.ID: 5}))

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items:           []OrderItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: "   ",
	})
	require.ErrorIs(t, err, ErrMissingShipping)
}

func TestPlaceOrder_InvalidItems(t *testing.T) {
	p := newTestProduct("Widget", "10.00")

	for _, tt := range []struct {
		name    string
		items   []OrderItem
		message string
	}{
		{
			name:    "MissingProductID",
			items:   []OrderItem{{ProductID: p.ID, Quantity: 1}, {Quantity: 1}},
			message: "Missing product_id or quantity for item 2.",
		},
		{
			name:    "ZeroQuantity",
			items:   []OrderItem{{ProductID: p.ID, Quantity: 0}},
			message: "Quantity for product " + p.ID + " must be a positive integer.",
		},
		{
			name:    "NegativeQuantity",
			items:   []OrderItem{{ProductID: p.ID, Quantity: -3}},
			message: "Quantity for product " + p.ID + " must be a positive integer.",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			products := newProductRepo(p)
			svc := newTestService(t, products, newMockStore(map[string]int{p.ID: 5}))

			_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
				Items:           tt.items,
				ShippingAddress: "1 Main St",
			})

			var itemErr *InvalidItemError
			require.ErrorAs(t, err, &itemErr)
			assert.EqualError(t, err, tt.message)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Zero(t, products.calls.Load())
		})
	}
}

func TestPlaceOrder_ProductNotFound(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	store := newMockStore(map[string]int{p.ID: 5})
	svc := newTestService(t, newProductRepo(p), store)

	missing := ident.New()
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items: []OrderItem{
			{ProductID: p.ID, Quantity: 1},
			{ProductID: missing, Quantity: 1},
		},
		ShippingAddress: "1 Main St",
	})

	var pnfErr *ProductNotFoundError
	require.ErrorAs(t, err, &pnfErr)
	assert.Equal(t, missing, pnfErr.ProductID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 5, store.stock[p.ID])
	assert.Empty(t, store.orders)
}

func TestPlaceOrder_MalformedProductID(t *testing.T) {
	svc := newTestService(t, newProductRepo(), newMockStore(map[string]int{}))

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items:           []OrderItem{{ProductID: "not-an-id", Quantity: 1}},
		ShippingAddress: "1 Main St",
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPlaceOrder_UnknownCustomer(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	svc := newTestService(t, newProductRepo(p), newMockStore(map[string]int{p.ID: 5}))

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:      ident.New(),
		Items:           []OrderItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
	})
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "customer", nf.Kind)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	a := newTestProduct("Widget", "10.00")
	b := newTestProduct("Gadget", "5.00")
	store := newMockStore(map[string]int{a.ID: 5, b.ID: 1})
	svc := newTestService(t, newProductRepo(a, b), store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items: []OrderItem{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 3},
		},
		ShippingAddress: "1 Main St",
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.EqualError(t, err, "Insufficient stock for product: Gadget. Requested: 3, Available: 1")
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Zero(t, store.writes, "no inventory write on rejection")
	assert.Equal(t, 5, store.stock[a.ID])
	assert.Equal(t, 1, store.stock[b.ID])
}

func TestPlaceOrder_NoInventoryRecordMeansZero(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	svc := newTestService(t, newProductRepo(p), newMockStore(map[string]int{}))

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items:           []OrderItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, stockErr.Available)
}

func TestPlaceOrder_RepeatedProductCheckedCumulatively(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	store := newMockStore(map[string]int{p.ID: 3})
	svc := newTestService(t, newProductRepo(p), store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items: []OrderItem{
			{ProductID: p.ID, Quantity: 2},
			{ProductID: p.ID, Quantity: 2},
		},
		ShippingAddress: "1 Main St",
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 3, store.stock[p.ID])
}

func TestPlaceOrder_Success(t *testing.T) {
	a := newTestProduct("Widget", "10.00")
	b := newTestProduct("Gadget", "5.00")
	store := newMockStore(map[string]int{a.ID: 5, b.ID: 4})
	svc := newTestService(t, newProductRepo(a, b), store)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items: []OrderItem{
			{ProductID: a.ID, Quantity: 2},
			{ProductID: b.ID, Quantity: 1},
		},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	o := result.Order
	assert.True(t, decimal.RequireFromString("25.00").Equal(o.TotalAmount))
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "1 Main St", o.BillingAddress, "billing defaults to shipping")
	assert.Equal(t, testNow, o.OrderDate)
	assert.Empty(t, o.CustomerID)
	assert.True(t, ident.Valid(o.ID))

	require.Len(t, o.Items, 2)
	assert.Equal(t, a.ID, o.Items[0].ProductID)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, a.Price.Equal(o.Items[0].PricePerUnit))
	assert.Equal(t, b.ID, o.Items[1].ProductID)
	assert.True(t, b.Price.Equal(o.Items[1].PricePerUnit))

	require.Len(t, result.Products, 2)
	assert.Equal(t, "Widget", result.Products[0].Name)
	assert.Equal(t, "Gadget", result.Products[1].Name)

	assert.Equal(t, 3, store.stock[a.ID])
	assert.Equal(t, 3, store.stock[b.ID])
}

func TestPlaceOrder_TotalMatchesLineItems(t *testing.T) {
	products := []product.Product{
		newTestProduct("A", "0.10"),
		newTestProduct("B", "0.20"),
		newTestProduct("C", "19.99"),
	}
	stock := make(map[string]int)
	for _, p := range products {
		stock[p.ID] = 100
	}
	svc := newTestService(t, newProductRepo(products...), newMockStore(stock))

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items: []OrderItem{
			{ProductID: products[0].ID, Quantity: 3},
			{ProductID: products[1].ID, Quantity: 7},
			{ProductID: products[2].ID, Quantity: 11},
		},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, li := range result.Items {
		sum = sum.Add(li.Subtotal())
	}
	assert.True(t, sum.Equal(result.TotalAmount))
	assert.Equal(t, "221.59", result.TotalAmount.StringFixed(2))
}

func TestPlaceOrder_WithCustomerAndBilling(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	c := &customer.Customer{ID: ident.New(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	svc := newTestService(t, newProductRepo(p), newMockStore(map[string]int{p.ID: 1}), c)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:      c.ID,
		Items:           []OrderItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
		BillingAddress:  "2 Side St",
	})
	require.NoError(t, err)
	assert.Equal(t, c.ID, result.CustomerID)
	assert.Equal(t, "2 Side St", result.BillingAddress)
	require.NotNil(t, result.Customer)
	assert.Equal(t, "Ada", result.Customer.FirstName)
}

func TestPlaceOrder_CommitFailureTouchesNoInventory(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	store := newMockStore(map[string]int{p.ID: 5})
	store.createErr = errors.New("connection reset")
	svc := newTestService(t, newProductRepo(p), store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items:           []OrderItem{{ProductID: p.ID, Quantity: 2}},
		ShippingAddress: "1 Main St",
	})
	require.Error(t, err)
	assert.False(t, apperr.IsClientError(err))
	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, 5, store.stock[p.ID])
	assert.Empty(t, store.orders)
}

func TestPlaceOrder_StockRaceAtCommit(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	store := newMockStore(map[string]int{p.ID: 2})
	store.beforeCommit = func() {
		store.mu.Lock()
		store.stock[p.ID] = 1
		store.mu.Unlock()
	}
	svc := newTestService(t, newProductRepo(p), store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		Items:           []OrderItem{{ProductID: p.ID, Quantity: 2}},
		ShippingAddress: "1 Main St",
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Widget", stockErr.ProductName)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 1, store.stock[p.ID])
}

func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	store := newMockStore(map[string]int{p.ID: 1})
	svc := newTestService(t, newProductRepo(p), store)

	// Both placements pass validation before either commits.
	var ready sync.WaitGroup
	ready.Add(2)
	store.beforeCommit = func() {
		ready.Done()
		ready.Wait()
	}

	errs := make([]error, 2)
	var g errgroup.Group
	for i := range errs {
		g.Go(func() error {
			_, errs[i] = svc.PlaceOrder(context.Background(), PlaceOrderRequest{
				Items:           []OrderItem{{ProductID: p.ID, Quantity: 1}},
				ShippingAddress: "1 Main St",
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, store.stock[p.ID])
}

func TestUpdateStatus(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	store := newMockStore(map[string]int{p.ID: 5})
	svc := newTestService(t, newProductRepo(p), store)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		Items:           []OrderItem{{ProductID: p.ID, Quantity: 2}},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)
	before := store.orders[placed.ID]

	updated, err := svc.UpdateStatus(ctx, placed.ID, "Shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.Status)
	require.Len(t, updated.Products, 1)
	assert.Equal(t, "Widget", updated.Products[0].Name)

	after := store.orders[placed.ID]
	after.Status = before.Status
	assert.Equal(t, before, after, "only the status changes")
}

func TestUpdateStatus_AnyTransitionAllowed(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	store := newMockStore(map[string]int{p.ID: 5})
	svc := newTestService(t, newProductRepo(p), store)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		Items:           []OrderItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	for _, st := range []string{"Delivered", "Pending", "Pending", "Cancelled", "Processing"} {
		updated, err := svc.UpdateStatus(ctx, placed.ID, st)
		require.NoError(t, err, st)
		assert.Equal(t, Status(st), updated.Status)
	}
}

func TestUpdateStatus_CancelDoesNotRestock(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	store := newMockStore(map[string]int{p.ID: 5})
	svc := newTestService(t, newProductRepo(p), store)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		Items:           []OrderItem{{ProductID: p.ID, Quantity: 2}},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, placed.ID, "Cancelled")
	require.NoError(t, err)
	assert.Equal(t, 3, store.stock[p.ID])
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	p := newTestProduct("Widget", "10.00")
	store := newMockStore(map[string]int{p.ID: 5})
	svc := newTestService(t, newProductRepo(p), store)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		Items:           []OrderItem{{ProductID: p.ID, Quantity: 1}},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	for _, st := range []string{"Delivered!!", "shipped", ""} {
		_, err = svc.UpdateStatus(ctx, placed.ID, st)
		var statusErr *InvalidStatusError
		require.ErrorAs(t, err, &statusErr, st)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	assert.Equal(t, StatusPending, store.orders[placed.ID].Status)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc := newTestService(t, newProductRepo(), newMockStore(map[string]int{}))

	for _, id := range []string{ident.New(), "bogus"} {
		_, err := svc.UpdateStatus(context.Background(), id, "Shipped")
		assert.ErrorIs(t, err, apperr.ErrNotFound, id)
	}
}

func TestGet_ExpandsDeletedProductAsNil(t *testing.T) {
	a := newTestProduct("Widget", "10.00")
	b := newTestProduct("Gadget", "5.00")
	products := newProductRepo(a, b)
	store := newMockStore(map[string]int{a.ID: 5, b.ID: 5})
	svc := newTestService(t, products, store)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		Items: []OrderItem{
			{ProductID: a.ID, Quantity: 1},
			{ProductID: b.ID, Quantity: 1},
		},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)
	delete(products.byID, b.ID)

	got, err := svc.Get(ctx, placed.ID)
	require.NoError(t, err)
	require.Len(t, got.Products, 2)
	assert.Equal(t, "Widget", got.Products[0].Name)
	assert.Nil(t, got.Products[1])
	assert.True(t, b.Price.Equal(got.Items[1].PricePerUnit), "snapshot survives deletion")
}

func TestParseStatus(t *testing.T) {
	for _, st := range Statuses {
		got, err := ParseStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	_, err := ParseStatus("Lost")
	assert.EqualError(t, err,
		`Invalid status "Lost" provided. Valid statuses are: Pending, Processing, Shipped, Delivered, Cancelled.`)
}
