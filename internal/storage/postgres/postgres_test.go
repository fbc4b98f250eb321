//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/store-orders/internal/domain/customer"
	"github.com/xenking/store-orders/internal/domain/ident"
	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/order"
	"github.com/xenking/store-orders/internal/domain/product"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "store",
				"POSTGRES_PASSWORD": "store",
				"POSTGRES_DB":       "store",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres: %v\n", err)
		return 1
	}
	defer func() { _ = testcontainers.TerminateContainer(c) }()

	host, err := c.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "host: %v\n", err)
		return 1
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		fmt.Fprintf(os.Stderr, "port: %v\n", err)
		return 1
	}

	dsn := fmt.Sprintf("postgres://store:store@%s:%s/store?sslmode=disable", host, port.Port())
	testPool, err = NewPool(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pool: %v\n", err)
		return 1
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "migrations: %v\n", err)
		return 1
	}
	return m.Run()
}

func createProduct(t *testing.T, price string, quantity int) *product.Product {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	p := &product.Product{
		ID:        ident.New(),
		Name:      "Widget " + ident.New()[:8],
		Price:     decimal.RequireFromString(price),
		Category:  "Tools",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, NewProductRepository(testPool).Create(ctx, p))
	_, created, err := NewInventoryRepository(testPool).Set(ctx, p.ID, quantity, nil, now)
	require.NoError(t, err)
	require.True(t, created)
	return p
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testPool)
	p := createProduct(t, "12.50", 3)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.Price.Equal(got.Price))

	got.Price = decimal.RequireFromString("13.00")
	require.NoError(t, repo.Update(ctx, got))

	batch, err := repo.GetByIDs(ctx, []string{p.ID, ident.New()})
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.True(t, decimal.RequireFromString("13").Equal(batch[0].Price))

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, product.ErrNotFound)

	_, err = NewInventoryRepository(testPool).Get(ctx, p.ID)
	assert.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestInventoryRepository_Set(t *testing.T) {
	ctx := context.Background()
	repo := NewInventoryRepository(testPool)
	p := createProduct(t, "1.00", 5)

	threshold := 2
	rec, created, err := repo.Set(ctx, p.ID, 1, &threshold, time.Now())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, rec.Quantity)
	assert.Equal(t, 2, rec.LowStockThreshold)
	assert.True(t, rec.LowStock())

	rec, _, err = repo.Set(ctx, p.ID, 7, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, rec.LowStockThreshold, "threshold kept when omitted")
}

func TestOrderRepository_Create(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepository(testPool)
	stock := NewInventoryRepository(testPool)
	p := createProduct(t, "2.50", 5)

	o := &order.Order{
		ID:              ident.New(),
		Items:           []order.LineItem{{ProductID: p.ID, Quantity: 2, PricePerUnit: p.Price}},
		TotalAmount:     decimal.RequireFromString("5.00"),
		Status:          order.StatusPending,
		ShippingAddress: "1 Main St",
		BillingAddress:  "1 Main St",
		OrderDate:       time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, orders.Create(ctx, o, []inventory.Reservation{{ProductID: p.ID, Quantity: 2}}))

	rec, err := stock.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Quantity)
	assert.True(t, o.OrderDate.Equal(rec.LastStockedDate))

	got, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CustomerID)
	require.Len(t, got.Items, 1)
	assert.True(t, p.Price.Equal(got.Items[0].PricePerUnit))

	require.NoError(t, orders.SetStatus(ctx, o.ID, order.StatusShipped))
	got, err = orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got.Status)

	assert.ErrorIs(t, orders.SetStatus(ctx, ident.New(), order.StatusShipped), order.ErrNotFound)
}

func TestOrderRepository_CreateRollsBackOnConflict(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepository(testPool)
	stock := NewInventoryRepository(testPool)
	a := createProduct(t, "1.00", 5)
	b := createProduct(t, "1.00", 1)

	o := &order.Order{
		ID:              ident.New(),
		Items:           []order.LineItem{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 2}},
		Status:          order.StatusPending,
		ShippingAddress: "1 Main St",
		BillingAddress:  "1 Main St",
		OrderDate:       time.Now(),
	}
	err := orders.Create(ctx, o, []inventory.Reservation{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 2},
	})
	var conflict *inventory.StockConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, b.ID, conflict.ProductID)
	assert.Equal(t, 1, conflict.Available)

	_, err = orders.Get(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrNotFound)

	rec, err := stock.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Quantity)
}

func TestOrderRepository_ConcurrentCreateNeverOversells(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepository(testPool)
	p := createProduct(t, "1.00", 5)

	const attempts = 20
	results := make([]error, attempts)
	var g errgroup.Group
	for i := range attempts {
		g.Go(func() error {
			o := &order.Order{
				ID:              ident.New(),
				Items:           []order.LineItem{{ProductID: p.ID, Quantity: 1}},
				Status:          order.StatusPending,
				ShippingAddress: "1 Main St",
				BillingAddress:  "1 Main St",
				OrderDate:       time.Now(),
			}
			results[i] = orders.Create(ctx, o, []inventory.Reservation{{ProductID: p.ID, Quantity: 1}})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	committed := 0
	for _, err := range results {
		if err == nil {
			committed++
			continue
		}
		var conflict *inventory.StockConflictError
		assert.ErrorAs(t, err, &conflict)
	}
	assert.Equal(t, 5, committed)

	rec, err := NewInventoryRepository(testPool).Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Quantity)
}

func TestCustomerRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository(testPool)
	email := ident.New() + "@example.com"

	c := &customer.Customer{ID: ident.New(), FirstName: "Ada", LastName: "Lovelace", Email: email, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, c))

	dup := &customer.Customer{ID: ident.New(), FirstName: "Bob", LastName: "Smith", Email: email, CreatedAt: time.Now()}
	assert.ErrorIs(t, repo.Create(ctx, dup), customer.ErrDuplicateEmail)

	require.NoError(t, repo.Delete(ctx, c.ID))
	assert.ErrorIs(t, repo.Delete(ctx, c.ID), customer.ErrNotFound)
}
