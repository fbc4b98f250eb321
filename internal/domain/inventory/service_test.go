package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/store-orders/internal/domain/apperr"
	"github.com/xenking/store-orders/internal/domain/ident"
	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/product"
	"github.com/xenking/store-orders/internal/storage/memory"
)

func ptr[T any](v T) *T { return &v }

func setup(t *testing.T) (*inventory.Service, *memory.Store, *product.Product) {
	t.Helper()
	store := memory.New()
	svc := inventory.NewService(store.Inventory, store.Products)

	p := &product.Product{ID: ident.New(), Name: "Lamp", Price: decimal.NewFromInt(30)}
	require.NoError(t, store.Products.Create(context.Background(), p))
	return svc, store, p
}

func TestQuantity_NoRecord(t *testing.T) {
	svc, _, p := setup(t)

	qty, err := svc.Quantity(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestSetQuantity_CreatesThenUpdates(t *testing.T) {
	svc, _, p := setup(t)
	ctx := context.Background()

	entry, created, err := svc.SetQuantity(ctx, p.ID, 12, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 12, entry.Quantity)
	assert.Equal(t, inventory.DefaultLowStockThreshold, entry.LowStockThreshold)
	assert.False(t, entry.LastStockedDate.IsZero())
	require.NotNil(t, entry.Product)
	assert.Equal(t, "Lamp", entry.Product.Name)

	first := entry.LastStockedDate
	entry, created, err = svc.SetQuantity(ctx, p.ID, 3, ptr(5))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 3, entry.Quantity)
	assert.Equal(t, 5, entry.LowStockThreshold)
	assert.False(t, entry.LastStockedDate.Before(first))

	qty, err := svc.Quantity(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)
}

func TestSetQuantity_Validation(t *testing.T) {
	svc, _, p := setup(t)
	ctx := context.Background()

	_, _, err := svc.SetQuantity(ctx, p.ID, -1, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = svc.SetQuantity(ctx, p.ID, 1, ptr(-2))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = svc.SetQuantity(ctx, ident.New(), 1, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGet_DistinguishesMissingProductAndRecord(t *testing.T) {
	svc, _, p := setup(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, p.ID)
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "inventory record for product", nf.Kind)

	_, err = svc.Get(ctx, ident.New())
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "product", nf.Kind)

	_, _, err = svc.SetQuantity(ctx, p.ID, 1, nil)
	require.NoError(t, err)
	entry, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Quantity)
}

func TestList_LowStockOnly(t *testing.T) {
	svc, store, p := setup(t)
	ctx := context.Background()

	other := &product.Product{ID: ident.New(), Name: "Desk", Price: decimal.NewFromInt(120)}
	require.NoError(t, store.Products.Create(ctx, other))

	_, _, err := svc.SetQuantity(ctx, p.ID, 10, nil) // equal to threshold counts as low
	require.NoError(t, err)
	_, _, err = svc.SetQuantity(ctx, other.ID, 50, nil)
	require.NoError(t, err)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	low, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, p.ID, low[0].ProductID)
	assert.Equal(t, "Lamp", low[0].Product.Name)
}

func TestRecord_LowStock(t *testing.T) {
	assert.True(t, inventory.Record{Quantity: 0, LowStockThreshold: 0}.LowStock())
	assert.True(t, inventory.Record{Quantity: 9, LowStockThreshold: 10}.LowStock())
	assert.False(t, inventory.Record{Quantity: 11, LowStockThreshold: 10}.LowStock())
}
