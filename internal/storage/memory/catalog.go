package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/product"
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ inventory.Ledger   = (*InventoryLedger)(nil)
)

// ProductRepository implements product.Repository in memory.
type ProductRepository struct {
	s *Store
}

// List returns all products ordered by creation time.
func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]product.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b product.Product) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// GetByID returns a single product.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// GetByIDs returns the products matching any of ids; unknown ids are skipped.
func (r *ProductRepository) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Create stores a new product.
func (r *ProductRepository) Create(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.products[p.ID] = *p
	return nil
}

// Update overwrites a stored product.
func (r *ProductRepository) Update(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[p.ID]; !ok {
		return product.ErrNotFound
	}
	r.s.products[p.ID] = *p
	return nil
}

// Delete removes a product and its inventory record.
func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(r.s.products, id)
	delete(r.s.stock, id)
	return nil
}

// InventoryLedger implements inventory.Ledger in memory.
type InventoryLedger struct {
	s *Store
}

// Get returns the record of a product.
func (l *InventoryLedger) Get(_ context.Context, productID string) (*inventory.Record, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	rec, ok := l.s.stock[productID]
	if !ok {
		return nil, inventory.ErrNotFound
	}
	return &rec, nil
}

// List returns all records ordered by product id.
func (l *InventoryLedger) List(_ context.Context) ([]inventory.Record, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	out := make([]inventory.Record, 0, len(l.s.stock))
	for _, rec := range l.s.stock {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b inventory.Record) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return out, nil
}

// Set writes the quantity of a product, creating the record when absent.
func (l *InventoryLedger) Set(_ context.Context, productID string, quantity int, threshold *int, at time.Time) (*inventory.Record, bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	rec, ok := l.s.stock[productID]
	if !ok {
		rec = inventory.Record{
			ProductID:         productID,
			LowStockThreshold: inventory.DefaultLowStockThreshold,
		}
	}
	rec.Quantity = quantity
	rec.LastStockedDate = at
	if threshold != nil {
		rec.LowStockThreshold = *threshold
	}
	l.s.stock[productID] = rec
	return &rec, !ok, nil
}
