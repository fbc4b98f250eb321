package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository in memory.
type OrderRepository struct {
	s *Store
}

// Create stores o and applies every reservation under the store lock. When a
// reservation exceeds the recorded stock nothing is changed.
func (r *OrderRepository) Create(_ context.Context, o *order.Order, reservations []inventory.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	need := make(map[string]int, len(reservations))
	for _, res := range reservations {
		need[res.ProductID] += res.Quantity
		if have := r.s.stock[res.ProductID].Quantity; need[res.ProductID] > have {
			return &inventory.StockConflictError{
				ProductID: res.ProductID,
				Requested: need[res.ProductID],
				Available: have,
			}
		}
	}

	for id, n := range need {
		rec := r.s.stock[id]
		rec.Quantity -= n
		rec.LastStockedDate = o.OrderDate
		r.s.stock[id] = rec
	}
	r.s.orders[o.ID] = cloneOrder(*o)
	return nil
}

// Get returns a single order.
func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

// List returns all orders newest first.
func (r *OrderRepository) List(_ context.Context) ([]order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]order.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		out = append(out, cloneOrder(o))
	}
	slices.SortFunc(out, func(a, b order.Order) int {
		if c := b.OrderDate.Compare(a.OrderDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// SetStatus changes the status of a stored order.
func (r *OrderRepository) SetStatus(_ context.Context, id string, status order.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	r.s.orders[id] = o
	return nil
}

func cloneOrder(o order.Order) order.Order {
	o.Items = slices.Clone(o.Items)
	return o
}
