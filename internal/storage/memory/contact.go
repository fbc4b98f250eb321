package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/xenking/store-orders/internal/domain/customer"
	"github.com/xenking/store-orders/internal/domain/supplier"
)

var (
	_ customer.Repository = (*CustomerRepository)(nil)
	_ supplier.Repository = (*SupplierRepository)(nil)
)

// CustomerRepository implements customer.Repository in memory.
type CustomerRepository struct {
	s *Store
}

// List returns customers newest first.
func (r *CustomerRepository) List(_ context.Context) ([]customer.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]customer.Customer, 0, len(r.s.customers))
	for _, c := range r.s.customers {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b customer.Customer) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// GetByID returns a single customer.
func (r *CustomerRepository) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return &c, nil
}

// GetByIDs returns the customers matching any of ids.
func (r *CustomerRepository) GetByIDs(_ context.Context, ids []string) ([]customer.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]customer.Customer, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.s.customers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Create stores a new customer, rejecting duplicate emails.
func (r *CustomerRepository) Create(_ context.Context, c *customer.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(c.Email, c.ID) {
		return customer.ErrDuplicateEmail
	}
	r.s.customers[c.ID] = *c
	return nil
}

// Update overwrites a stored customer, rejecting duplicate emails.
func (r *CustomerRepository) Update(_ context.Context, c *customer.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[c.ID]; !ok {
		return customer.ErrNotFound
	}
	if r.emailTaken(c.Email, c.ID) {
		return customer.ErrDuplicateEmail
	}
	r.s.customers[c.ID] = *c
	return nil
}

// Delete removes a customer and clears the reference on their orders.
func (r *CustomerRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[id]; !ok {
		return customer.ErrNotFound
	}
	delete(r.s.customers, id)
	for oid, o := range r.s.orders {
		if o.CustomerID == id {
			o.CustomerID = ""
			r.s.orders[oid] = o
		}
	}
	return nil
}

func (r *CustomerRepository) emailTaken(email, exceptID string) bool {
	for id, c := range r.s.customers {
		if id != exceptID && c.Email == email {
			return true
		}
	}
	return false
}

// SupplierRepository implements supplier.Repository in memory.
type SupplierRepository struct {
	s *Store
}

// List returns suppliers newest first.
func (r *SupplierRepository) List(_ context.Context) ([]supplier.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]supplier.Supplier, 0, len(r.s.suppliers))
	for _, s := range r.s.suppliers {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b supplier.Supplier) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// GetByID returns a single supplier.
func (r *SupplierRepository) GetByID(_ context.Context, id string) (*supplier.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	s, ok := r.s.suppliers[id]
	if !ok {
		return nil, supplier.ErrNotFound
	}
	return &s, nil
}

// Create stores a new supplier, rejecting duplicate emails.
func (r *SupplierRepository) Create(_ context.Context, s *supplier.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(s.Email, s.ID) {
		return supplier.ErrDuplicateEmail
	}
	r.s.suppliers[s.ID] = *s
	return nil
}

// Update overwrites a stored supplier, rejecting duplicate emails.
func (r *SupplierRepository) Update(_ context.Context, s *supplier.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.suppliers[s.ID]; !ok {
		return supplier.ErrNotFound
	}
	if r.emailTaken(s.Email, s.ID) {
		return supplier.ErrDuplicateEmail
	}
	r.s.suppliers[s.ID] = *s
	return nil
}

// Delete removes a supplier.
func (r *SupplierRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.suppliers[id]; !ok {
		return supplier.ErrNotFound
	}
	delete(r.s.suppliers, id)
	return nil
}

func (r *SupplierRepository) emailTaken(email, exceptID string) bool {
	for id, s := range r.s.suppliers {
		if id != exceptID && s.Email == email {
			return true
		}
	}
	return false
}
