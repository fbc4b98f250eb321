// Package memory provides process-local implementations of the domain
// repositories. All repositories of a Store share one lock, so an order
// commit and its inventory decrements are atomic with respect to every other
// operation on the same Store.
package memory

import (
	"sync"

	"github.com/xenking/store-orders/internal/domain/customer"
	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/order"
	"github.com/xenking/store-orders/internal/domain/product"
	"github.com/xenking/store-orders/internal/domain/supplier"
)

// Store holds the shared state and exposes one repository per entity.
type Store struct {
	mu        sync.RWMutex
	products  map[string]product.Product
	stock     map[string]inventory.Record
	orders    map[string]order.Order
	customers map[string]customer.Customer
	suppliers map[string]supplier.Supplier

	Products  *ProductRepository
	Inventory *InventoryLedger
	Orders    *OrderRepository
	Customers *CustomerRepository
	Suppliers *SupplierRepository
}

// New returns an empty Store.
func New() *Store {
	s := &Store{
		products:  make(map[string]product.Product),
		stock:     make(map[string]inventory.Record),
		orders:    make(map[string]order.Order),
		customers: make(map[string]customer.Customer),
		suppliers: make(map[string]supplier.Supplier),
	}
	s.Products = &ProductRepository{s: s}
	s.Inventory = &InventoryLedger{s: s}
	s.Orders = &OrderRepository{s: s}
	s.Customers = &CustomerRepository{s: s}
	s.Suppliers = &SupplierRepository{s: s}
	return s
}
