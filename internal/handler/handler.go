// Package handler implements the JSON HTTP API on top of the domain services.
package handler

import (
	"net/http"

	"github.com/xenking/store-orders/internal/domain/customer"
	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/order"
	"github.com/xenking/store-orders/internal/domain/product"
	"github.com/xenking/store-orders/internal/domain/supplier"
)

// Services groups the domain services the API delegates to.
type Services struct {
	Orders    *order.Service
	Products  *product.Service
	Inventory *inventory.Service
	Customers *customer.Service
	Suppliers *supplier.Service
}

// Handler serves the store API.
type Handler struct {
	orders    *order.Service
	products  *product.Service
	inventory *inventory.Service
	customers *customer.Service
	suppliers *supplier.Service
}

// New constructs a Handler.
func New(s Services) *Handler {
	return &Handler{
		orders:    s.Orders,
		products:  s.Products,
		inventory: s.Inventory,
		customers: s.Customers,
		suppliers: s.Suppliers,
	}
}

// Register adds every API route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)

	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.UpdateOrderStatus)

	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.DeleteProduct)

	mux.HandleFunc("GET /api/inventory", h.ListInventory)
	mux.HandleFunc("GET /api/inventory/{productId}", h.GetInventory)
	mux.HandleFunc("PUT /api/inventory/{productId}", h.SetInventory)

	mux.HandleFunc("POST /api/customers", h.CreateCustomer)
	mux.HandleFunc("GET /api/customers", h.ListCustomers)
	mux.HandleFunc("GET /api/customers/{id}", h.GetCustomer)
	mux.HandleFunc("PUT /api/customers/{id}", h.UpdateCustomer)
	mux.HandleFunc("DELETE /api/customers/{id}", h.DeleteCustomer)

	mux.HandleFunc("POST /api/suppliers", h.CreateSupplier)
	mux.HandleFunc("GET /api/suppliers", h.ListSuppliers)
	mux.HandleFunc("GET /api/suppliers/{id}", h.GetSupplier)
	mux.HandleFunc("PUT /api/suppliers/{id}", h.UpdateSupplier)
	mux.HandleFunc("DELETE /api/suppliers/{id}", h.DeleteSupplier)
}

// Root answers the bare index with a plain greeting.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Store management API is running"))
}
