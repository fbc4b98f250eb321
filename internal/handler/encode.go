package handler

import (
	"github.com/go-faster/jx"

	"github.com/xenking/store-orders/internal/domain/customer"
	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/order"
	"github.com/xenking/store-orders/internal/domain/product"
	"github.com/xenking/store-orders/internal/domain/supplier"
)

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("price")
	encodeDecimal(e, p.Price)
	e.FieldStart("image_url")
	e.Str(p.ImageURL)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("created_at")
	encodeTime(e, p.CreatedAt)
	e.FieldStart("updated_at")
	encodeTime(e, p.UpdatedAt)
	e.ObjEnd()
}

// encodeProductSummary writes the product fields shown on order lines and
// inventory rows, or null for a deleted product.
func encodeProductSummary(e *jx.Encoder, p *product.Product) {
	if p == nil {
		e.Null()
		return
	}
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	encodeDecimal(e, p.Price)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("image_url")
	e.Str(p.ImageURL)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, d *order.Details) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(d.ID)

	e.FieldStart("customer_id")
	if d.CustomerID == "" {
		e.Null()
	} else {
		e.Str(d.CustomerID)
	}
	e.FieldStart("customer")
	if c := d.Customer; c == nil {
		e.Null()
	} else {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(c.ID)
		e.FieldStart("first_name")
		e.Str(c.FirstName)
		e.FieldStart("last_name")
		e.Str(c.LastName)
		e.FieldStart("email")
		e.Str(c.Email)
		e.ObjEnd()
	}

	e.FieldStart("items")
	e.ArrStart()
	for i, li := range d.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(li.ProductID)
		e.FieldStart("product")
		var p *product.Product
		if i < len(d.Products) {
			p = d.Products[i]
		}
		encodeProductSummary(e, p)
		e.FieldStart("quantity")
		e.Int(li.Quantity)
		e.FieldStart("price_per_unit")
		encodeDecimal(e, li.PricePerUnit)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("total_amount")
	encodeDecimal(e, d.TotalAmount)
	e.FieldStart("status")
	e.Str(string(d.Status))
	e.FieldStart("shipping_address")
	e.Str(d.ShippingAddress)
	e.FieldStart("billing_address")
	e.Str(d.BillingAddress)
	e.FieldStart("order_date")
	encodeTime(e, d.OrderDate)
	e.ObjEnd()
}

func encodeInventory(e *jx.Encoder, entry *inventory.Entry) {
	e.ObjStart()
	e.FieldStart("product_id")
	e.Str(entry.ProductID)
	e.FieldStart("product")
	encodeProductSummary(e, entry.Product)
	e.FieldStart("quantity")
	e.Int(entry.Quantity)
	e.FieldStart("low_stock_threshold")
	e.Int(entry.LowStockThreshold)
	e.FieldStart("low_stock")
	e.Bool(entry.LowStock())
	e.FieldStart("last_stocked_date")
	encodeTime(e, entry.LastStockedDate)
	e.ObjEnd()
}

func encodeCustomer(e *jx.Encoder, c *customer.Customer) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("first_name")
	e.Str(c.FirstName)
	e.FieldStart("last_name")
	e.Str(c.LastName)
	e.FieldStart("email")
	e.Str(c.Email)
	e.FieldStart("phone")
	e.Str(c.Phone)
	e.FieldStart("address")
	e.Str(c.Address)
	e.FieldStart("created_at")
	encodeTime(e, c.CreatedAt)
	e.ObjEnd()
}

func encodeSupplier(e *jx.Encoder, s *supplier.Supplier) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(s.ID)
	e.FieldStart("name")
	e.Str(s.Name)
	e.FieldStart("contact_person")
	e.Str(s.ContactPerson)
	e.FieldStart("email")
	e.Str(s.Email)
	e.FieldStart("phone")
	e.Str(s.Phone)
	e.FieldStart("address")
	e.Str(s.Address)
	e.FieldStart("created_at")
	encodeTime(e, s.CreatedAt)
	e.ObjEnd()
}
