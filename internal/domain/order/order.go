package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/store-orders/internal/domain/customer"
	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/product"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the fulfilment state of an order.
type Status string

// The closed set of order statuses. Any status may follow any other.
const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// ParseStatus returns the Status named by s, matching case-sensitively.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", &InvalidStatusError{Value: s}
}

func statusList() string {
	names := make([]string, len(Statuses))
	for i, st := range Statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

// Order is a placed customer order. It is written once at placement and
// afterwards only its Status changes.
type Order struct {
	ID string
	// CustomerID is empty for anonymous orders.
	CustomerID      string
	Items           []LineItem
	TotalAmount     decimal.Decimal
	Status          Status
	ShippingAddress string
	BillingAddress  string
	OrderDate       time.Time
}

// LineItem is an immutable snapshot of one product within an order.
// PricePerUnit is the catalog price at placement time.
type LineItem struct {
	ProductID    string          `json:"product_id"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

// Subtotal returns PricePerUnit * Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.PricePerUnit.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Details is an order with its references resolved for display.
type Details struct {
	*Order
	// Products holds the product of each line item, in item order. An entry
	// is nil when the product has since been deleted.
	Products []*product.Product
	// Customer is nil for anonymous orders or deleted customers.
	Customer *customer.Customer
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists o and applies every reservation as a single atomic
	// unit, refreshing each record's last-stocked date to o.OrderDate. When a
	// reservation exceeds the stock on record nothing is written and a
	// *inventory.StockConflictError is returned.
	Create(ctx context.Context, o *Order, reservations []inventory.Reservation) error
	Get(ctx context.Context, id string) (*Order, error)
	// List returns orders newest first.
	List(ctx context.Context) ([]Order, error)
	// SetStatus changes the status column and nothing else.
	SetStatus(ctx context.Context, id string, status Status) error
}
