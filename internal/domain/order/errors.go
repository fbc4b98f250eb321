package order

import (
	"fmt"

	"github.com/xenking/store-orders/internal/domain/apperr"
)

// Sentinel errors for order validation.
var (
	ErrEmptyItems      = apperr.Validation("Order items are required and must be a non-empty array.")
	ErrMissingShipping = apperr.Validation("Shipping address is required.")
)

// InvalidItemError indicates a malformed line item in a placement request.
type InvalidItemError struct {
	// Index is the zero-based position of the item in the request.
	Index     int
	ProductID string
}

func (e *InvalidItemError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("Missing product_id or quantity for item %d.", e.Index+1)
	}
	return fmt.Sprintf("Quantity for product %s must be a positive integer.", e.ProductID)
}

// Is reports the validation category.
func (e *InvalidItemError) Is(target error) bool { return target == apperr.ErrValidation }

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product with ID %s not found.", e.ProductID)
}

// Is reports the not-found category.
func (e *ProductNotFoundError) Is(target error) bool { return target == apperr.ErrNotFound }

// InsufficientStockError indicates a product cannot cover the requested
// quantity. Requested is the total asked for across all items of the order.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product: %s. Requested: %d, Available: %d",
		e.ProductName, e.Requested, e.Available)
}

// Is reports the conflict category.
func (e *InsufficientStockError) Is(target error) bool { return target == apperr.ErrConflict }

// InvalidStatusError indicates a status outside the closed set.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("Invalid status %q provided. Valid statuses are: %s.", e.Value, statusList())
}

// Is reports the validation category.
func (e *InvalidStatusError) Is(target error) bool { return target == apperr.ErrValidation }
