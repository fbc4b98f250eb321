// Package inventory holds the per-product stock ledger.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/store-orders/internal/domain/apperr"
)

// DefaultLowStockThreshold applies to records created without a threshold.
const DefaultLowStockThreshold = 10

// ErrNotFound is returned when a product has no inventory record.
var ErrNotFound = errors.New("inventory record not found")

// Record is the stock state of a single product.
type Record struct {
	ProductID         string
	Quantity          int
	LowStockThreshold int
	LastStockedDate   time.Time
}

// LowStock reports whether the record needs restocking attention.
func (r Record) LowStock() bool {
	return r.Quantity <= r.LowStockThreshold
}

// Reservation is a staged decrement of one product's stock, produced by the
// validation pass of order placement and applied at commit.
type Reservation struct {
	ProductID string
	Quantity  int
}

// StockConflictError is returned by a commit when a reservation would drive
// stock below zero. It means another writer consumed the stock between
// validation and commit.
type StockConflictError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Is reports the conflict category.
func (e *StockConflictError) Is(target error) bool { return target == apperr.ErrConflict }

// Ledger defines persistence operations for inventory records.
//
// The ledger does not validate quantities; callers are expected to pass
// non-negative values.
type Ledger interface {
	Get(ctx context.Context, productID string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	// Set writes quantity and refreshes LastStockedDate to at. A nil
	// threshold keeps the stored one, or DefaultLowStockThreshold when the
	// record is created. created reports whether the record was absent.
	Set(ctx context.Context, productID string, quantity int, threshold *int, at time.Time) (rec *Record, created bool, err error)
}
