package postgres

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/order"
)

const (
	orderColumns = `id, customer_id, items, total_amount, status, shipping_address, billing_address, order_date`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// The WHERE guard makes the decrement conditional, so two concurrent
	// commits cannot both take the last unit.
	reserveStockSQL = `UPDATE inventory
		SET quantity = quantity - $2, last_stocked_date = $3
		WHERE product_id = $1 AND quantity >= $2`

	stockQuantitySQL = `SELECT quantity FROM inventory WHERE product_id = $1`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY order_date DESC, id`

	setOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order and decrements stock for every reservation in
// one transaction. The order items are serialized to JSON for storage in the
// JSONB column. Reservations are applied in product id order so concurrent
// commits lock inventory rows in the same sequence.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, reservations []inventory.Reservation) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, createOrderSQL,
			o.ID, nullString(o.CustomerID), itemsJSON, o.TotalAmount, string(o.Status),
			o.ShippingAddress, o.BillingAddress, o.OrderDate,
		)
		if err != nil {
			return fmt.Errorf("creating order %q: %w", o.ID, err)
		}

		for _, res := range mergeReservations(reservations) {
			tag, err := tx.Exec(ctx, reserveStockSQL, res.ProductID, res.Quantity, o.OrderDate)
			if err != nil {
				return fmt.Errorf("reserving stock for product %q: %w", res.ProductID, err)
			}
			if tag.RowsAffected() == 1 {
				continue
			}

			available := 0
			err = tx.QueryRow(ctx, stockQuantitySQL, res.ProductID).Scan(&available)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("reading stock for product %q: %w", res.ProductID, err)
			}
			return &inventory.StockConflictError{
				ProductID: res.ProductID,
				Requested: res.Quantity,
				Available: available,
			}
		}
		return nil
	})
}

// Get returns a single order.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns all orders newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// SetStatus updates only the status column of an order.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, setOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("setting status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// mergeReservations sums reservations per product, sorted by product id.
func mergeReservations(reservations []inventory.Reservation) []inventory.Reservation {
	merged := make([]inventory.Reservation, 0, len(reservations))
	index := make(map[string]int, len(reservations))
	for _, res := range reservations {
		if i, ok := index[res.ProductID]; ok {
			merged[i].Quantity += res.Quantity
			continue
		}
		index[res.ProductID] = len(merged)
		merged = append(merged, res)
	}
	slices.SortFunc(merged, func(a, b inventory.Reservation) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return merged
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o          order.Order
		customerID *string
		items      []byte
		status     string
	)
	err := row.Scan(
		&o.ID, &customerID, &items, &o.TotalAmount, &status,
		&o.ShippingAddress, &o.BillingAddress, &o.OrderDate,
	)
	if err != nil {
		return o, err
	}
	if customerID != nil {
		o.CustomerID = *customerID
	}
	o.Status = order.Status(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items of order %q: %w", o.ID, err)
	}
	return o, nil
}
