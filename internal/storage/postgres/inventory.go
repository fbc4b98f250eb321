package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/store-orders/internal/domain/inventory"
)

const (
	inventoryColumns = `product_id, quantity, low_stock_threshold, last_stocked_date`

	getInventorySQL = `SELECT ` + inventoryColumns + ` FROM inventory WHERE product_id = $1`

	listInventorySQL = `SELECT ` + inventoryColumns + ` FROM inventory ORDER BY product_id`

	// (xmax = 0) is true only for a freshly inserted row.
	setInventorySQL = `INSERT INTO inventory (` + inventoryColumns + `)
		VALUES ($1, $2, COALESCE($3::integer, 10), $4)
		ON CONFLICT (product_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
			low_stock_threshold = COALESCE($3::integer, inventory.low_stock_threshold),
			last_stocked_date = EXCLUDED.last_stocked_date
		RETURNING ` + inventoryColumns + `, (xmax = 0)`
)

var _ inventory.Ledger = (*InventoryRepository)(nil)

// InventoryRepository implements inventory.Ledger backed by PostgreSQL.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository returns an InventoryRepository that uses the given pool.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// Get returns the inventory record of a product.
func (r *InventoryRepository) Get(ctx context.Context, productID string) (*inventory.Record, error) {
	rows, err := r.pool.Query(ctx, getInventorySQL, productID)
	if err != nil {
		return nil, fmt.Errorf("getting inventory %q: %w", productID, err)
	}

	rec, err := pgx.CollectExactlyOneRow(rows, scanInventory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrNotFound
		}
		return nil, fmt.Errorf("getting inventory %q: %w", productID, err)
	}
	return &rec, nil
}

// List returns every inventory record ordered by product id.
func (r *InventoryRepository) List(ctx context.Context) ([]inventory.Record, error) {
	rows, err := r.pool.Query(ctx, listInventorySQL)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	return pgx.CollectRows(rows, scanInventory)
}

// Set upserts the quantity of a product in a single statement.
func (r *InventoryRepository) Set(ctx context.Context, productID string, quantity int, threshold *int, at time.Time) (*inventory.Record, bool, error) {
	var (
		rec     inventory.Record
		created bool
	)
	err := r.pool.QueryRow(ctx, setInventorySQL, productID, quantity, threshold, at).Scan(
		&rec.ProductID, &rec.Quantity, &rec.LowStockThreshold, &rec.LastStockedDate, &created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("setting inventory %q: %w", productID, err)
	}
	return &rec, created, nil
}

func scanInventory(row pgx.CollectableRow) (inventory.Record, error) {
	var rec inventory.Record
	err := row.Scan(&rec.ProductID, &rec.Quantity, &rec.LowStockThreshold, &rec.LastStockedDate)
	return rec, err
}
