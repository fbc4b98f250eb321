package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/store-orders/internal/domain/supplier"
)

const (
	supplierColumns = `id, name, contact_person, email, phone, address, created_at`

	listSuppliersSQL = `SELECT ` + supplierColumns + ` FROM suppliers ORDER BY created_at DESC, id`

	getSupplierSQL = `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1`

	createSupplierSQL = `INSERT INTO suppliers (` + supplierColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updateSupplierSQL = `UPDATE suppliers
		SET name = $2, contact_person = $3, email = $4, phone = $5, address = $6
		WHERE id = $1`

	deleteSupplierSQL = `DELETE FROM suppliers WHERE id = $1`
)

var _ supplier.Repository = (*SupplierRepository)(nil)

// SupplierRepository implements supplier.Repository backed by PostgreSQL.
type SupplierRepository struct {
	pool *pgxpool.Pool
}

// NewSupplierRepository returns a SupplierRepository that uses the given pool.
func NewSupplierRepository(pool *pgxpool.Pool) *SupplierRepository {
	return &SupplierRepository{pool: pool}
}

func (r *SupplierRepository) List(ctx context.Context) ([]supplier.Supplier, error) {
	rows, err := r.pool.Query(ctx, listSuppliersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", err)
	}
	return pgx.CollectRows(rows, scanSupplier)
}

func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*supplier.Supplier, error) {
	rows, err := r.pool.Query(ctx, getSupplierSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting supplier %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanSupplier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, supplier.ErrNotFound
		}
		return nil, fmt.Errorf("getting supplier %q: %w", id, err)
	}
	return &s, nil
}

func (r *SupplierRepository) Create(ctx context.Context, s *supplier.Supplier) error {
	_, err := r.pool.Exec(ctx, createSupplierSQL,
		s.ID, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return supplier.ErrDuplicateEmail
		}
		return fmt.Errorf("creating supplier %q: %w", s.ID, err)
	}
	return nil
}

func (r *SupplierRepository) Update(ctx context.Context, s *supplier.Supplier) error {
	tag, err := r.pool.Exec(ctx, updateSupplierSQL,
		s.ID, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return supplier.ErrDuplicateEmail
		}
		return fmt.Errorf("updating supplier %q: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return supplier.ErrNotFound
	}
	return nil
}

func (r *SupplierRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteSupplierSQL, id)
	if err != nil {
		return fmt.Errorf("deleting supplier %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return supplier.ErrNotFound
	}
	return nil
}

func scanSupplier(row pgx.CollectableRow) (supplier.Supplier, error) {
	var s supplier.Supplier
	err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone, &s.Address, &s.CreatedAt)
	return s, err
}
