// Package supplier manages the vendors that stock the store.
package supplier

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested supplier does not exist.
	ErrNotFound = errors.New("supplier not found")
	// ErrDuplicateEmail is returned when another supplier already uses the email.
	ErrDuplicateEmail = errors.New("email already exists")
)

// Supplier is a vendor of catalog products.
type Supplier struct {
	ID            string
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	CreatedAt     time.Time
}

// Repository defines persistence operations for suppliers.
type Repository interface {
	// List returns suppliers newest first.
	List(ctx context.Context) ([]Supplier, error)
	GetByID(ctx context.Context, id string) (*Supplier, error)
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
	Delete(ctx context.Context, id string) error
}
