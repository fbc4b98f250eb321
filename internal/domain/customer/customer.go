// Package customer manages store customers.
package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested customer does not exist.
	ErrNotFound = errors.New("customer not found")
	// ErrDuplicateEmail is returned when another customer already uses the email.
	ErrDuplicateEmail = errors.New("email already exists")
)

// Customer is a person who places orders.
type Customer struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
}

// Repository defines persistence operations for customers.
type Repository interface {
	// List returns customers newest first.
	List(ctx context.Context) ([]Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByIDs(ctx context.Context, ids []string) ([]Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id string) error
}
