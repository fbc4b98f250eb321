package customer

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/store-orders/internal/domain/apperr"
	"github.com/xenking/store-orders/internal/domain/ident"
	"github.com/xenking/store-orders/internal/domain/validate"
)

// CreateInput holds the fields accepted when registering a customer.
type CreateInput struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// UpdateInput holds a partial update; nil fields are left unchanged.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Address   *string
}

// Service implements customer management.
type Service struct {
	customers Repository
	validate  *validate.Validator
	now       func() time.Time
}

// NewService creates a customer Service.
func NewService(customers Repository) *Service {
	return &Service{customers: customers, validate: validate.New(), now: time.Now}
}

// Create validates and stores a new customer. Emails are stored trimmed and
// lower-cased.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Customer, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	c := &Customer{
		ID:        ident.New(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		CreatedAt: s.now(),
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, mapError(err, c.ID, "create customer")
	}
	return c, nil
}

// List returns customers newest first.
func (s *Service) List(ctx context.Context) ([]Customer, error) {
	list, err := s.customers.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list customers")
	}
	return list, nil
}

// Get returns a single customer.
func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	if !ident.Valid(id) {
		return nil, apperr.NotFound("customer", id)
	}
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err, id, "get customer")
	}
	return c, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		if c.FirstName = strings.TrimSpace(*in.FirstName); c.FirstName == "" {
			return nil, apperr.Validation("first_name must not be empty")
		}
	}
	if in.LastName != nil {
		if c.LastName = strings.TrimSpace(*in.LastName); c.LastName == "" {
			return nil, apperr.Validation("last_name must not be empty")
		}
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if err := s.validate.Var("email", email, "required,email"); err != nil {
			return nil, err
		}
		c.Email = email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}

	if err := s.customers.Update(ctx, c); err != nil {
		return nil, mapError(err, id, "update customer")
	}
	return c, nil
}

// Delete removes a customer. Orders keep their reference cleared.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !ident.Valid(id) {
		return apperr.NotFound("customer", id)
	}
	if err := s.customers.Delete(ctx, id); err != nil {
		return mapError(err, id, "delete customer")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapError(err error, id, op string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("customer", id)
	case errors.Is(err, ErrDuplicateEmail):
		return &apperr.DuplicateError{Field: "Email"}
	default:
		return errors.Wrap(err, op)
	}
}
