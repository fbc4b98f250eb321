package supplier

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/store-orders/internal/domain/apperr"
	"github.com/xenking/store-orders/internal/domain/ident"
	"github.com/xenking/store-orders/internal/domain/validate"
)

// CreateInput holds the fields accepted when registering a supplier.
type CreateInput struct {
	Name          string `json:"name" validate:"required"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

// UpdateInput holds a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name          *string
	ContactPerson *string
	Email         *string
	Phone         *string
	Address       *string
}

// Service implements supplier management.
type Service struct {
	suppliers Repository
	validate  *validate.Validator
	now       func() time.Time
}

// NewService creates a supplier Service.
func NewService(suppliers Repository) *Service {
	return &Service{suppliers: suppliers, validate: validate.New(), now: time.Now}
}

// Create validates and stores a new supplier.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Supplier, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	sup := &Supplier{
		ID:            ident.New(),
		Name:          in.Name,
		ContactPerson: in.ContactPerson,
		Email:         in.Email,
		Phone:         in.Phone,
		Address:       in.Address,
		CreatedAt:     s.now(),
	}
	if err := s.suppliers.Create(ctx, sup); err != nil {
		return nil, mapError(err, sup.ID, "create supplier")
	}
	return sup, nil
}

// List returns suppliers newest first.
func (s *Service) List(ctx context.Context) ([]Supplier, error) {
	list, err := s.suppliers.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list suppliers")
	}
	return list, nil
}

// Get returns a single supplier.
func (s *Service) Get(ctx context.Context, id string) (*Supplier, error) {
	if !ident.Valid(id) {
		return nil, apperr.NotFound("supplier", id)
	}
	sup, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err, id, "get supplier")
	}
	return sup, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Supplier, error) {
	sup, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if sup.Name = strings.TrimSpace(*in.Name); sup.Name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := s.validate.Var("email", email, "required,email"); err != nil {
			return nil, err
		}
		sup.Email = email
	}
	if in.ContactPerson != nil {
		sup.ContactPerson = *in.ContactPerson
	}
	if in.Phone != nil {
		sup.Phone = *in.Phone
	}
	if in.Address != nil {
		sup.Address = *in.Address
	}

	if err := s.suppliers.Update(ctx, sup); err != nil {
		return nil, mapError(err, id, "update supplier")
	}
	return sup, nil
}

// Delete removes a supplier.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !ident.Valid(id) {
		return apperr.NotFound("supplier", id)
	}
	if err := s.suppliers.Delete(ctx, id); err != nil {
		return mapError(err, id, "delete supplier")
	}
	return nil
}

func mapError(err error, id, op string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("supplier", id)
	case errors.Is(err, ErrDuplicateEmail):
		return &apperr.DuplicateError{Field: "Email"}
	default:
		return errors.Wrap(err, op)
	}
}
