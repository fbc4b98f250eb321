package product

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/store-orders/internal/domain/apperr"
	"github.com/xenking/store-orders/internal/domain/ident"
)

// DefaultLowStockThreshold is used when a product is created without an
// explicit threshold.
const DefaultLowStockThreshold = 10

// Stocker creates the inventory record that accompanies a new product.
type Stocker interface {
	InitStock(ctx context.Context, productID string, quantity, threshold int) error
}

// CreateInput holds the fields accepted when creating a product. Nil
// pointers mean the field was omitted.
type CreateInput struct {
	Name              string
	Description       string
	Price             *decimal.Decimal
	ImageURL          string
	Category          string
	InitialQuantity   *int
	LowStockThreshold *int
}

// UpdateInput holds a partial product update; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
	Category    *string
}

// Service implements catalog management on top of a Repository.
type Service struct {
	products Repository
	stock    Stocker
	now      func() time.Time
}

// NewService creates a catalog Service.
func NewService(products Repository, stock Stocker) *Service {
	return &Service{products: products, stock: stock, now: time.Now}
}

// Create validates the input, stores the product and creates its inventory
// record. The two writes are independent: when the inventory write fails the
// product stays and placement treats its stock as zero.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price == nil {
		return nil, apperr.Validation("Missing required fields: name and price")
	}
	if in.Price.IsNegative() {
		return nil, apperr.Validation("price must be a non-negative number")
	}

	quantity := 0
	if in.InitialQuantity != nil {
		quantity = *in.InitialQuantity
	}
	threshold := DefaultLowStockThreshold
	if in.LowStockThreshold != nil {
		threshold = *in.LowStockThreshold
	}
	if quantity < 0 || threshold < 0 {
		return nil, apperr.Validation("initial_quantity and low_stock_threshold must be non-negative integers")
	}

	now := s.now()
	p := &Product{
		ID:          ident.New(),
		Name:        name,
		Description: in.Description,
		Price:       *in.Price,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	if err := s.stock.InitStock(ctx, p.ID, quantity, threshold); err != nil {
		return nil, errors.Wrapf(err, "create inventory for product %s", p.ID)
	}
	return p, nil
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	if !ident.Valid(id) {
		return nil, apperr.NotFound("product", id)
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("product", id)
		}
		return nil, errors.Wrapf(err, "get product %s", id)
	}
	return p, nil
}

// Update applies a partial update and refreshes UpdatedAt.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		p.Name = name
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, apperr.Validation("price must be a non-negative number")
		}
		p.Price = *in.Price
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	p.UpdatedAt = s.now()

	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("product", id)
		}
		return nil, errors.Wrapf(err, "update product %s", id)
	}
	return p, nil
}

// Delete removes a product and its inventory record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !ident.Valid(id) {
		return apperr.NotFound("product", id)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("product", id)
		}
		return errors.Wrapf(err, "delete product %s", id)
	}
	return nil
}
