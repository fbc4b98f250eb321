package inventory

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/store-orders/internal/domain/apperr"
	"github.com/xenking/store-orders/internal/domain/ident"
	"github.com/xenking/store-orders/internal/domain/product"
)

// Catalog is the product lookup the inventory service needs.
type Catalog interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}

// Entry pairs a record with its product. Product is nil when the product no
// longer exists.
type Entry struct {
	Record
	Product *product.Product
}

// Service is the inbound boundary of the ledger: it validates requests and
// checks that products exist before writing.
type Service struct {
	ledger   Ledger
	products Catalog
	now      func() time.Time
}

// NewService creates an inventory Service.
func NewService(ledger Ledger, products Catalog) *Service {
	return &Service{ledger: ledger, products: products, now: time.Now}
}

// Quantity returns the stock of a product, or 0 when it has no record.
func (s *Service) Quantity(ctx context.Context, productID string) (int, error) {
	rec, err := s.ledger.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "get inventory for product %s", productID)
	}
	return rec.Quantity, nil
}

// InitStock creates the record for a freshly created product.
func (s *Service) InitStock(ctx context.Context, productID string, quantity, threshold int) error {
	if _, _, err := s.ledger.Set(ctx, productID, quantity, &threshold, s.now()); err != nil {
		return errors.Wrap(err, "set inventory")
	}
	return nil
}

// SetQuantity validates and writes the stock of an existing product,
// creating the record when absent.
func (s *Service) SetQuantity(ctx context.Context, productID string, quantity int, threshold *int) (*Entry, bool, error) {
	if quantity < 0 {
		return nil, false, apperr.Validation("Quantity is required and must be a non-negative integer.")
	}
	if threshold != nil && *threshold < 0 {
		return nil, false, apperr.Validation("low_stock_threshold must be a non-negative integer.")
	}

	p, err := s.product(ctx, productID)
	if err != nil {
		return nil, false, err
	}

	rec, created, err := s.ledger.Set(ctx, productID, quantity, threshold, s.now())
	if err != nil {
		return nil, false, errors.Wrapf(err, "set inventory for product %s", productID)
	}
	return &Entry{Record: *rec, Product: p}, created, nil
}

// Get returns the record of a product. A missing product and a product
// without a record are reported as distinct not-found errors.
func (s *Service) Get(ctx context.Context, productID string) (*Entry, error) {
	if !ident.Valid(productID) {
		return nil, apperr.NotFound("product", productID)
	}
	rec, err := s.ledger.Get(ctx, productID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, errors.Wrapf(err, "get inventory for product %s", productID)
		}
		if _, perr := s.product(ctx, productID); perr != nil {
			return nil, perr
		}
		return nil, apperr.NotFound("inventory record for product", productID)
	}

	p, err := s.product(ctx, productID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return &Entry{Record: *rec, Product: p}, nil
}

// List returns all records with their products. When lowStockOnly is set
// only records at or below their threshold are returned.
func (s *Service) List(ctx context.Context, lowStockOnly bool) ([]Entry, error) {
	records, err := s.ledger.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list inventory")
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		if lowStockOnly && !r.LowStock() {
			continue
		}
		ids = append(ids, r.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get inventory products")
	}
	byID := make(map[string]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	entries := make([]Entry, 0, len(ids))
	for _, r := range records {
		if lowStockOnly && !r.LowStock() {
			continue
		}
		entries = append(entries, Entry{Record: r, Product: byID[r.ProductID]})
	}
	return entries, nil
}

func (s *Service) product(ctx context.Context, id string) (*product.Product, error) {
	if !ident.Valid(id) {
		return nil, apperr.NotFound("product", id)
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, apperr.NotFound("product", id)
		}
		return nil, errors.Wrapf(err, "get product %s", id)
	}
	return p, nil
}
