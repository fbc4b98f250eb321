package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/store-orders/internal/domain/apperr"
	"github.com/xenking/store-orders/internal/domain/customer"
	"github.com/xenking/store-orders/internal/domain/ident"
	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/product"
)

const instrumentationName = "github.com/xenking/store-orders/internal/domain/order"

// StockReader reports the available quantity of a product, 0 when the
// product has no inventory record.
type StockReader interface {
	Quantity(ctx context.Context, productID string) (int, error)
}

// OrderItem is one requested line of a placement.
type OrderItem struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	CustomerID      string
	Items           []OrderItem
	ShippingAddress string
	// BillingAddress defaults to ShippingAddress when empty.
	BillingAddress string
}

// Option configures a Service.
type Option func(*Service)

// WithTelemetry sets the tracer and meter providers. Without it the service
// records nothing.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Option {
	return func(s *Service) {
		s.tracerProvider = tp
		s.meterProvider = mp
	}
}

// WithClock overrides the time source used for order dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service encapsulates order placement and status business logic.
type Service struct {
	products  product.Repository
	stock     StockReader
	customers customer.Repository
	orders    Repository
	now       func() time.Time

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	placed         metric.Int64Counter
	rejected       metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	stock StockReader,
	customers customer.Repository,
	orders Repository,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		products:       products,
		stock:          stock,
		customers:      customers,
		orders:         orders,
		now:            time.Now,
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	for _, o := range opts {
		o(s)
	}

	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	if s.placed, err = meter.Int64Counter("store.orders.placed",
		metric.WithDescription("Orders committed"),
	); err != nil {
		return nil, errors.Wrap(err, "create placed counter")
	}
	if s.rejected, err = meter.Int64Counter("store.orders.rejected",
		metric.WithDescription("Order placements rejected, by reason"),
	); err != nil {
		return nil, errors.Wrap(err, "create rejected counter")
	}
	return s, nil
}

// PlaceOrder validates every item, checks stock, snapshots prices and
// commits the order together with all inventory decrements. Nothing is
// written unless every item passes.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (_ *Details, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder",
		trace.WithAttributes(attribute.Int("order.items", len(req.Items))),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
			s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", rejectReason(rerr))))
		}
		span.End()
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var cust *customer.Customer
	if req.CustomerID != "" {
		c, err := s.customer(ctx, req.CustomerID)
		if err != nil {
			return nil, err
		}
		cust = c
	}

	// Validate all items against the catalog and current stock before any
	// write. Repeated products are checked against their combined quantity.
	var (
		lines        = make([]LineItem, 0, len(req.Items))
		products     = make([]*product.Product, 0, len(req.Items))
		reservations = make([]inventory.Reservation, 0, len(req.Items))
		requested    = make(map[string]int, len(req.Items))
		total        = decimal.Zero
	)
	for _, item := range req.Items {
		p, err := s.product(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		available, err := s.stock.Quantity(ctx, p.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "get stock for product %s", p.ID)
		}
		want := requested[p.ID] + item.Quantity
		if want > available {
			return nil, &InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   want,
				Available:   available,
			}
		}
		requested[p.ID] = want

		line := LineItem{
			ProductID:    p.ID,
			Quantity:     item.Quantity,
			PricePerUnit: p.Price,
		}
		total = total.Add(line.Subtotal())
		lines = append(lines, line)
		products = append(products, p)
		reservations = append(reservations, inventory.Reservation{
			ProductID: p.ID,
			Quantity:  item.Quantity,
		})
	}

	billing := req.BillingAddress
	if strings.TrimSpace(billing) == "" {
		billing = req.ShippingAddress
	}

	o := &Order{
		ID:              ident.New(),
		CustomerID:      req.CustomerID,
		Items:           lines,
		TotalAmount:     total,
		Status:          StatusPending,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		OrderDate:       s.now(),
	}
	span.SetAttributes(attribute.String("order.id", o.ID))

	if err := s.orders.Create(ctx, o, reservations); err != nil {
		var conflict *inventory.StockConflictError
		if errors.As(err, &conflict) {
			// Stock moved between validation and commit; nothing was written.
			zctx.From(ctx).Info("Order lost stock race",
				zap.String("order_id", o.ID),
				zap.String("product_id", conflict.ProductID),
			)
			return nil, &InsufficientStockError{
				ProductID:   conflict.ProductID,
				ProductName: nameOf(products, conflict.ProductID),
				Requested:   conflict.Requested,
				Available:   conflict.Available,
			}
		}
		zctx.From(ctx).Error("Order commit failed",
			zap.String("order_id", o.ID),
			zap.Int("items", len(o.Items)),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "create order")
	}

	s.placed.Add(ctx, 1)
	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.Stringer("total", o.TotalAmount),
		zap.Int("items", len(o.Items)),
	)

	return &Details{Order: o, Products: products, Customer: cust}, nil
}

// UpdateStatus sets the status of an existing order. Any valid status may be
// set from any other. Cancelling does not return stock to inventory.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (_ *Details, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.UpdateStatus",
		trace.WithAttributes(attribute.String("order.id", id)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	o, err := s.order(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetStatus(ctx, id, st); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, errors.Wrapf(err, "set status of order %s", id)
	}

	lg := zctx.From(ctx).With(zap.String("order_id", id))
	lg.Info("Order status updated",
		zap.String("from", string(o.Status)),
		zap.String("to", string(st)),
	)
	if st == StatusCancelled && o.Status != StatusCancelled {
		lg.Info("Order cancelled without restocking inventory")
	}
	o.Status = st

	details, err := s.expand(ctx, []Order{*o})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// Get returns a single order with its references resolved.
func (s *Service) Get(ctx context.Context, id string) (*Details, error) {
	o, err := s.order(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.expand(ctx, []Order{*o})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// List returns all orders newest first with their references resolved.
func (s *Service) List(ctx context.Context) ([]Details, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return s.expand(ctx, orders)
}

// expand resolves products and customers of orders with one batch lookup
// each.
func (s *Service) expand(ctx context.Context, orders []Order) ([]Details, error) {
	var productIDs, customerIDs []string
	seenP := make(map[string]struct{})
	seenC := make(map[string]struct{})
	for _, o := range orders {
		for _, li := range o.Items {
			if _, ok := seenP[li.ProductID]; !ok {
				seenP[li.ProductID] = struct{}{}
				productIDs = append(productIDs, li.ProductID)
			}
		}
		if o.CustomerID != "" {
			if _, ok := seenC[o.CustomerID]; !ok {
				seenC[o.CustomerID] = struct{}{}
				customerIDs = append(customerIDs, o.CustomerID)
			}
		}
	}

	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, errors.Wrap(err, "get order products")
	}
	productMap := make(map[string]*product.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	customerMap := make(map[string]*customer.Customer, len(customerIDs))
	if len(customerIDs) > 0 {
		customers, err := s.customers.GetByIDs(ctx, customerIDs)
		if err != nil {
			return nil, errors.Wrap(err, "get order customers")
		}
		for i := range customers {
			customerMap[customers[i].ID] = &customers[i]
		}
	}

	details := make([]Details, len(orders))
	for i := range orders {
		o := &orders[i]
		lineProducts := make([]*product.Product, len(o.Items))
		for j, li := range o.Items {
			lineProducts[j] = productMap[li.ProductID]
		}
		details[i] = Details{
			Order:    o,
			Products: lineProducts,
			Customer: customerMap[o.CustomerID],
		}
	}
	return details, nil
}

func (s *Service) order(ctx context.Context, id string) (*Order, error) {
	if !ident.Valid(id) {
		return nil, apperr.NotFound("order", id)
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return o, nil
}

func (s *Service) product(ctx context.Context, id string) (*product.Product, error) {
	if !ident.Valid(id) {
		return nil, &ProductNotFoundError{ProductID: id}
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, &ProductNotFoundError{ProductID: id}
		}
		return nil, errors.Wrapf(err, "get product %s", id)
	}
	return p, nil
}

func (s *Service) customer(ctx context.Context, id string) (*customer.Customer, error) {
	if !ident.Valid(id) {
		return nil, apperr.NotFound("customer", id)
	}
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, apperr.NotFound("customer", id)
		}
		return nil, errors.Wrapf(err, "get customer %s", id)
	}
	return c, nil
}

// validateRequest performs the structural checks, in order, failing on the
// first violation.
func validateRequest(req PlaceOrderRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return ErrMissingShipping
	}
	for i, item := range req.Items {
		if item.ProductID == "" {
			return &InvalidItemError{Index: i}
		}
		if item.Quantity < 1 {
			return &InvalidItemError{Index: i, ProductID: item.ProductID}
		}
	}
	return nil
}

func nameOf(products []*product.Product, id string) string {
	for _, p := range products {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return "validation"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrConflict):
		return "insufficient_stock"
	default:
		return "internal"
	}
}
