package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/store-orders/internal/domain/customer"
	"github.com/xenking/store-orders/internal/domain/inventory"
	"github.com/xenking/store-orders/internal/domain/order"
	"github.com/xenking/store-orders/internal/domain/product"
	"github.com/xenking/store-orders/internal/domain/supplier"
	"github.com/xenking/store-orders/internal/handler"
	"github.com/xenking/store-orders/internal/storage/memory"
	"github.com/xenking/store-orders/internal/storage/postgres"
	"github.com/xenking/store-orders/pkg/health"
	"github.com/xenking/store-orders/pkg/httpmiddleware"
)

// repositories is the storage backend the services are built on.
type repositories struct {
	products  product.Repository
	inventory inventory.Ledger
	orders    order.Repository
	customers customer.Repository
	suppliers supplier.Repository
	ping      health.Pinger
	close     func()
}

type nopPinger struct{}

func (nopPinger) Ping(context.Context) error { return nil }

func openRepositories(ctx context.Context, lg *zap.Logger, cfg *Config) (*repositories, error) {
	if cfg.Storage == StorageMemory {
		lg.Warn("Using in-memory storage, data is lost on exit")
		s := memory.New()
		return &repositories{
			products:  s.Products,
			inventory: s.Inventory,
			orders:    s.Orders,
			customers: s.Customers,
			suppliers: s.Suppliers,
			ping:      nopPinger{},
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return &repositories{
		products:  postgres.NewProductRepository(pool),
		inventory: postgres.NewInventoryRepository(pool),
		orders:    postgres.NewOrderRepository(pool),
		customers: postgres.NewCustomerRepository(pool),
		suppliers: postgres.NewSupplierRepository(pool),
		ping:      pool,
		close:     pool.Close,
	}, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("storage", cfg.Storage))

	repos, err := openRepositories(ctx, lg, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	healthSvc := health.New(lg.Named("health"))
	healthSvc.Register(health.Readiness, cfg.Storage, 5*time.Second, health.Ping(repos.ping))
	healthSvc.Register(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Register(health.Liveness, "gc_pause", time.Second, health.GCPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	apiHandler, err := newHandler(ctx, cfg, repos, healthSvc, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           apiHandler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newHandler builds the domain services on repos and returns the API mux
// wrapped in the middleware chain.
func newHandler(
	ctx context.Context,
	cfg *Config,
	repos *repositories,
	healthSvc *health.Service,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (http.Handler, error) {
	stock := inventory.NewService(repos.inventory, repos.products)
	orderService, err := order.NewService(repos.products, stock, repos.customers, repos.orders,
		order.WithTelemetry(tp, mp),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	h := handler.New(handler.Services{
		Orders:    orderService,
		Products:  product.NewService(repos.products, stock),
		Inventory: stock,
		Customers: customer.NewService(repos.customers),
		Suppliers: supplier.NewService(repos.suppliers),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveHandler)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyHandler)
	h.Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	return httpmiddleware.Wrap(mux,
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Rate:  cfg.RateLimit.Rate,
			Burst: cfg.RateLimit.Burst,
		}),
		httpmiddleware.Instrument("store-api", routeFinder, tp, mp),
		httpmiddleware.Labeler(routeFinder),
		httpmiddleware.LogRequests(routeFinder),
	), nil
}
