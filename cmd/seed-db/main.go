package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/store-orders/db"
	"github.com/xenking/store-orders/internal/domain/ident"
	"github.com/xenking/store-orders/internal/domain/product"
	"github.com/xenking/store-orders/internal/storage/postgres"
)

const (
	upsertProductSQL = `INSERT INTO products (id, name, description, price, image_url, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description, price = EXCLUDED.price,
			image_url = EXCLUDED.image_url, category = EXCLUDED.category, updated_at = EXCLUDED.updated_at`

	upsertCustomerSQL = `INSERT INTO customers (id, first_name, last_name, email, phone, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, email = EXCLUDED.email,
			phone = EXCLUDED.phone, address = EXCLUDED.address`

	upsertSupplierSQL = `INSERT INTO suppliers (id, name, contact_person, email, phone, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, contact_person = EXCLUDED.contact_person, email = EXCLUDED.email,
			phone = EXCLUDED.phone, address = EXCLUDED.address`
)

type seedProduct struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	ImageURL          string          `json:"image_url"`
	Category          string          `json:"category"`
	Quantity          int             `json:"quantity"`
	LowStockThreshold *int            `json:"low_stock_threshold"`
}

type seedCustomer struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type seedSupplier struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

type seedData struct {
	Products  []seedProduct  `json:"products"`
	Customers []seedCustomer `json:"customers"`
	Suppliers []seedSupplier `json:"suppliers"`
}

func main() {
	var (
		databaseURL string
		seedFile    string
		concurrency int
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedFile, "seed-file", "", "path to a JSON or gzipped JSON seed file (embedded default when empty)")
	flag.IntVar(&concurrency, "concurrency", 4, "number of concurrent upserts")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		data, err := loadSeed(seedFile)
		if err != nil {
			return err
		}
		if err := run(ctx, lg, databaseURL, data, concurrency); err != nil {
			return errors.Wrap(err, "seed")
		}
		lg.Info("Seed completed")
		return nil
	})
}

// loadSeed reads path, or the embedded seed when path is empty.
func loadSeed(path string) (*seedData, error) {
	if path == "" {
		return parseSeed(bytes.NewReader(db.Seed))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open seed file")
	}
	defer f.Close()
	return parseSeed(f)
}

// parseSeed decodes and validates seed data. Gzip input is detected by its
// magic bytes.
func parseSeed(r io.Reader) (*seedData, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := pgzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer zr.Close()
		r = zr
	} else {
		r = br
	}

	var data seedData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "parse seed JSON")
	}
	if err := data.validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

func (d *seedData) validate() error {
	for i, p := range d.Products {
		switch {
		case !ident.Valid(p.ID):
			return errors.Errorf("product %d: invalid id %q", i, p.ID)
		case strings.TrimSpace(p.Name) == "":
			return errors.Errorf("product %s: name is required", p.ID)
		case p.Price.IsNegative():
			return errors.Errorf("product %s: negative price", p.ID)
		case p.Quantity < 0 || (p.LowStockThreshold != nil && *p.LowStockThreshold < 0):
			return errors.Errorf("product %s: negative stock", p.ID)
		}
	}
	for i, c := range d.Customers {
		if !ident.Valid(c.ID) || c.Email == "" {
			return errors.Errorf("customer %d: id and email are required", i)
		}
	}
	for i, s := range d.Suppliers {
		if !ident.Valid(s.ID) || s.Email == "" {
			return errors.Errorf("supplier %d: id and email are required", i)
		}
	}
	return nil
}

func run(ctx context.Context, lg *zap.Logger, databaseURL string, data *seedData, concurrency int) error {
	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	now := time.Now()
	stock := postgres.NewInventoryRepository(pool)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, p := range data.Products {
		g.Go(func() error {
			if _, err := pool.Exec(gctx, upsertProductSQL,
				p.ID, strings.TrimSpace(p.Name), p.Description, p.Price, p.ImageURL, p.Category, now,
			); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.ID)
			}
			threshold := product.DefaultLowStockThreshold
			if p.LowStockThreshold != nil {
				threshold = *p.LowStockThreshold
			}
			if _, _, err := stock.Set(gctx, p.ID, p.Quantity, &threshold, now); err != nil {
				return errors.Wrapf(err, "set stock of product %s", p.ID)
			}
			lg.Debug("Upserted product", zap.String("id", p.ID), zap.String("name", p.Name), zap.Int("quantity", p.Quantity))
			return nil
		})
	}
	for _, c := range data.Customers {
		g.Go(func() error {
			return upsert(gctx, pool, upsertCustomerSQL, "customer", c.ID,
				c.FirstName, c.LastName, strings.ToLower(strings.TrimSpace(c.Email)), c.Phone, c.Address, now)
		})
	}
	for _, s := range data.Suppliers {
		g.Go(func() error {
			return upsert(gctx, pool, upsertSupplierSQL, "supplier", s.ID,
				s.Name, s.ContactPerson, strings.ToLower(strings.TrimSpace(s.Email)), s.Phone, s.Address, now)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	lg.Info("Upserted seed data",
		zap.Int("products", len(data.Products)),
		zap.Int("customers", len(data.Customers)),
		zap.Int("suppliers", len(data.Suppliers)),
	)
	return nil
}

func upsert(ctx context.Context, pool *pgxpool.Pool, sql, kind, id string, args ...any) error {
	if _, err := pool.Exec(ctx, sql, append([]any{id}, args...)...); err != nil {
		return errors.Wrapf(err, "upsert %s %s", kind, id)
	}
	return nil
}
