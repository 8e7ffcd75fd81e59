// Command seed-db loads the product catalog (and optional demo carts) into
// the database so the checkout service has stock to sell against.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rabbitstore/checkout/internal/repository"
)

const (
	upsertProductSQL = `INSERT INTO products (id, title, price, sale_price, total_stock)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			sale_price = EXCLUDED.sale_price,
			total_stock = EXCLUDED.total_stock`

	upsertCartSQL = `INSERT INTO carts (id, user_id, items)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			items = EXCLUDED.items`
)

type productJSON struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	SalePrice  decimal.Decimal `json:"sale_price"`
	TotalStock int             `json:"total_stock"`
}

type cartJSON struct {
	ID     string          `json:"id"`
	UserID string          `json:"user_id"`
	Items  json.RawMessage `json:"items"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		cartsFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&cartsFile, "carts-file", "", "optional path to demo carts JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, cartsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, cartsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if cartsFile != "" {
		if err := seedCarts(ctx, pool, cartsFile); err != nil {
			return errors.Wrap(err, "seed carts")
		}
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products file")
	}

	for _, p := range products {
		_, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Title, p.Price, p.SalePrice, p.TotalStock)
		if err != nil {
			return errors.Wrapf(err, "upsert product %q", p.ID)
		}
	}

	slog.Info("seeded products", slog.Int("count", len(products)))
	return nil
}

func seedCarts(ctx context.Context, pool *pgxpool.Pool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read carts file")
	}

	var carts []cartJSON
	if err := json.Unmarshal(data, &carts); err != nil {
		return errors.Wrap(err, "parse carts file")
	}

	for _, c := range carts {
		items := c.Items
		if len(items) == 0 {
			items = json.RawMessage(`[]`)
		}
		if _, err := pool.Exec(ctx, upsertCartSQL, c.ID, c.UserID, items); err != nil {
			return errors.Wrapf(err, "upsert cart %q", c.ID)
		}
	}

	slog.Info("seeded carts", slog.Int("count", len(carts)))
	return nil
}
