// Command seed-catalog loads products from a JSON file into the catalog
// database. Files ending in .gz are decompressed on the fly.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/microshop/checkout/internal/catalog"
)

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Picture     string          `json:"picture"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	Categories  []string        `json:"categories"`
}

type seedFile struct {
	Products []productJSON `json:"products"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file (.json or .json.gz)")
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

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("catalog seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	products, err := loadProducts(productsFile)
	if err != nil {
		return errors.Wrapf(err, "load products from %s", productsFile)
	}
	if len(products) == 0 {
		slog.Info("no products to seed")
		return nil
	}

	pool, err := catalog.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := catalog.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := catalog.NewPostgresRepository(pool)
	if err := repo.Upsert(ctx, products); err != nil {
		return errors.Wrap(err, "upsert products")
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func loadProducts(path string) ([]catalog.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var file seedFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}

	products := make([]catalog.Product, 0, len(file.Products))
	for _, p := range file.Products {
		if p.ID == "" {
			return nil, errors.New("product with empty id")
		}
		products = append(products, catalog.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Picture:     p.Picture,
			Price:       p.PriceUSD,
			Categories:  p.Categories,
		})
	}
	return products, nil
}
