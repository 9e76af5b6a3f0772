// Package catalog implements the product catalog service: a PostgreSQL-backed
// product store and the HTTP surface the checkout flow prices carts against.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a product id does not exist in the catalog.
var ErrNotFound = errors.New("product not found")

// Product is a catalog entry. Price is the exact USD price.
type Product struct {
	ID          string
	Name        string
	Description string
	Picture     string
	Price       decimal.Decimal
	Categories  []string
}

// Repository provides product persistence.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Upsert(ctx context.Context, products []Product) error
}
