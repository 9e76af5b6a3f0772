package client

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/microshop/checkout/internal/checkout"
)

var _ checkout.Catalog = (*CatalogClient)(nil)

// CatalogClient talks to the product catalog service.
type CatalogClient struct {
	base
}

// NewCatalog creates a catalog client for the service at baseURL.
func NewCatalog(baseURL string, hc *http.Client) *CatalogClient {
	return &CatalogClient{base: newBase("ProductCatalogService", baseURL, hc)}
}

// GetProduct fetches one product with its USD price. An unknown id maps to
// checkout.ErrProductNotFound.
func (c *CatalogClient) GetProduct(ctx context.Context, id string) (*checkout.Product, error) {
	var p checkout.Product
	if err := c.getJSON(ctx, "/products/"+id, nil, &p); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			return nil, errors.Wrapf(checkout.ErrProductNotFound, "product %s", id)
		}
		return nil, err
	}
	return &p, nil
}
