package client

import (
	"context"
	"net/http"

	"github.com/microshop/checkout/internal/checkout"
)

var _ checkout.Cart = (*CartClient)(nil)

// CartClient talks to the cart service. Carts are addressed by user id:
// GET /{userId} returns the cart, DELETE /{userId} empties it.
type CartClient struct {
	base
}

// NewCart creates a cart client for the service at baseURL.
func NewCart(baseURL string, hc *http.Client) *CartClient {
	return &CartClient{base: newBase("CartService", baseURL, hc)}
}

type getCartResponse struct {
	UserID string              `json:"user_id"`
	Items  []checkout.CartLine `json:"items"`
}

// GetCart returns the user's cart lines in cart order.
func (c *CartClient) GetCart(ctx context.Context, userID string) ([]checkout.CartLine, error) {
	var resp getCartResponse
	if err := c.getJSON(ctx, "/"+userID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// EmptyCart removes every line from the user's cart.
func (c *CartClient) EmptyCart(ctx context.Context, userID string) error {
	return c.delete(ctx, "/"+userID)
}
