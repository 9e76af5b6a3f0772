package client

import (
	"context"
	"net/http"

	"github.com/microshop/checkout/internal/checkout"
	"github.com/microshop/checkout/internal/money"
)

var _ checkout.Shipping = (*ShippingClient)(nil)

// ShippingClient talks to the shipping service for quotes and fulfillment.
type ShippingClient struct {
	base
}

// NewShipping creates a shipping client for the service at baseURL.
func NewShipping(baseURL string, hc *http.Client) *ShippingClient {
	return &ShippingClient{base: newBase("ShippingService", baseURL, hc)}
}

type shipmentRequest struct {
	Address checkout.Address    `json:"address"`
	Items   []checkout.CartLine `json:"items"`
}

type getQuoteResponse struct {
	CostUSD money.Money `json:"cost_usd"`
}

type shipOrderResponse struct {
	TrackingID string `json:"tracking_id"`
}

// GetQuote returns the shipping cost in USD for the given lines.
func (c *ShippingClient) GetQuote(ctx context.Context, addr checkout.Address, lines []checkout.CartLine) (money.Money, error) {
	var resp getQuoteResponse
	err := c.postJSON(ctx, "/quote", shipmentRequest{Address: addr, Items: lines}, &resp)
	if err != nil {
		return money.Money{}, err
	}
	return resp.CostUSD, nil
}

// Ship dispatches the shipment and returns the carrier tracking id.
func (c *ShippingClient) Ship(ctx context.Context, addr checkout.Address, lines []checkout.CartLine) (string, error) {
	var resp shipOrderResponse
	err := c.postJSON(ctx, "/ship", shipmentRequest{Address: addr, Items: lines}, &resp)
	if err != nil {
		return "", err
	}
	return resp.TrackingID, nil
}
