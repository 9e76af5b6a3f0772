package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/microshop/checkout/internal/checkout"
	"github.com/microshop/checkout/internal/money"
)

var _ checkout.Currency = (*CurrencyClient)(nil)

// CurrencyClient talks to the currency conversion service. Conversion to the
// amount's own currency short-circuits without a network call.
type CurrencyClient struct {
	base
}

// NewCurrency creates a currency client for the service at baseURL.
func NewCurrency(baseURL string, hc *http.Client) *CurrencyClient {
	return &CurrencyClient{base: newBase("CurrencyService", baseURL, hc)}
}

// Convert converts amount into toCode via GET /convert.
func (c *CurrencyClient) Convert(ctx context.Context, amount money.Money, toCode string) (money.Money, error) {
	if amount.CurrencyCode == toCode {
		return amount, nil
	}

	query := url.Values{
		"from_currency": {amount.CurrencyCode},
		"from_units":    {strconv.FormatInt(amount.Units, 10)},
		"from_nanos":    {strconv.FormatInt(int64(amount.Nanos), 10)},
		"to_code":       {toCode},
	}

	var converted money.Money
	if err := c.getJSON(ctx, "/convert", query, &converted); err != nil {
		return money.Money{}, err
	}
	return converted, nil
}
