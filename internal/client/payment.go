package client

import (
	"context"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/microshop/checkout/internal/checkout"
	"github.com/microshop/checkout/internal/money"
)

var _ checkout.Payment = (*PaymentClient)(nil)

// PaymentClient talks to the payment service. Card numbers appear in logs
// only masked to the last four digits.
type PaymentClient struct {
	base
}

// NewPayment creates a payment client for the service at baseURL.
func NewPayment(baseURL string, hc *http.Client) *PaymentClient {
	return &PaymentClient{base: newBase("PaymentService", baseURL, hc)}
}

type chargeRequest struct {
	Amount     money.Money         `json:"amount"`
	CreditCard checkout.CreditCard `json:"credit_card"`
}

type chargeResponse struct {
	TransactionID string `json:"transaction_id"`
}

// Charge captures amount on the card and returns the transaction id.
func (c *PaymentClient) Charge(ctx context.Context, amount money.Money, card checkout.CreditCard) (string, error) {
	var resp chargeResponse
	err := c.postJSON(ctx, "/charge", chargeRequest{Amount: amount, CreditCard: card}, &resp)
	if err != nil {
		zctx.From(ctx).Error("Charge failed",
			zap.Object("card", card),
			zap.Error(err),
		)
		return "", err
	}
	return resp.TransactionID, nil
}
