package client

import (
	"context"
	"net/http"

	"github.com/microshop/checkout/internal/checkout"
)

var _ checkout.Notification = (*EmailClient)(nil)

// EmailClient talks to the email service for order confirmations.
type EmailClient struct {
	base
}

// NewEmail creates an email client for the service at baseURL.
func NewEmail(baseURL string, hc *http.Client) *EmailClient {
	return &EmailClient{base: newBase("EmailService", baseURL, hc)}
}

type sendConfirmationRequest struct {
	Email string                `json:"email"`
	Order *checkout.OrderResult `json:"order"`
}

// SendOrderConfirmation asks the email service to deliver the confirmation.
func (c *EmailClient) SendOrderConfirmation(ctx context.Context, email string, order *checkout.OrderResult) error {
	return c.postJSON(ctx, "/send-confirmation", sendConfirmationRequest{Email: email, Order: order}, nil)
}
