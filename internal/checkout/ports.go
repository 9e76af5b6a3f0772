package checkout

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/microshop/checkout/internal/money"
)

// ErrProductNotFound is returned by Catalog implementations when the
// requested product id is unknown.
var ErrProductNotFound = errors.New("product not found")

// Cart provides the buyer's current cart.
type Cart interface {
	// GetCart returns the user's cart lines in cart order.
	GetCart(ctx context.Context, userID string) ([]CartLine, error)
	// EmptyCart removes all lines from the user's cart.
	EmptyCart(ctx context.Context, userID string) error
}

// Catalog looks up products and their USD prices.
type Catalog interface {
	// GetProduct returns the product for id, or ErrProductNotFound.
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// Currency converts money between currencies. Conversion to the amount's own
// currency is the identity.
type Currency interface {
	Convert(ctx context.Context, amount money.Money, toCode string) (money.Money, error)
}

// Shipping quotes and fulfills shipments.
type Shipping interface {
	// GetQuote returns the shipping cost in USD for the given lines.
	GetQuote(ctx context.Context, addr Address, lines []CartLine) (money.Money, error)
	// Ship dispatches the shipment and returns a tracking id.
	Ship(ctx context.Context, addr Address, lines []CartLine) (string, error)
}

// Payment captures card charges.
type Payment interface {
	// Charge captures amount on the card and returns a transaction id.
	Charge(ctx context.Context, amount money.Money, card CreditCard) (string, error)
}

// Notification delivers order confirmations.
type Notification interface {
	SendOrderConfirmation(ctx context.Context, email string, order *OrderResult) error
}
