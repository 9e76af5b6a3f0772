// Package checkout implements order placement: it sequences the cart,
// catalog, currency, shipping, payment and notification collaborators into a
// single placed order, with exact money arithmetic throughout.
package checkout

import (
	"go.uber.org/zap/zapcore"

	"github.com/microshop/checkout/internal/money"
)

// CartLine is a single cart entry: a product and how many of it.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PricedLine is a cart line annotated with its unit cost converted into the
// buyer's currency. The list of priced lines mirrors the cart order.
type PricedLine struct {
	Line     CartLine
	UnitCost money.Money
}

// OrderLine is a cart line with its final unit cost as recorded on the order.
type OrderLine struct {
	Item CartLine    `json:"item"`
	Cost money.Money `json:"cost"`
}

// Address is a shipping address, passed through to the shipping collaborator
// unmodified.
type Address struct {
	Street     string `json:"street_address"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"zip_code"`
}

// CreditCard is an opaque payment credential. It is handed to the payment
// collaborator as-is and must never be logged in cleartext: both Stringer and
// the zap object marshaler render only the last four digits.
type CreditCard struct {
	Number          string `json:"number"`
	CVV             int    `json:"cvv"`
	ExpirationMonth int    `json:"expiration_month"`
	ExpirationYear  int    `json:"expiration_year"`
}

// LastFour returns the last four digits of the card number, or "****" when
// the number is too short to have any.
func (c CreditCard) LastFour() string {
	if len(c.Number) < 4 {
		return "****"
	}
	return c.Number[len(c.Number)-4:]
}

// String renders the card masked, keeping %v/%s formatting safe.
func (c CreditCard) String() string {
	return "****" + c.LastFour()
}

var _ zapcore.ObjectMarshaler = CreditCard{}

// MarshalLogObject logs the card masked.
func (c CreditCard) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("number", c.String())
	enc.AddInt("expiration_month", c.ExpirationMonth)
	enc.AddInt("expiration_year", c.ExpirationYear)
	return nil
}

// Product is a catalog item as served by the catalog collaborator.
type Product struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Picture     string      `json:"picture"`
	PriceUSD    money.Money `json:"price_usd"`
	Categories  []string    `json:"categories"`
}

// PlaceOrderRequest holds the caller-supplied input for one order placement.
// Cart lines are not part of the request; they are loaded from the cart
// collaborator.
type PlaceOrderRequest struct {
	UserID       string
	UserCurrency string
	Address      Address
	Email        string
	CreditCard   CreditCard
}

// OrderResult describes a successfully placed order. It is created exactly
// once per placement and returned to the caller as well as handed to the
// notification collaborator.
type OrderResult struct {
	OrderID            string      `json:"order_id"`
	ShippingTrackingID string      `json:"shipping_tracking_id"`
	ShippingCost       money.Money `json:"shipping_cost"`
	ShippingAddress    Address     `json:"shipping_address"`
	Lines              []OrderLine `json:"items"`
}
