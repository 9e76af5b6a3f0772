package checkout

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrEmptyCart indicates the user has nothing to check out. The user can add
// items and retry.
var ErrEmptyCart = errors.New("cart is empty")

var (
	errNoPrice         = errors.New("product has no valid price")
	errNoTransactionID = errors.New("payment returned no transaction id")
	errNoTrackingID    = errors.New("shipping returned no tracking id")
)

// ProductLookupError indicates a cart line could not be priced, either
// because the product lookup failed or its price could not be converted.
type ProductLookupError struct {
	ProductID string
	Err       error
}

func (e *ProductLookupError) Error() string {
	return fmt.Sprintf("price product %s: %v", e.ProductID, e.Err)
}

func (e *ProductLookupError) Unwrap() error { return e.Err }

// ShippingUnavailableError indicates the shipping quote could not be
// obtained or localized. No payment has been captured at this point.
type ShippingUnavailableError struct {
	Err error
}

func (e *ShippingUnavailableError) Error() string {
	return fmt.Sprintf("shipping quote: %v", e.Err)
}

func (e *ShippingUnavailableError) Unwrap() error { return e.Err }

// ShippingFailedError indicates fulfillment failed after payment was already
// captured. TransactionID identifies the charge for reconciliation; there is
// no automatic refund.
type ShippingFailedError struct {
	TransactionID string
	Err           error
}

func (e *ShippingFailedError) Error() string {
	return fmt.Sprintf("ship order: %v", e.Err)
}

func (e *ShippingFailedError) Unwrap() error { return e.Err }

// PaymentError indicates the card charge was rejected or the payment
// collaborator failed.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("charge card: %v", e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }

// OrderPlacementError wraps any unexpected internal failure of a placement
// stage that has no more specific kind.
type OrderPlacementError struct {
	Stage string
	Err   error
}

func (e *OrderPlacementError) Error() string {
	return fmt.Sprintf("place order: %s: %v", e.Stage, e.Err)
}

func (e *OrderPlacementError) Unwrap() error { return e.Err }
