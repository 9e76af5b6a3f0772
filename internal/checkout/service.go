package checkout

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/microshop/checkout/internal/money"
)

// DefaultCurrency is assumed for catalog prices that arrive without a
// currency code.
const DefaultCurrency = "USD"

const (
	defaultCallTimeout        = 5 * time.Second
	defaultPricingConcurrency = 4
)

// ServiceConfig tunes the orchestrator.
type ServiceConfig struct {
	// CallTimeout bounds every collaborator call.
	CallTimeout time.Duration
	// PricingConcurrency caps the number of cart lines priced in parallel.
	PricingConcurrency int
}

// Service places orders by sequencing the six collaborator ports. It holds
// no mutable state; one PlaceOrder call runs to completion independently of
// any other.
type Service struct {
	cart     Cart
	catalog  Catalog
	currency Currency
	shipping Shipping
	payment  Payment
	notifier Notification

	callTimeout time.Duration
	pricingJobs int
}

// NewService creates a checkout Service over the six collaborator ports.
func NewService(
	cfg ServiceConfig,
	cart Cart,
	catalog Catalog,
	currency Currency,
	shipping Shipping,
	payment Payment,
	notifier Notification,
) *Service {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.PricingConcurrency <= 0 {
		cfg.PricingConcurrency = defaultPricingConcurrency
	}
	return &Service{
		cart:        cart,
		catalog:     catalog,
		currency:    currency,
		shipping:    shipping,
		payment:     payment,
		notifier:    notifier,
		callTimeout: cfg.CallTimeout,
		pricingJobs: cfg.PricingConcurrency,
	}
}

// PlaceOrder loads the user's cart, prices it in the user's currency, quotes
// shipping, charges the card, ships, and returns the finished order.
//
// Failures before the payment step leave no side effects. A shipping failure
// after payment is surfaced as ShippingFailedError carrying the transaction
// id; the charge is not rolled back. Emptying the cart and sending the
// confirmation email are best-effort: their failures are logged and the
// order still succeeds.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResult, error) {
	lg := zctx.From(ctx)
	lg.Info("Placing order",
		zap.String("user_id", req.UserID),
		zap.String("currency", req.UserCurrency),
	)

	lines, err := s.loadCart(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	priced, err := s.priceLines(ctx, lines, req.UserCurrency)
	if err != nil {
		return nil, err
	}

	shippingCost, err := s.quoteShipping(ctx, req.Address, lines, req.UserCurrency)
	if err != nil {
		return nil, err
	}

	total, err := orderTotal(priced, shippingCost)
	if err != nil {
		return nil, &OrderPlacementError{Stage: "compute total", Err: err}
	}

	txID, err := s.chargeCard(ctx, total, req.CreditCard)
	if err != nil {
		return nil, err
	}

	trackingID, err := s.ship(ctx, req.Address, lines, txID)
	if err != nil {
		return nil, err
	}

	order := &OrderResult{
		OrderID:            uuid.New().String(),
		ShippingTrackingID: trackingID,
		ShippingCost:       shippingCost,
		ShippingAddress:    req.Address,
		Lines:              orderLines(priced),
	}

	lg.Info("Order placed",
		zap.String("order_id", order.OrderID),
		zap.String("tracking_id", trackingID),
		zap.String("total", total.Format()),
	)

	// Best-effort tail: neither failure blocks the order.
	if err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.cart.EmptyCart(ctx, req.UserID)
	}); err != nil {
		lg.Warn("Failed to empty cart", zap.String("user_id", req.UserID), zap.Error(err))
	}
	if err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.notifier.SendOrderConfirmation(ctx, req.Email, order)
	}); err != nil {
		lg.Warn("Failed to send order confirmation", zap.String("order_id", order.OrderID), zap.Error(err))
	}

	return order, nil
}

func (s *Service) loadCart(ctx context.Context, userID string) ([]CartLine, error) {
	var lines []CartLine
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		lines, err = s.cart.GetCart(ctx, userID)
		return err
	})
	if err != nil {
		return nil, &OrderPlacementError{Stage: "load cart", Err: err}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	return lines, nil
}

// priceLines resolves every cart line to a unit cost in the user's currency.
// Lines are priced concurrently; results land in indexed slots so the output
// keeps the cart order.
func (s *Service) priceLines(ctx context.Context, lines []CartLine, userCurrency string) ([]PricedLine, error) {
	priced := make([]PricedLine, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pricingJobs)

	for i, line := range lines {
		g.Go(func() error {
			cost, err := s.priceLine(gctx, line, userCurrency)
			if err != nil {
				return &ProductLookupError{ProductID: line.ProductID, Err: err}
			}
			priced[i] = PricedLine{Line: line, UnitCost: cost}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return priced, nil
}

func (s *Service) priceLine(ctx context.Context, line CartLine, userCurrency string) (money.Money, error) {
	var p *Product
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.catalog.GetProduct(ctx, line.ProductID)
		return err
	})
	if err != nil {
		return money.Money{}, err
	}

	price := p.PriceUSD
	if price.CurrencyCode == "" {
		zctx.From(ctx).Warn("Product price has no currency code",
			zap.String("product_id", line.ProductID),
		)
		price.CurrencyCode = DefaultCurrency
	}
	if !price.IsValid() {
		return money.Money{}, errNoPrice
	}

	var cost money.Money
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		cost, err = s.currency.Convert(ctx, price, userCurrency)
		return err
	})
	if err != nil {
		return money.Money{}, err
	}
	return cost, nil
}

func (s *Service) quoteShipping(ctx context.Context, addr Address, lines []CartLine, userCurrency string) (money.Money, error) {
	var quote money.Money
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		quote, err = s.shipping.GetQuote(ctx, addr, lines)
		return err
	})
	if err != nil {
		return money.Money{}, &ShippingUnavailableError{Err: err}
	}

	var localized money.Money
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		localized, err = s.currency.Convert(ctx, quote, userCurrency)
		return err
	})
	if err != nil {
		return money.Money{}, &ShippingUnavailableError{Err: err}
	}
	return localized, nil
}

// orderTotal sums the localized shipping cost with every line's unit cost
// times its quantity. All operands share the user's currency by then; a
// mismatch is an invariant violation surfaced to the caller as internal.
func orderTotal(priced []PricedLine, shippingCost money.Money) (money.Money, error) {
	total := shippingCost
	for _, pl := range priced {
		lineTotal, err := money.Multiply(pl.UnitCost, pl.Line.Quantity)
		if err != nil {
			return money.Money{}, err
		}
		total, err = money.Sum(total, lineTotal)
		if err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}

func (s *Service) chargeCard(ctx context.Context, total money.Money, card CreditCard) (string, error) {
	lg := zctx.From(ctx)
	lg.Info("Charging card",
		zap.Object("card", card),
		zap.String("amount", total.Format()),
	)

	var txID string
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		txID, err = s.payment.Charge(ctx, total, card)
		return err
	})
	if err != nil {
		return "", &PaymentError{Err: err}
	}
	if txID == "" {
		return "", &PaymentError{Err: errNoTransactionID}
	}

	lg.Info("Payment captured", zap.String("transaction_id", txID))
	return txID, nil
}

func (s *Service) ship(ctx context.Context, addr Address, lines []CartLine, txID string) (string, error) {
	var trackingID string
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		trackingID, err = s.shipping.Ship(ctx, addr, lines)
		return err
	})
	if err == nil && trackingID == "" {
		err = errNoTrackingID
	}
	if err != nil {
		// Payment is already captured; keep the transaction id visible for
		// manual reconciliation.
		zctx.From(ctx).Error("Shipping failed after payment capture",
			zap.String("transaction_id", txID),
			zap.Error(err),
		)
		return "", &ShippingFailedError{TransactionID: txID, Err: err}
	}
	return trackingID, nil
}

func (s *Service) withTimeout(ctx context.Context, call func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return call(ctx)
}

func orderLines(priced []PricedLine) []OrderLine {
	lines := make([]OrderLine, len(priced))
	for i, pl := range priced {
		lines[i] = OrderLine{Item: pl.Line, Cost: pl.UnitCost}
	}
	return lines
}
