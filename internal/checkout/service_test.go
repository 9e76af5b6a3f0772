package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microshop/checkout/internal/money"
)

// --- Mock ports ---

type mockCart struct {
	mu         sync.Mutex
	lines      []CartLine
	getErr     error
	emptyErr   error
	getCalls   int
	emptyCalls int
}

func (m *mockCart) GetCart(_ context.Context, _ string) ([]CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.lines, nil
}

func (m *mockCart) EmptyCart(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emptyCalls++
	return m.emptyErr
}

type mockCatalog struct {
	mu       sync.Mutex
	products map[string]*Product
	errByID  map[string]error
	calls    int
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.errByID[id]; ok {
		return nil, err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

// mockCurrency converts through an exchange rate per target code; same-code
// conversion is the identity, like the real collaborator.
type mockCurrency struct {
	mu    sync.Mutex
	rates map[string]decimal.Decimal
	err   error
	calls int
}

func (m *mockCurrency) Convert(_ context.Context, amount money.Money, toCode string) (money.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return money.Money{}, m.err
	}
	if amount.CurrencyCode == toCode {
		return amount, nil
	}
	rate, ok := m.rates[toCode]
	if !ok {
		return money.Money{}, errors.New("unsupported currency")
	}
	return money.FromDecimal(amount.Decimal().Mul(rate), toCode), nil
}

type mockShipping struct {
	mu         sync.Mutex
	quote      money.Money
	quoteErr   error
	trackingID string
	shipErr    error
	quoteCalls int
	shipCalls  int
}

func (m *mockShipping) GetQuote(_ context.Context, _ Address, _ []CartLine) (money.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quoteCalls++
	if m.quoteErr != nil {
		return money.Money{}, m.quoteErr
	}
	return m.quote, nil
}

func (m *mockShipping) Ship(_ context.Context, _ Address, _ []CartLine) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shipCalls++
	if m.shipErr != nil {
		return "", m.shipErr
	}
	return m.trackingID, nil
}

type mockPayment struct {
	mu         sync.Mutex
	txID       string
	err        error
	calls      int
	lastAmount money.Money
	lastCard   CreditCard
}

func (m *mockPayment) Charge(_ context.Context, amount money.Money, card CreditCard) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastAmount = amount
	m.lastCard = card
	if m.err != nil {
		return "", m.err
	}
	return m.txID, nil
}

type mockNotifier struct {
	mu        sync.Mutex
	err       error
	calls     int
	lastEmail string
	lastOrder *OrderResult
}

func (m *mockNotifier) SendOrderConfirmation(_ context.Context, email string, order *OrderResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastEmail = email
	m.lastOrder = order
	return m.err
}

// --- Fixture ---

type fixture struct {
	cart     *mockCart
	catalog  *mockCatalog
	currency *mockCurrency
	shipping *mockShipping
	payment  *mockPayment
	notifier *mockNotifier
	svc      *Service
}

func usd(units int64, nanos int32) money.Money {
	return money.New(units, nanos, "USD")
}

func testProduct(id string, price money.Money) *Product {
	return &Product{
		ID:       id,
		Name:     "Product " + id,
		Picture:  "/img/" + id + ".jpg",
		PriceUSD: price,
	}
}

// newFixture wires a happy-path order: two cart lines priced 10.50 and 3.33
// USD, 8.99 USD shipping.
func newFixture() *fixture {
	f := &fixture{
		cart: &mockCart{lines: []CartLine{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		}},
		catalog: &mockCatalog{products: map[string]*Product{
			"p1": testProduct("p1", usd(10, 500_000_000)),
			"p2": testProduct("p2", usd(3, 330_000_000)),
		}},
		currency: &mockCurrency{rates: map[string]decimal.Decimal{
			"EUR": decimal.RequireFromString("0.5"),
		}},
		shipping: &mockShipping{quote: usd(8, 990_000_000), trackingID: "TRACK-123"},
		payment:  &mockPayment{txID: "tx-1"},
		notifier: &mockNotifier{},
	}
	f.svc = NewService(ServiceConfig{}, f.cart, f.catalog, f.currency, f.shipping, f.payment, f.notifier)
	return f
}

func testRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		UserID:       "user-1",
		UserCurrency: "USD",
		Address: Address{
			Street:     "1600 Amphitheatre Pkwy",
			City:       "Mountain View",
			State:      "CA",
			Country:    "US",
			PostalCode: "94043",
		},
		Email: "buyer@example.com",
		CreditCard: CreditCard{
			Number:          "4432801561520454",
			CVV:             123,
			ExpirationMonth: 1,
			ExpirationYear:  2030,
		},
	}
}

// --- Tests ---

func TestPlaceOrder_ExactTotal(t *testing.T) {
	f := newFixture()

	order, err := f.svc.PlaceOrder(context.Background(), testRequest())
	require.NoError(t, err)

	// 2*10.50 + 1*3.33 + 8.99 = 33.32, computed without drift.
	assert.Equal(t, usd(33, 320_000_000), f.payment.lastAmount)

	assert.NotEmpty(t, order.OrderID)
	assert.Equal(t, "TRACK-123", order.ShippingTrackingID)
	assert.Equal(t, usd(8, 990_000_000), order.ShippingCost)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, CartLine{ProductID: "p1", Quantity: 2}, order.Lines[0].Item)
	assert.Equal(t, usd(10, 500_000_000), order.Lines[0].Cost)
	assert.Equal(t, CartLine{ProductID: "p2", Quantity: 1}, order.Lines[1].Item)
	assert.Equal(t, usd(3, 330_000_000), order.Lines[1].Cost)

	assert.Equal(t, 1, f.cart.emptyCalls)
	assert.Equal(t, 1, f.notifier.calls)
	assert.Equal(t, "buyer@example.com", f.notifier.lastEmail)
	assert.Same(t, order, f.notifier.lastOrder)
}

func TestPlaceOrder_ConvertsToUserCurrency(t *testing.T) {
	f := newFixture()

	req := testRequest()
	req.UserCurrency = "EUR"

	order, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	// Everything halved by the 0.5 EUR rate: 2*5.25 + 1.665 + 4.495 = 16.66.
	assert.Equal(t, "EUR", f.payment.lastAmount.CurrencyCode)
	assert.True(t, decimal.RequireFromString("16.66").Equal(f.payment.lastAmount.Decimal()),
		"total = %s", f.payment.lastAmount.Format())
	assert.Equal(t, "EUR", order.ShippingCost.CurrencyCode)
	assert.Equal(t, "EUR", order.Lines[0].Cost.CurrencyCode)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture()
	f.cart.lines = nil

	_, err := f.svc.PlaceOrder(context.Background(), testRequest())
	require.ErrorIs(t, err, ErrEmptyCart)

	assert.Equal(t, 0, f.catalog.calls)
	assert.Equal(t, 0, f.shipping.quoteCalls)
	assert.Equal(t, 0, f.payment.calls)
	assert.Equal(t, 0, f.shipping.shipCalls)
}

func TestPlaceOrder_CartUnavailable(t *testing.T) {
	f := newFixture()
	f.cart.getErr = errors.New("cart service down")

	_, err := f.svc.PlaceOrder(context.Background(), testRequest())

	var opErr *OrderPlacementError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "load cart", opErr.Stage)
	assert.Equal(t, 0, f.payment.calls)
}

func TestPlaceOrder_ProductLookupFailed(t *testing.T) {
	f := newFixture()
	f.catalog.errByID = map[string]error{"p2": ErrProductNotFound}

	_, err := f.svc.PlaceOrder(context.Background(), testRequest())

	var plErr *ProductLookupError
	require.ErrorAs(t, err, &plErr)
	assert.Equal(t, "p2", plErr.ProductID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, 0, f.payment.calls)
	assert.Equal(t, 0, f.shipping.shipCalls)
}

func TestPlaceOrder_ConversionFailureIsProductLookup(t *testing.T) {
	f := newFixture()
	f.currency.err = errors.New("rates unavailable")

	req := testRequest()
	req.UserCurrency = "EUR"

	_, err := f.svc.PlaceOrder(context.Background(), req)

	var plErr *ProductLookupError
	require.ErrorAs(t, err, &plErr)
	assert.Equal(t, 0, f.payment.calls)
}

func TestPlaceOrder_ShippingUnavailable(t *testing.T) {
	f := newFixture()
	f.shipping.quoteErr = errors.New("no carriers")

	_, err := f.svc.PlaceOrder(context.Background(), testRequest())

	var suErr *ShippingUnavailableError
	require.ErrorAs(t, err, &suErr)
	assert.Equal(t, 0, f.payment.calls)
	assert.Equal(t, 0, f.shipping.shipCalls)
}

func TestPlaceOrder_PaymentFailed(t *testing.T) {
	f := newFixture()
	f.payment.err = errors.New("card declined")

	_, err := f.svc.PlaceOrder(context.Background(), testRequest())

	var payErr *PaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, 1, f.payment.calls)
	assert.Equal(t, 0, f.shipping.shipCalls, "ship must never run after a failed charge")
	assert.Equal(t, 0, f.cart.emptyCalls)
	assert.Equal(t, 0, f.notifier.calls)
}

func TestPlaceOrder_PaymentWithoutTransactionID(t *testing.T) {
	f := newFixture()
	f.payment.txID = ""

	_, err := f.svc.PlaceOrder(context.Background(), testRequest())

	var payErr *PaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, 0, f.shipping.shipCalls)
}

func TestPlaceOrder_ShippingFailedAfterCharge(t *testing.T) {
	f := newFixture()
	f.shipping.shipErr = errors.New("carrier rejected shipment")

	_, err := f.svc.PlaceOrder(context.Background(), testRequest())

	var sfErr *ShippingFailedError
	require.ErrorAs(t, err, &sfErr)
	assert.Equal(t, "tx-1", sfErr.TransactionID)
	assert.Equal(t, 1, f.payment.calls)
	assert.Equal(t, 0, f.notifier.calls)
}

func TestPlaceOrder_ShippingWithoutTrackingID(t *testing.T) {
	f := newFixture()
	f.shipping.trackingID = ""

	_, err := f.svc.PlaceOrder(context.Background(), testRequest())

	var sfErr *ShippingFailedError
	require.ErrorAs(t, err, &sfErr)
}

func TestPlaceOrder_NotificationFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("smtp timeout")

	order, err := f.svc.PlaceOrder(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, usd(33, 320_000_000), f.payment.lastAmount)
	assert.Equal(t, "TRACK-123", order.ShippingTrackingID)
	assert.Equal(t, 1, f.notifier.calls)
}

func TestPlaceOrder_EmptyCartFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture()
	f.cart.emptyErr = errors.New("cart service flaked")

	order, err := f.svc.PlaceOrder(context.Background(), testRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderID)
	assert.Equal(t, 1, f.cart.emptyCalls)
	assert.Equal(t, 1, f.notifier.calls, "notification still attempted")
}

func TestPlaceOrder_FreshOrderIDPerOrder(t *testing.T) {
	f := newFixture()

	first, err := f.svc.PlaceOrder(context.Background(), testRequest())
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(context.Background(), testRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.OrderID, second.OrderID)
}

func TestPlaceOrder_PreservesCartOrderUnderConcurrency(t *testing.T) {
	f := newFixture()

	// More lines than the pricing concurrency limit, priced distinctly so a
	// reordering would be visible.
	f.cart.lines = nil
	f.catalog.products = map[string]*Product{}
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	for i, id := range ids {
		f.cart.lines = append(f.cart.lines, CartLine{ProductID: id, Quantity: 1})
		f.catalog.products[id] = testProduct(id, usd(int64(i+1), 0))
	}

	order, err := f.svc.PlaceOrder(context.Background(), testRequest())
	require.NoError(t, err)

	require.Len(t, order.Lines, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, order.Lines[i].Item.ProductID)
		assert.Equal(t, usd(int64(i+1), 0), order.Lines[i].Cost)
	}
}

func TestPlaceOrder_DefaultsMissingPriceCurrency(t *testing.T) {
	f := newFixture()
	f.catalog.products["p1"].PriceUSD = money.New(10, 500_000_000, "")

	order, err := f.svc.PlaceOrder(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "USD", order.Lines[0].Cost.CurrencyCode)
	assert.Equal(t, usd(33, 320_000_000), f.payment.lastAmount)
}

func TestPlaceOrder_CancelledContext(t *testing.T) {
	f := newFixture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.cart.getErr = ctx.Err()

	_, err := f.svc.PlaceOrder(ctx, testRequest())
	require.Error(t, err)
	assert.Equal(t, 0, f.payment.calls)
	assert.Equal(t, 0, f.shipping.shipCalls)
}
