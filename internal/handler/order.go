package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/microshop/checkout/internal/checkout"
)

// placeOrderRequest is the JSON body for POST /api/checkout. Cart contents
// are not part of the request; the service loads them from the cart
// collaborator.
type placeOrderRequest struct {
	UserID       string              `json:"user_id"`
	UserCurrency string              `json:"user_currency"`
	Address      checkout.Address    `json:"address"`
	Email        string              `json:"email"`
	CreditCard   checkout.CreditCard `json:"credit_card"`
}

type placeOrderResponse struct {
	Message string                `json:"message"`
	Order   *checkout.OrderResult `json:"order"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg, ok := validate(req); !ok {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), checkout.PlaceOrderRequest{
		UserID:       req.UserID,
		UserCurrency: req.UserCurrency,
		Address:      req.Address,
		Email:        req.Email,
		CreditCard:   req.CreditCard,
	})
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, placeOrderResponse{
		Message: "order placed",
		Order:   order,
	})
}

func validate(req placeOrderRequest) (string, bool) {
	switch {
	case req.UserID == "":
		return "user_id is required", false
	case len(req.UserCurrency) != 3:
		return "user_currency must be an ISO 4217 code", false
	case req.Email == "":
		return "email is required", false
	case req.CreditCard.Number == "":
		return "credit_card.number is required", false
	}
	return "", true
}

// writeOrderError maps checkout errors onto HTTP statuses. Anything without
// a specific kind is a 500 with the detail kept out of the response body.
func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		plErr  *checkout.ProductLookupError
		suErr  *checkout.ShippingUnavailableError
		sfErr  *checkout.ShippingFailedError
		payErr *checkout.PaymentError
	)

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, r, http.StatusBadRequest, "cart is empty")
	case errors.As(err, &plErr):
		writeError(w, r, http.StatusUnprocessableEntity, plErr.Error())
	case errors.As(err, &payErr):
		writeError(w, r, http.StatusPaymentRequired, "payment failed")
	case errors.As(err, &suErr):
		writeError(w, r, http.StatusBadGateway, "shipping is unavailable")
	case errors.As(err, &sfErr):
		writeError(w, r, http.StatusBadGateway, "order could not be shipped")
	default:
		zctx.From(r.Context()).Error("Order placement failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "failed to place order")
	}
}
