// Package handler exposes the checkout service over HTTP.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/microshop/checkout/internal/checkout"
)

// Handler serves the checkout API, delegating order placement to the
// checkout service.
type Handler struct {
	orders *checkout.Service
}

// New constructs a Handler around the checkout service.
func New(orders *checkout.Service) *Handler {
	return &Handler{orders: orders}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/checkout", h.placeOrder)
}

// errorResponse is the JSON error body for every failure.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zctx.From(r.Context()).Warn("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Code: status, Message: message})
}
