package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/microshop/checkout/internal/money"
)

// DefaultCurrency is the currency all catalog prices are stored in.
const DefaultCurrency = "USD"

// Server exposes the catalog over HTTP.
type Server struct {
	products Repository
}

// NewServer creates a Server backed by products.
func NewServer(products Repository) *Server {
	return &Server{products: products}
}

// Register mounts the catalog routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", s.listProducts)
	mux.HandleFunc("GET /products/{id}", s.getProduct)
	mux.HandleFunc("POST /products/batch", s.getProductsBatch)
}

// productPayload is the wire form of a product.
type productPayload struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Picture     string      `json:"picture"`
	PriceUSD    money.Money `json:"price_usd"`
	Categories  []string    `json:"categories"`
}

func toPayload(p Product) productPayload {
	return productPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Picture:     p.Picture,
		PriceUSD:    money.FromDecimal(p.Price, DefaultCurrency),
		Categories:  p.Categories,
	}
}

type productListResponse struct {
	Products []productPayload `json:"products"`
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := productListResponse{Products: make([]productPayload, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, toPayload(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(*p))
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) getProductsBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "invalid_request", Message: "invalid request body"})
		return
	}

	products, err := s.products.GetByIDs(r.Context(), req.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := productListResponse{Products: make([]productPayload, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, toPayload(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "not_found", Message: "product not found"})
		return
	}
	zctx.From(r.Context()).Error("Catalog request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal", Message: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
