package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sokoni/duka-api/internal/common"
)

// Lister is the read surface the product handlers need.
type Lister interface {
	ListProducts(ctx context.Context) ([]Product, int, error)
	Product(ctx context.Context, id string) (Product, error)
}

// Handler exposes the validated product catalog over HTTP.
type Handler struct {
	Client Lister
	Logger zerolog.Logger
}

// List returns all products that passed boundary validation.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Client == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	products, dropped, err := h.Client.ListProducts(r.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("list products")
		common.JSONError(w, http.StatusBadGateway, "CATALOG_ERROR", "unable to load products", nil)
		return
	}
	if dropped > 0 {
		h.Logger.Warn().Int("dropped", dropped).Msg("catalog rows failed validation")
	}
	common.JSONData(w, http.StatusOK, products)
}

// Get returns a single product by identifier.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Client == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	product, err := h.Client.Product(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		h.Logger.Error().Err(err).Str("product_id", id).Msg("load product")
		common.JSONError(w, http.StatusBadGateway, "CATALOG_ERROR", "unable to load product", nil)
		return
	}
	common.JSONData(w, http.StatusOK, product)
}
