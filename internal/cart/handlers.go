package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sokoni/duka-api/internal/catalog"
	"github.com/sokoni/duka-api/internal/common"
	"github.com/sokoni/duka-api/internal/notify"
	"github.com/sokoni/duka-api/internal/pricing"
)

// ProductSource resolves product records for cart mutations.
type ProductSource interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
}

// Handler wires the cart store to HTTP. SlotFor hands out the durable slot
// for a session key; a nil SlotFor leaves carts unpersisted.
type Handler struct {
	SlotFor func(session string) Slot
	Catalog ProductSource
	Sink    notify.Sink
	Logger  zerolog.Logger
}

// CreateSession mints an anonymous session identifier for guests.
func (h *Handler) CreateSession(w http.ResponseWriter, _ *http.Request) {
	common.JSONData(w, http.StatusCreated, map[string]any{"anonId": uuid.NewString()})
}

// Get returns cart contents with derived aggregates.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	h.writeCart(w, http.StatusOK, store)
}

// AddItem adds or increments a cart line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	var payload struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.ProductID = strings.TrimSpace(payload.ProductID)
	payload.VariantID = strings.TrimSpace(payload.VariantID)
	if payload.ProductID == "" || payload.VariantID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId and variantId are required", nil)
		return
	}
	if payload.Qty <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty must be positive", nil)
		return
	}
	product, err := h.Catalog.Product(r.Context(), payload.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		h.Logger.Error().Err(err).Str("product_id", payload.ProductID).Msg("load product")
		common.JSONError(w, http.StatusBadGateway, "CATALOG_ERROR", "unable to load product", nil)
		return
	}
	variant, ok := product.FindVariant(payload.VariantID)
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "variant not found", nil)
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.AddItem(r.Context(), product, variant, payload.Qty)
	h.writeCart(w, http.StatusOK, store)
}

// UpdateItem sets the quantity for a cart line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	variantID := chi.URLParam(r, "variantId")
	var payload struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Qty < 1 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty must be at least 1", nil)
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.UpdateQuantity(r.Context(), variantID, payload.Qty)
	h.writeCart(w, http.StatusOK, store)
}

// RemoveItem deletes a cart line. Removing an absent variant still succeeds.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	variantID := chi.URLParam(r, "variantId")
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.RemoveItem(r.Context(), variantID)
	h.writeCart(w, http.StatusOK, store)
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.Clear(r.Context())
	h.writeCart(w, http.StatusOK, store)
}

// Store rehydrates the cart store for the request's session. Exposed so the
// checkout handler can share session resolution.
func (h *Handler) Store(r *http.Request) (*Store, string, error) {
	session, ok := SessionKey(r)
	if !ok {
		return nil, "", errors.New("cart: no session context")
	}
	var slot Slot
	if h.SlotFor != nil {
		slot = h.SlotFor(session)
	}
	store := New(r.Context(), Config{Slot: slot, Sink: h.Sink, Logger: h.Logger})
	return store, session, nil
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	store, _, err := h.Store(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "NO_SESSION", "anonymous id or authentication required", nil)
		return nil, false
	}
	return store, true
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, store *Store) {
	lines := store.Lines()
	items := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		items = append(items, map[string]any{
			"product":  l.Product,
			"variant":  l.Variant,
			"quantity": l.Quantity,
			"subtotal": l.Subtotal(),
		})
	}
	summary := pricing.Compute(store.Items(), 0)
	common.JSONData(w, status, map[string]any{
		"items": items,
		"count": store.Count(),
		"open":  store.IsOpen(),
		"pricing": map[string]any{
			"subtotal": summary.Subtotal,
		},
	})
}
