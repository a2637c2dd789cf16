package cart_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sokoni/duka-api/internal/cart"
	"github.com/sokoni/duka-api/internal/catalog"
	"github.com/sokoni/duka-api/internal/notify"
	"github.com/sokoni/duka-api/internal/persist"
)

type fakeCatalog struct {
	products map[string]catalog.Product
}

func (f *fakeCatalog) Product(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

type slotPool struct {
	mu    sync.Mutex
	slots map[string]*persist.Memory
}

func (p *slotPool) For(session string) cart.Slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.slots == nil {
		p.slots = map[string]*persist.Memory{}
	}
	if _, ok := p.slots[session]; !ok {
		p.slots[session] = &persist.Memory{}
	}
	return p.slots[session]
}

func newRouter(t *testing.T) (*chi.Mux, *fakeCatalog) {
	t.Helper()
	product, _ := fixtureVariant("v1", 19999)
	source := &fakeCatalog{products: map[string]catalog.Product{product.ID: product}}
	pool := &slotPool{}
	h := &cart.Handler{
		SlotFor: pool.For,
		Catalog: source,
		Sink:    &notify.Recorder{},
		Logger:  zerolog.Nop(),
	}

	r := chi.NewRouter()
	r.Post("/cart/session", h.CreateSession)
	r.Get("/cart", h.Get)
	r.Delete("/cart", h.Clear)
	r.Post("/cart/items", h.AddItem)
	r.Patch("/cart/items/{variantId}", h.UpdateItem)
	r.Delete("/cart/items/{variantId}", h.RemoveItem)
	return r, source
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("{}")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(cart.AnonHeader, "guest-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestCreateSessionMintsAnonID(t *testing.T) {
	r, _ := newRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/cart/session", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeData(t, rec)
	require.NotEmpty(t, data["anonId"])
}

func TestAddItemFlow(t *testing.T) {
	r, _ := newRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/cart/items", `{"productId":"prod-v1","variantId":"v1","qty":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	require.EqualValues(t, 2, data["count"])
	require.Equal(t, true, data["open"])

	// Same variant again merges into one line.
	rec = doJSON(t, r, http.MethodPost, "/cart/items", `{"productId":"prod-v1","variantId":"v1","qty":1}`)
	data = decodeData(t, rec)
	require.EqualValues(t, 3, data["count"])
	require.Len(t, data["items"], 1)
	pricing := data["pricing"].(map[string]any)
	require.EqualValues(t, 59997, pricing["subtotal"])
}

func TestAddItemRejectsBadInput(t *testing.T) {
	r, _ := newRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/cart/items", `{"productId":"prod-v1","variantId":"v1","qty":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/cart/items", `{"variantId":"v1","qty":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/cart/items", `{"productId":"missing","variantId":"v1","qty":1}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/cart/items", `{"productId":"prod-v1","variantId":"missing","qty":1}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddItemRequiresSession(t *testing.T) {
	r, _ := newRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"productId":"prod-v1","variantId":"v1","qty":1}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateItemRejectsQuantityBelowOne(t *testing.T) {
	r, _ := newRouter(t)
	doJSON(t, r, http.MethodPost, "/cart/items", `{"productId":"prod-v1","variantId":"v1","qty":2}`)

	rec := doJSON(t, r, http.MethodPatch, "/cart/items/v1", `{"qty":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/cart", "")
	data := decodeData(t, rec)
	require.EqualValues(t, 2, data["count"])
}

func TestUpdateAndRemoveItem(t *testing.T) {
	r, _ := newRouter(t)
	doJSON(t, r, http.MethodPost, "/cart/items", `{"productId":"prod-v1","variantId":"v1","qty":2}`)

	rec := doJSON(t, r, http.MethodPatch, "/cart/items/v1", `{"qty":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 5, decodeData(t, rec)["count"])

	rec = doJSON(t, r, http.MethodDelete, "/cart/items/v1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 0, decodeData(t, rec)["count"])

	// Removing again still succeeds.
	rec = doJSON(t, r, http.MethodDelete, "/cart/items/v1", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCartPersistsAcrossRequests(t *testing.T) {
	r, _ := newRouter(t)
	doJSON(t, r, http.MethodPost, "/cart/items", `{"productId":"prod-v1","variantId":"v1","qty":3}`)

	rec := doJSON(t, r, http.MethodGet, "/cart", "")
	data := decodeData(t, rec)
	require.EqualValues(t, 3, data["count"])
	require.Equal(t, false, data["open"], "visibility is never persisted")
}

func TestClearCart(t *testing.T) {
	r, _ := newRouter(t)
	doJSON(t, r, http.MethodPost, "/cart/items", `{"productId":"prod-v1","variantId":"v1","qty":3}`)

	rec := doJSON(t, r, http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 0, decodeData(t, rec)["count"])
}
