package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sokoni/duka-api/internal/cart"
	"github.com/sokoni/duka-api/internal/common"
	"github.com/sokoni/duka-api/internal/shipping"
)

// ContactSaver records the checkout contact for a cart session so the
// inactivity reminder can reach the customer.
type ContactSaver interface {
	SaveContact(ctx context.Context, session, email string) error
}

// Handler wires checkout sessions to HTTP.
type Handler struct {
	Carts         *cart.Handler
	Placer        OrderPlacer
	Confirmations ConfirmationEnqueuer
	Contacts      ContactSaver
	Logger        zerolog.Logger
}

// Regions lists the static shipping region table.
func (h *Handler) Regions(w http.ResponseWriter, _ *http.Request) {
	common.JSONData(w, http.StatusOK, shipping.Regions())
}

// Quote computes subtotal, shipping and total for the cart and a region.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RegionID string `json:"regionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	store, _, err := h.Carts.Store(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "NO_SESSION", "anonymous id or authentication required", nil)
		return
	}
	session := NewSession(store, Config{Logger: h.Logger})
	if strings.TrimSpace(payload.RegionID) != "" {
		if err := session.SelectRegion(payload.RegionID); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown shipping region", nil)
			return
		}
	}
	summary := session.Summary()
	common.JSONData(w, http.StatusOK, map[string]any{
		"region":   session.Region(),
		"subtotal": summary.Subtotal,
		"shipping": summary.Shipping,
		"total":    summary.Total,
	})
}

// Submit validates the checkout form and places the order. It sits behind
// the authentication gate.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RegionID string `json:"regionId"`
		Form
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	store, sessionKey, err := h.Carts.Store(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "NO_SESSION", "anonymous id or authentication required", nil)
		return
	}
	session := NewSession(store, Config{
		Placer:        h.Placer,
		Sink:          h.Carts.Sink,
		Confirmations: h.Confirmations,
		Logger:        h.Logger,
	})
	if strings.TrimSpace(payload.RegionID) != "" {
		if err := session.SelectRegion(payload.RegionID); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown shipping region", nil)
			return
		}
	}
	session.SetForm(payload.Form)

	if h.Contacts != nil && strings.TrimSpace(payload.Email) != "" {
		if err := h.Contacts.SaveContact(r.Context(), sessionKey, payload.Email); err != nil {
			h.Logger.Warn().Err(err).Msg("save checkout contact")
		}
	}

	summary := session.Summary()
	receipt, err := session.Submit(r.Context())
	if err != nil {
		var fields FieldErrors
		switch {
		case errors.As(err, &fields):
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "form validation failed", fields)
		case errors.Is(err, ErrEmptyCart):
			common.JSONError(w, http.StatusBadRequest, "EMPTY_CART", "cart is empty", nil)
		case errors.Is(err, ErrSubmitting):
			common.JSONError(w, http.StatusConflict, "IN_FLIGHT", "submission already in progress", nil)
		default:
			common.JSONError(w, http.StatusBadGateway, "SUBMISSION_FAILED", "order could not be placed, please try again", nil)
		}
		return
	}
	common.JSONData(w, http.StatusCreated, map[string]any{
		"orderId":  receipt.OrderID,
		"placedAt": receipt.PlacedAt,
		"pricing": map[string]any{
			"subtotal": summary.Subtotal,
			"shipping": summary.Shipping,
			"total":    summary.Total,
		},
	})
}
