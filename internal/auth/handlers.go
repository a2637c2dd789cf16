package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sokoni/duka-api/internal/common"
)

// Handler proxies authentication calls to the external identity service.
// The core never stores credentials; it forwards them and relays the
// outcome.
type Handler struct {
	Client Client
	Logger zerolog.Logger
}

// Login exchanges credentials for a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Email == "" || payload.Password == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "email and password are required", nil)
		return
	}
	result, err := h.Client.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.Logger.Error().Err(err).Msg("identity login")
		common.JSONError(w, http.StatusBadGateway, "AUTH_ERROR", "identity service unavailable", nil)
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnauthorized
	}
	common.JSONData(w, status, result)
}

// Register creates an account with the identity service.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Name == "" || payload.Email == "" || payload.Password == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "name, email and password are required", nil)
		return
	}
	result, err := h.Client.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		h.Logger.Error().Err(err).Msg("identity register")
		common.JSONError(w, http.StatusBadGateway, "AUTH_ERROR", "identity service unavailable", nil)
		return
	}
	status := http.StatusCreated
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	common.JSONData(w, status, result)
}

// Logout invalidates the current session upstream.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := ""
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		token = strings.TrimSpace(header[7:])
	}
	if err := h.Client.Logout(r.Context(), token); err != nil {
		h.Logger.Error().Err(err).Msg("identity logout")
	}
	common.JSONData(w, http.StatusOK, map[string]any{"success": true})
}
