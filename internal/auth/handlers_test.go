package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sokoni/duka-api/internal/auth"
)

type stubIdentity struct {
	login    auth.Result
	register auth.Result
	err      error

	loggedOutToken string
}

func (s *stubIdentity) Login(context.Context, string, string) (auth.Result, error) {
	return s.login, s.err
}

func (s *stubIdentity) Register(context.Context, string, string, string) (auth.Result, error) {
	return s.register, s.err
}

func (s *stubIdentity) Logout(_ context.Context, token string) error {
	s.loggedOutToken = token
	return s.err
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	h := &auth.Handler{
		Client: &stubIdentity{login: auth.Result{Success: true, Token: "tok-1"}},
		Logger: zerolog.Nop(),
	}
	rec := postJSON(t, h.Login, `{"email":"amina@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data auth.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "tok-1", envelope.Data.Token)
}

func TestLoginRejected(t *testing.T) {
	h := &auth.Handler{
		Client: &stubIdentity{login: auth.Result{Success: false, Message: "bad credentials"}},
		Logger: zerolog.Nop(),
	}
	rec := postJSON(t, h.Login, `{"email":"amina@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginMissingFields(t *testing.T) {
	h := &auth.Handler{Client: &stubIdentity{}, Logger: zerolog.Nop()}
	rec := postJSON(t, h.Login, `{"email":"amina@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginUpstreamFailure(t *testing.T) {
	h := &auth.Handler{
		Client: &stubIdentity{err: errors.New("connection refused")},
		Logger: zerolog.Nop(),
	}
	rec := postJSON(t, h.Login, `{"email":"amina@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRegisterOutcomes(t *testing.T) {
	ok := &auth.Handler{
		Client: &stubIdentity{register: auth.Result{Success: true}},
		Logger: zerolog.Nop(),
	}
	rec := postJSON(t, ok.Register, `{"name":"Amina","email":"amina@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	taken := &auth.Handler{
		Client: &stubIdentity{register: auth.Result{Success: false, Message: "email taken"}},
		Logger: zerolog.Nop(),
	}
	rec = postJSON(t, taken.Register, `{"name":"Amina","email":"amina@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLogoutForwardsToken(t *testing.T) {
	stub := &stubIdentity{}
	h := &auth.Handler{Client: stub, Logger: zerolog.Nop()}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer tok-9")
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "tok-9", stub.loggedOutToken)
}
