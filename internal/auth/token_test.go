package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/sokoni/duka-api/internal/auth"
	"github.com/sokoni/duka-api/internal/common"
)

var testSecret = []byte("test-secret-please-rotate")

func signToken(t *testing.T, mutate func(b *jwt.Builder)) string {
	t.Helper()
	b := jwt.NewBuilder().
		Subject("user-1").
		Issuer("duka").
		Claim("email", "amina@example.com").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour))
	if mutate != nil {
		mutate(b)
	}
	tok, err := b.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, testSecret))
	require.NoError(t, err)
	return string(signed)
}

func TestParseValidToken(t *testing.T) {
	parser := auth.SessionParser{Secret: testSecret, Issuer: "duka"}

	session, err := parser.Parse(signToken(t, nil))
	require.NoError(t, err)
	require.Equal(t, "user-1", session.UserID)
	require.Equal(t, "amina@example.com", session.Email)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	parser := auth.SessionParser{Secret: []byte("other-secret"), Issuer: "duka"}
	_, err := parser.Parse(signToken(t, nil))
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	parser := auth.SessionParser{Secret: testSecret, Issuer: "duka"}
	raw := signToken(t, func(b *jwt.Builder) {
		b.Expiration(time.Now().Add(-time.Hour))
	})
	_, err := parser.Parse(raw)
	require.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	parser := auth.SessionParser{Secret: testSecret, Issuer: "duka"}
	raw := signToken(t, func(b *jwt.Builder) {
		b.Issuer("someone-else")
	})
	_, err := parser.Parse(raw)
	require.Error(t, err)
}

func TestParseRejectsMissingSubject(t *testing.T) {
	parser := auth.SessionParser{Secret: testSecret, Issuer: "duka"}
	raw := signToken(t, func(b *jwt.Builder) {
		b.Subject("")
	})
	_, err := parser.Parse(raw)
	require.Error(t, err)
}

func TestParseEmptyToken(t *testing.T) {
	parser := auth.SessionParser{Secret: testSecret}
	_, err := parser.Parse("  ")
	require.Error(t, err)
}

func TestAuthenticatePassesThroughWithoutToken(t *testing.T) {
	m := auth.Middleware{Parser: auth.SessionParser{Secret: testSecret}}
	var sawUser bool
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawUser = common.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, sawUser)
}

func TestAuthenticateAttachesIdentity(t *testing.T) {
	m := auth.Middleware{Parser: auth.SessionParser{Secret: testSecret, Issuer: "duka"}}
	var userID, email string
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ = common.UserID(r.Context())
		email, _ = common.UserEmail(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "user-1", userID)
	require.Equal(t, "amina@example.com", email)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	m := auth.Middleware{Parser: auth.SessionParser{Secret: testSecret}}
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthAcceptsCookieToken(t *testing.T) {
	m := auth.Middleware{
		Parser:       auth.SessionParser{Secret: testSecret, Issuer: "duka"},
		AccessCookie: "duka_session",
	}
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.AddCookie(&http.Cookie{Name: "duka_session", Value: signToken(t, nil)})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
