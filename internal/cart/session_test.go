package cart_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sokoni/duka-api/internal/cart"
	"github.com/sokoni/duka-api/internal/common"
)

func TestSessionKeyPrefersUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(cart.AnonHeader, "guest-1")
	req = req.WithContext(common.WithUserID(req.Context(), "user-7"))

	key, ok := cart.SessionKey(req)
	require.True(t, ok)
	require.Equal(t, "user:user-7", key)
}

func TestSessionKeyFromHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(cart.AnonHeader, " guest-1 ")

	key, ok := cart.SessionKey(req)
	require.True(t, ok)
	require.Equal(t, "anon:guest-1", key)
}

func TestSessionKeyFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart?anonId=guest-2", nil)

	key, ok := cart.SessionKey(req)
	require.True(t, ok)
	require.Equal(t, "anon:guest-2", key)
}

func TestSessionKeyFromCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: cart.AnonCookie, Value: "guest-3"})

	key, ok := cart.SessionKey(req)
	require.True(t, ok)
	require.Equal(t, "anon:guest-3", key)
}

func TestSessionKeyMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	_, ok := cart.SessionKey(req)
	require.False(t, ok)
}
