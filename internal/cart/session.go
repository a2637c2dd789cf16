package cart

import (
	"net/http"
	"strings"

	"github.com/sokoni/duka-api/internal/common"
)

// AnonHeader carries the anonymous session identifier for guests.
const AnonHeader = "X-Anon-Id"

// AnonCookie is the fallback cookie for the anonymous session identifier.
const AnonCookie = "duka_anon"

// SessionKey resolves the cart session key for a request: the authenticated
// user id when present, otherwise the anonymous id from header, query or
// cookie. A cart belongs to exactly one of these keys.
func SessionKey(r *http.Request) (string, bool) {
	if userID, ok := common.UserID(r.Context()); ok {
		return "user:" + userID, true
	}
	if anon := strings.TrimSpace(r.Header.Get(AnonHeader)); anon != "" {
		return "anon:" + anon, true
	}
	if anon := strings.TrimSpace(r.URL.Query().Get("anonId")); anon != "" {
		return "anon:" + anon, true
	}
	if cookie, err := r.Cookie(AnonCookie); err == nil {
		if anon := strings.TrimSpace(cookie.Value); anon != "" {
			return "anon:" + anon, true
		}
	}
	return "", false
}
