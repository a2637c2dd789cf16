package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Session is the validated identity carried by a session token.
type Session struct {
	UserID string
	Email  string
}

// SessionParser validates session tokens issued by the identity service.
// Tokens are HMAC-signed with a shared secret.
type SessionParser struct {
	Secret    []byte
	Issuer    string
	ClockSkew time.Duration
}

// Parse verifies the token signature and claims and returns the session.
func (p SessionParser) Parse(raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, errors.New("auth: empty token")
	}
	if len(p.Secret) == 0 {
		return Session{}, errors.New("auth: parser not configured")
	}
	options := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, p.Secret),
		jwt.WithValidate(true),
	}
	if p.Issuer != "" {
		options = append(options, jwt.WithIssuer(p.Issuer))
	}
	if p.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(p.ClockSkew))
	}
	tok, err := jwt.ParseString(raw, options...)
	if err != nil {
		return Session{}, fmt.Errorf("auth: parse token: %w", err)
	}
	sub := tok.Subject()
	if sub == "" {
		return Session{}, errors.New("auth: token missing subject")
	}
	session := Session{UserID: sub}
	if v, ok := tok.Get("email"); ok {
		if email, ok := v.(string); ok {
			session.Email = email
		}
	}
	return session, nil
}
