package testfixtures

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenClaims mirrors the claims issued by the backend for a signed-in user.
type TokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenFactory signs HS256 tokens the way the backend does.
type TokenFactory struct {
	secret []byte
}

// NewTokenFactory returns a factory signing with secret. When secret is empty
// a fixed test secret is used.
func NewTokenFactory(secret string) *TokenFactory {
	if secret == "" {
		secret = "test-secret"
	}
	return &TokenFactory{secret: []byte(secret)}
}

// Issue returns a signed token for subject expiring at expiresAt.
func (f *TokenFactory) Issue(tb testing.TB, subject string, expiresAt time.Time) string {
	tb.Helper()

	claims := TokenClaims{
		Email: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		tb.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// WithPayload returns a three-segment token whose payload segment is the
// base64url encoding of payload, bypassing claim marshalling.
func (f *TokenFactory) WithPayload(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return header + "." + body + ".signature"
}
