package session

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrMalformedToken is returned when a stored token cannot be decoded into claims.
var ErrMalformedToken = errors.New("session: malformed token")

// Claims is the subset of token claims used to gate navigation locally.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	HasExpiry bool
}

// ParseClaims decodes the payload segment of a three-part token without
// verifying its signature. Only the backend can verify signatures; the result
// is suitable for UX gating, never for access control.
func ParseClaims(token string) (Claims, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 || parts[1] == "" {
		return Claims{}, ErrMalformedToken
	}

	payload, err := jwt.DecodeSegment(parts[1])
	if err != nil {
		return Claims{}, errors.Join(ErrMalformedToken, err)
	}

	var raw payloadClaims
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Claims{}, errors.Join(ErrMalformedToken, err)
	}

	claims := Claims{Subject: raw.subject()}
	if expiresAt, ok := raw.expiry(); ok {
		claims.ExpiresAt = expiresAt
		claims.HasExpiry = true
	}
	return claims, nil
}

// payloadClaims reads only sub and exp. Other claims may carry any JSON type.
type payloadClaims struct {
	Subject   json.RawMessage `json:"sub"`
	ExpiresAt json.RawMessage `json:"exp"`
}

func (p payloadClaims) subject() string {
	if len(p.Subject) == 0 || string(p.Subject) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(p.Subject, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(p.Subject))
}

// expiry accepts a number or a numeric string. Anything else counts as no expiry.
func (p payloadClaims) expiry() (time.Time, bool) {
	if len(p.ExpiresAt) == 0 || string(p.ExpiresAt) == "null" {
		return time.Time{}, false
	}
	var date jwt.NumericDate
	if err := json.Unmarshal(p.ExpiresAt, &date); err != nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// Outcome classifies the state of a stored token.
type Outcome int

const (
	// OutcomeAbsent means no token is stored.
	OutcomeAbsent Outcome = iota
	// OutcomeMalformed means the token could not be decoded.
	OutcomeMalformed
	// OutcomeExpired means the token decoded but its expiry is not in the future.
	OutcomeExpired
	// OutcomeActive means the token is usable for protected navigation.
	OutcomeActive
)

// String returns a stable label suitable for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeAbsent:
		return "absent"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeExpired:
		return "expired"
	case OutcomeActive:
		return "active"
	}
	return "unknown"
}

// Decision is the result of evaluating a token against the wall clock.
type Decision struct {
	Outcome Outcome
	Claims  Claims
}

// Authenticated reports whether protected pages may render.
func (d Decision) Authenticated() bool {
	return d.Outcome == OutcomeActive
}

// RequiresCleanup reports whether the stored token must be discarded.
func (d Decision) RequiresCleanup() bool {
	return d.Outcome == OutcomeMalformed || d.Outcome == OutcomeExpired
}

// Evaluate decides whether token is usable at now. It has no side effects.
//
// Expiry is compared in whole seconds and the boundary is exclusive: a token
// expiring exactly at now is expired. A token without an exp claim is
// treated as expired.
func Evaluate(token string, now time.Time) Decision {
	if strings.TrimSpace(token) == "" {
		return Decision{Outcome: OutcomeAbsent}
	}

	claims, err := ParseClaims(token)
	if err != nil {
		return Decision{Outcome: OutcomeMalformed}
	}

	if !claims.HasExpiry || claims.ExpiresAt.Unix() <= now.Unix() {
		return Decision{Outcome: OutcomeExpired, Claims: claims}
	}
	return Decision{Outcome: OutcomeActive, Claims: claims}
}
