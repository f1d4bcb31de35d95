package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrBadToken signals a missing, malformed, expired, or foreign attempt token.
var ErrBadToken = errors.New("payment: invalid attempt token")

// AttemptClaims bind a return signal to one specific excursion: the session
// it belongs to, the attempt that saved the draft, and the authority being
// purchased. A stale tab or a replayed URL carries a token that no longer
// matches the slot, which the manager rejects before any side effect.
type AttemptClaims struct {
	SessionID   string `json:"sid"`
	AttemptID   string `json:"att"`
	AuthorityID string `json:"mc"`
	jwt.RegisteredClaims
}

// TokenSigner signs and verifies attempt tokens with an HMAC secret.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	return &TokenSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (t *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
	t.now = now
	return t
}

// Sign issues a token for one excursion attempt.
func (t *TokenSigner) Sign(sessionID, attemptID, authorityID string) (string, error) {
	now := t.now()
	claims := AttemptClaims{
		SessionID:   sessionID,
		AttemptID:   attemptID,
		AuthorityID: authorityID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("payment: sign attempt token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims.
func (t *TokenSigner) Verify(raw string) (AttemptClaims, error) {
	var claims AttemptClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return AttemptClaims{}, ErrBadToken
	}
	return claims, nil
}
