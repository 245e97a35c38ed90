package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pulse-chat/internal/logger"
)

// ErrNotAuthenticated is returned by remote calls that were short-circuited
// locally because no usable credential was available.
var ErrNotAuthenticated = errors.New("not authenticated")

// TokenSource provides a bearer credential, or reports that none is
// available. Callers must treat an absent credential as "fail fast, no
// network attempt".
type TokenSource interface {
	Token() (string, bool)
}

// BearerToken holds a raw JWT issued by the authentication subsystem.
// The client has no signing secret, so the token is only inspected for
// structure and expiry, never verified.
type BearerToken struct {
	raw string
}

// NewBearerToken wraps a raw token string. An empty string is a valid
// construction and simply reports no credential.
func NewBearerToken(raw string) *BearerToken {
	return &BearerToken{raw: raw}
}

var _ TokenSource = (*BearerToken)(nil)

// Token returns the raw credential if it is present and not expired.
func (b *BearerToken) Token() (string, bool) {
	if b == nil || b.raw == "" {
		return "", false
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(b.raw, &claims); err != nil {
		logger.Log.WithError(err).Warn("Stored credential is not a parseable token")
		return "", false
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		logger.Log.WithField("expired_at", claims.ExpiresAt.Time).Debug("Stored credential has expired")
		return "", false
	}

	return b.raw, true
}

// Anonymous is a TokenSource that never has a credential.
type Anonymous struct{}

var _ TokenSource = Anonymous{}

// Token always reports no credential.
func (Anonymous) Token() (string, bool) {
	return "", false
}
