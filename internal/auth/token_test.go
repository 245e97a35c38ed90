package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "user-1"}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestBearerToken_Live(t *testing.T) {
	raw := signedToken(t, time.Now().Add(time.Hour))

	got, ok := NewBearerToken(raw).Token()
	if !ok {
		t.Fatal("expected a live token to be usable")
	}
	if got != raw {
		t.Error("token must be returned verbatim")
	}
}

func TestBearerToken_Expired(t *testing.T) {
	raw := signedToken(t, time.Now().Add(-time.Hour))

	if _, ok := NewBearerToken(raw).Token(); ok {
		t.Error("expired token must report no credential")
	}
}

func TestBearerToken_NoExpiry(t *testing.T) {
	raw := signedToken(t, time.Time{})

	if _, ok := NewBearerToken(raw).Token(); !ok {
		t.Error("a token without an exp claim is usable")
	}
}

func TestBearerToken_Empty(t *testing.T) {
	if _, ok := NewBearerToken("").Token(); ok {
		t.Error("empty token must report no credential")
	}
}

func TestBearerToken_Garbage(t *testing.T) {
	if _, ok := NewBearerToken("not-a-jwt").Token(); ok {
		t.Error("unparseable token must report no credential")
	}
}

func TestAnonymous(t *testing.T) {
	if _, ok := (Anonymous{}).Token(); ok {
		t.Error("anonymous source must never report a credential")
	}
}
