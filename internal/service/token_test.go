package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	id := uuid.New()

	token, err := issuer.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != id {
		t.Errorf("subject = %s, want %s", got, id)
	}
}

func TestTokenRejections(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	id := uuid.New()

	expired := &TokenIssuer{secret: []byte("secret"), ttl: -time.Minute}
	expiredToken, _ := expired.Issue(id)

	otherSecret, _ := NewTokenIssuer("other").Issue(id)

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   id.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))

	for name, token := range map[string]string{
		"expired":      expiredToken,
		"wrong secret": otherSecret,
		"alg none":     noneToken,
		"bad subject":  badSubject,
		"garbage":      "abc.def.ghi",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
