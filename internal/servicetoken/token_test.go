package servicetoken

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestSignProducesVerifiableClaims(t *testing.T) {
	signer, err := NewSigner(Options{Issuer: "wanparadise-gateway", Secret: "test-secret", TTL: time.Minute})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	signed, err := signer.Sign("wan-paradise-api")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			t.Fatalf("alg = %s, want HS256", token.Method.Alg())
		}
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("parse signed token: %v", err)
	}
	if claims.Issuer != "wanparadise-gateway" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != "wan-paradise-api" {
		t.Fatalf("audience = %v", claims.Audience)
	}
	if claims.ID == "" {
		t.Fatalf("expected non-empty token id")
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > time.Minute {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt)
	}
}

func TestNewSignerValidation(t *testing.T) {
	if _, err := NewSigner(Options{Issuer: "", Secret: "s"}); err == nil {
		t.Fatalf("expected error for empty issuer")
	}
	if _, err := NewSigner(Options{Issuer: "i", Secret: " "}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestSignRequiresAudience(t *testing.T) {
	signer, err := NewSigner(Options{Issuer: "i", Secret: "s"})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if _, err := signer.Sign(" "); err == nil {
		t.Fatalf("expected error for empty audience")
	}
}
