package auth

import (
	"errors"
	"testing"
	"time"
)

func TestHMACSignerRoundTrip(t *testing.T) {
	signer, err := NewHMACSigner("signer-secret", "pennywise-test")
	if err != nil {
		t.Fatalf("NewHMACSigner: %v", err)
	}

	token, expiresAt, err := signer.Sign("user-42", 15*time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	userID, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if userID != "user-42" {
		t.Fatalf("unexpected subject: %s", userID)
	}
}

func TestHMACSignerRequiresSecret(t *testing.T) {
	if _, err := NewHMACSigner("   ", "issuer"); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestHMACSignerRejectsBadInput(t *testing.T) {
	signer, err := NewHMACSigner("signer-secret", "pennywise-test")
	if err != nil {
		t.Fatalf("NewHMACSigner: %v", err)
	}

	if _, _, err := signer.Sign("", time.Minute); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if _, _, err := signer.Sign("user-42", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
	if _, err := signer.Verify(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := signer.Verify("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACSignerRejectsForeignSignature(t *testing.T) {
	a, _ := NewHMACSigner("secret-a", "pennywise-test")
	b, _ := NewHMACSigner("secret-b", "pennywise-test")

	token, _, err := a.Sign("user-42", time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := b.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACSignerRejectsForeignIssuer(t *testing.T) {
	a, _ := NewHMACSigner("shared-secret", "issuer-a")
	b, _ := NewHMACSigner("shared-secret", "issuer-b")

	token, _, err := a.Sign("user-42", time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := b.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACSignerExpiry(t *testing.T) {
	signer, err := NewHMACSigner("signer-secret", "pennywise-test")
	if err != nil {
		t.Fatalf("NewHMACSigner: %v", err)
	}
	base := time.Now().UTC()
	signer.now = func() time.Time { return base }

	token, _, err := signer.Sign("user-42", time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	signer.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := signer.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
