package token

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"testing"
	"time"
)

func testService(t *testing.T) *Service {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return NewServiceFromKey(key, "test-issuer", time.Hour)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	t.Parallel()
	svc := testService(t)

	raw, err := svc.Sign(Claims{Subject: "user:abc", Email: "a@example.com", Name: "Ada"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := svc.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user:abc" {
		t.Errorf("subject = %q, want user:abc", claims.Subject)
	}
	if claims.Email != "a@example.com" {
		t.Errorf("email = %q, want a@example.com", claims.Email)
	}
	if claims.Issuer != "test-issuer" {
		t.Errorf("issuer = %q, want test-issuer", claims.Issuer)
	}
	if claims.Role != RoleUser {
		t.Errorf("role = %q, want default %q", claims.Role, RoleUser)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()
	svc := testService(t)

	raw, err := svc.Sign(Claims{
		Subject:   "user:abc",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = svc.Verify(raw)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer := NewServiceFromKey(key, "other-issuer", time.Hour)
	verifier := NewServiceFromKey(key, "test-issuer", time.Hour)

	raw, err := signer.Sign(Claims{Subject: "user:abc"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = verifier.Verify(raw)
	if !errors.Is(err, ErrUnknownIssuer) {
		t.Errorf("err = %v, want ErrUnknownIssuer", err)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()
	svc := testService(t)

	raw, err := svc.Sign(Claims{Subject: "user:abc"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parts := strings.Split(raw, ".")
	// Swap the claims segment for a forged one; the signature no longer matches.
	forged := parts[0] + "." + b64encode([]byte(`{"sub":"user:evil","iss":"test-issuer"}`)) + "." + parts[2]

	_, err = svc.Verify(forged)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_ForeignKey(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	other := testService(t)

	raw, err := other.Sign(Claims{Subject: "user:abc"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Verify(raw); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()
	svc := testService(t)

	for _, raw := range []string{"", "abc", "a.b", "a.b.c.d", "!!!.???.###"} {
		if _, err := svc.Verify(raw); err == nil {
			t.Errorf("Verify(%q): expected error", raw)
		}
	}
}

func TestClaims_IsAdmin(t *testing.T) {
	t.Parallel()

	if (&Claims{Role: RoleUser}).IsAdmin() {
		t.Error("user role reported as admin")
	}
	if !(&Claims{Role: RoleAdmin}).IsAdmin() {
		t.Error("admin role not reported as admin")
	}
}
