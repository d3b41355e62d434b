package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)
	for _, userID := range []string{"user-1", "5f8d0d55b54764421b7156c3"} {
		tok, err := issuer.Issue(userID)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		subject, err := issuer.Verify(tok)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if subject != userID {
			t.Fatalf("expected subject %q, got %q", userID, subject)
		}
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	issuer := newTestIssuer(t)
	tok, err := issuer.IssueWithTTL("user-1", -time.Second)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Verify(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	issuer := newTestIssuer(t)
	tok, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)
	if _, err := issuer.Verify(tampered); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifyForeignSecret(t *testing.T) {
	issuer := newTestIssuer(t)
	other, err := NewIssuer("a-different-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	tok, err := other.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Verify(tok); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	issuer := newTestIssuer(t)
	if _, err := issuer.Verify("not.a.token"); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("", time.Hour); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}

func TestExpiryReadsClaimWithoutVerification(t *testing.T) {
	issuer := newTestIssuer(t)
	tok, err := issuer.IssueWithTTL("user-1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expiresAt, ok := issuer.Expiry(tok)
	if !ok {
		t.Fatalf("expected expiry to be readable")
	}
	remaining := time.Until(expiresAt)
	if remaining <= 55*time.Minute || remaining > time.Hour {
		t.Fatalf("unexpected expiry horizon: %v", remaining)
	}
	if _, ok := issuer.Expiry("garbage"); ok {
		t.Fatalf("expected no expiry for garbage token")
	}
}
