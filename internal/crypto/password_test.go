package crypto

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost, 2)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return h
}

func TestHashAndCompareRoundTrip(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	for _, password := range []string{"secret123", "pässwörd", "a b c d e f"} {
		hash, err := h.Hash(ctx, password)
		if err != nil {
			t.Fatalf("hash %q: %v", password, err)
		}
		match, err := h.Compare(ctx, hash, password)
		if err != nil {
			t.Fatalf("compare %q: %v", password, err)
		}
		if !match {
			t.Fatalf("expected %q to match its own hash", password)
		}
	}
}

func TestCompareWrongPassword(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	match, err := h.Compare(ctx, hash, "battery-staple")
	if err != nil {
		t.Fatalf("compare returned error on mismatch: %v", err)
	}
	if match {
		t.Fatalf("expected mismatch for wrong password")
	}
}

func TestHashesEmbedFreshSalt(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	first, err := h.Hash(ctx, "secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := h.Hash(ctx, "secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if string(first) == string(second) {
		t.Fatalf("expected distinct hashes for the same password")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	h := newTestHasher(t)
	if _, err := h.Hash(context.Background(), ""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestCompareMalformedHash(t *testing.T) {
	h := newTestHasher(t)
	if _, err := h.Compare(context.Background(), []byte("not-a-bcrypt-hash"), "whatever"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}

func TestNewHasherRejectsBadCost(t *testing.T) {
	if _, err := NewHasher(bcrypt.MaxCost+1, 1); err == nil {
		t.Fatalf("expected error for out-of-range cost")
	}
}

func TestHashCancelledContext(t *testing.T) {
	h := newTestHasher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Fill the semaphore so acquisition has to wait on the context.
	h.sem <- struct{}{}
	h.sem <- struct{}{}
	if _, err := h.Hash(ctx, "secret123"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
