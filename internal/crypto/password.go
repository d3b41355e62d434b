package crypto

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when an empty plaintext reaches the hasher.
var ErrEmptyPassword = errors.New("crypto: empty password")

// Hasher hashes and verifies passwords with bcrypt. The produced hash string
// embeds algorithm id, cost and salt, so the cost can be raised later without
// invalidating hashes already stored. A semaphore bounds how many bcrypt
// computations run at once so hashing cannot starve the request dispatch path.
type Hasher struct {
	cost int
	sem  chan struct{}
}

// NewHasher constructs a Hasher with the given cost and concurrency bound.
func NewHasher(cost, concurrency int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("crypto: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Hasher{cost: cost, sem: make(chan struct{}, concurrency)}, nil
}

// Hash derives a salted bcrypt hash from plaintext. Each call draws a fresh
// random salt.
func (h *Hasher) Hash(ctx context.Context, plain string) ([]byte, error) {
	if plain == "" {
		return nil, ErrEmptyPassword
	}
	if err := h.acquire(ctx); err != nil {
		return nil, err
	}
	defer h.release()
	return bcrypt.GenerateFromPassword([]byte(plain), h.cost)
}

// Compare checks plaintext against a stored hash. A mismatch returns
// (false, nil); an error is returned only for a malformed hash.
func (h *Hasher) Compare(ctx context.Context, hash []byte, plain string) (bool, error) {
	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.release()
	err := bcrypt.CompareHashAndPassword(hash, []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("crypto: compare password: %w", err)
	}
}

func (h *Hasher) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hasher) release() {
	<-h.sem
}
