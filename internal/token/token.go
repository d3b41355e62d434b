package token

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSecret is returned by NewIssuer when no signing secret is provided.
	ErrNoSecret = errors.New("token: signing secret not configured")
	// ErrExpired indicates a well-signed token past its expiry.
	ErrExpired = errors.New("token: expired")
	// ErrSignatureInvalid indicates a tampered, malformed or foreign-signed token.
	ErrSignatureInvalid = errors.New("token: signature invalid")
)

// Issuer signs and verifies session tokens. It holds no persisted state:
// validity is a pure function of the secret, the clock and the token itself.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer constructs an Issuer with a process-wide secret and default ttl.
// Rotating the secret invalidates all outstanding tokens.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue produces a signed token bound to userID, expiring after the default ttl.
func (i *Issuer) Issue(userID string) (string, error) {
	return i.IssueWithTTL(userID, i.ttl)
}

// IssueWithTTL produces a signed token with an explicit lifetime.
func (i *Issuer) IssueWithTTL(userID string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := jwtlib.RegisteredClaims{
		Subject:   userID,
		Issuer:    "uber-clone",
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks the signature, then expiry, and returns the subject user id.
// The jwt library validates the signature before any claim, so a forged token
// fails identically whether or not it is also expired.
func (i *Issuer) Verify(token string) (string, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &jwtlib.RegisteredClaims{}, func(t *jwtlib.Token) (interface{}, error) {
		return i.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}), jwtlib.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrSignatureInvalid
	}
	claims, ok := parsed.Claims.(*jwtlib.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrSignatureInvalid
	}
	return claims.Subject, nil
}

// Expiry extracts the exp claim without verifying the signature. Logout uses
// it to pick a pruning horizon for blacklist entries; it must never be used
// to trust a token.
func (i *Issuer) Expiry(token string) (time.Time, bool) {
	parser := jwtlib.NewParser()
	parsed, _, err := parser.ParseUnverified(token, &jwtlib.RegisteredClaims{})
	if err != nil {
		return time.Time{}, false
	}
	claims, ok := parsed.Claims.(*jwtlib.RegisteredClaims)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
