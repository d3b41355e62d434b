package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// the externally visible failure never reveals whether an account exists.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrEmailTaken indicates the registration email is already in use.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrUnauthenticated indicates no usable identity: missing token, or a
	// valid token whose user no longer exists.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrTokenRevoked indicates a blacklisted token.
	ErrTokenRevoked = errors.New("auth: token revoked")
)
