package auth

import (
	"context"
	"crypto/subtle"
	"strings"
)

// CredentialVerifier checks a username/password pair.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: ErrMissingCredentials or ErrInvalidCredentials for rejected logins; others are internal.
type CredentialVerifier interface {
	// Name returns a unique identifier for this verifier.
	Name() string

	// Verify returns the identity for a valid pair.
	Verify(ctx context.Context, username, password string) (*Identity, error)
}

// StaticCredentials accepts a single configured username/password pair.
// It is a demo gate, not an identity provider.
type StaticCredentials struct {
	username string
	password string
}

// NewStaticCredentials creates a verifier for one fixed pair.
func NewStaticCredentials(username, password string) *StaticCredentials {
	return &StaticCredentials{username: username, password: password}
}

// Name returns "static".
func (c *StaticCredentials) Name() string {
	return "static"
}

// Verify compares both values in constant time.
func (c *StaticCredentials) Verify(_ context.Context, username, password string) (*Identity, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	userOK := ConstantTimeCompare(username, c.username)
	passOK := ConstantTimeCompare(password, c.password)
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	return &Identity{
		Principal: username,
		Method:    AuthMethodPassword,
		Verified:  true,
		Claims:    make(map[string]any),
	}, nil
}

// ConstantTimeCompare performs constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// CredentialVerifierFunc is an adapter to allow use of ordinary functions as verifiers.
type CredentialVerifierFunc func(ctx context.Context, username, password string) (*Identity, error)

// Name returns "func".
func (f CredentialVerifierFunc) Name() string {
	return "func"
}

// Verify calls the function.
func (f CredentialVerifierFunc) Verify(ctx context.Context, username, password string) (*Identity, error) {
	return f(ctx, username, password)
}

// Ensure StaticCredentials implements CredentialVerifier
var _ CredentialVerifier = (*StaticCredentials)(nil)

// Ensure CredentialVerifierFunc implements CredentialVerifier
var _ CredentialVerifier = CredentialVerifierFunc(nil)
