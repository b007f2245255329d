package auth

import "time"

// AuthMethod indicates how an identity was obtained.
type AuthMethod string

const (
	AuthMethodPassword  AuthMethod = "password"
	AuthMethodToken     AuthMethod = "token"
	AuthMethodAnonymous AuthMethod = "anonymous"
)

// Identity represents a principal known to the gate.
type Identity struct {
	// Principal is the identity claim value (e.g., the login email).
	Principal string

	// Method indicates how the identity was obtained.
	Method AuthMethod

	// Verified is true only when the token signature and expiry were checked.
	Verified bool

	// Claims contains the raw claims from the token.
	Claims map[string]any

	// ExpiresAt is when this identity expires.
	ExpiresAt time.Time

	// IssuedAt is when the token was issued.
	IssuedAt time.Time
}

// IsExpired checks if the identity has expired.
func (id *Identity) IsExpired() bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(id.ExpiresAt)
}

// IsAnonymous returns true if this is an anonymous identity.
func (id *Identity) IsAnonymous() bool {
	return id == nil || id.Method == AuthMethodAnonymous || id.Principal == ""
}

// ClaimString returns the claim as a string, or "" if absent or not a string.
func (id *Identity) ClaimString(name string) string {
	if id == nil || id.Claims == nil {
		return ""
	}
	s, _ := id.Claims[name].(string)
	return s
}

// AnonymousIdentity creates a default anonymous identity.
func AnonymousIdentity() *Identity {
	return &Identity{
		Method: AuthMethodAnonymous,
		Claims: make(map[string]any),
	}
}
