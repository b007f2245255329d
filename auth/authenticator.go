package auth

import (
	"context"
	"net/http"
)

// Authenticator turns request credentials into an identity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines.
// - Errors: Authenticate returns (nil, error) for internal errors and (AuthResult, nil) otherwise.
type Authenticator interface {
	// Name returns a unique identifier for this authenticator.
	Name() string

	// Supports reports whether the request carries this authenticator's credential.
	Supports(ctx context.Context, req *AuthRequest) bool

	// Authenticate validates the credential.
	Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error)
}

// AuthRequest contains the information needed for authentication.
type AuthRequest struct {
	// Headers contains HTTP headers.
	Headers map[string][]string

	// Cookies maps cookie names to values. A present but empty cookie maps to "".
	Cookies map[string]string

	// Resource is the target resource (optional, for context).
	Resource string
}

// NewAuthRequest copies the headers and cookies of r.
func NewAuthRequest(r *http.Request) *AuthRequest {
	req := &AuthRequest{
		Headers:  r.Header.Clone(),
		Cookies:  make(map[string]string),
		Resource: r.URL.Path,
	}
	for _, c := range r.Cookies() {
		if _, seen := req.Cookies[c.Name]; !seen {
			req.Cookies[c.Name] = c.Value
		}
	}
	return req
}

// GetHeader returns the first value for a header, or empty string.
func (r *AuthRequest) GetHeader(key string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return http.Header(r.Headers).Get(key)
}

// Cookie returns the named cookie value and whether it was sent.
func (r *AuthRequest) Cookie(name string) (string, bool) {
	if r == nil || r.Cookies == nil {
		return "", false
	}
	v, ok := r.Cookies[name]
	return v, ok
}

// AuthResult is the result of an authentication attempt.
type AuthResult struct {
	// Authenticated is true if authentication succeeded.
	Authenticated bool

	// Identity is the authenticated identity (only if Authenticated=true).
	Identity *Identity

	// Credential is the raw credential that was presented, set on success and failure.
	Credential string

	// Error is the authentication error (only if Authenticated=false).
	Error error

	// Method indicates which authenticator method was used.
	Method string
}

// AuthSuccess creates a successful authentication result.
func AuthSuccess(identity *Identity) *AuthResult {
	return &AuthResult{
		Authenticated: true,
		Identity:      identity,
		Method:        string(identity.Method),
	}
}

// AuthFailure creates a failed authentication result.
func AuthFailure(err error, method string) *AuthResult {
	return &AuthResult{
		Authenticated: false,
		Error:         err,
		Method:        method,
	}
}
