package auth

import "context"

// CookieAuthenticator reads the identity token from a cookie.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: decode failures are reported in AuthResult.Error, never returned.
type CookieAuthenticator struct {
	tokens *TokenService
	cookie string
}

// NewCookieAuthenticator creates an authenticator for the named cookie.
// An empty name uses CookieName.
func NewCookieAuthenticator(tokens *TokenService, cookie string) *CookieAuthenticator {
	if cookie == "" {
		cookie = CookieName
	}
	return &CookieAuthenticator{tokens: tokens, cookie: cookie}
}

// Name returns "cookie".
func (a *CookieAuthenticator) Name() string {
	return "cookie"
}

// Supports reports whether the cookie was sent, even with an empty value.
func (a *CookieAuthenticator) Supports(_ context.Context, req *AuthRequest) bool {
	_, ok := req.Cookie(a.cookie)
	return ok
}

// Authenticate decodes the cookie token with the token service's decode mode.
func (a *CookieAuthenticator) Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token, ok := req.Cookie(a.cookie)
	if !ok {
		return AuthFailure(ErrMissingCredentials, a.Name()), nil
	}

	identity, err := a.tokens.Decode(token)
	if err != nil {
		result := AuthFailure(err, a.Name())
		result.Credential = token
		return result, nil
	}

	result := AuthSuccess(identity)
	result.Credential = token
	return result, nil
}

// Ensure CookieAuthenticator implements Authenticator
var _ Authenticator = (*CookieAuthenticator)(nil)
