package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie that carries the identity token.
const CookieName = "authToken"

// Default token settings.
const (
	DefaultIdentityClaim = "username"
	DefaultTokenTTL      = time.Hour
)

// TokenConfig configures the token service.
type TokenConfig struct {
	// Secret is the HMAC signing key.
	Secret []byte

	// IdentityClaim is the claim holding the principal.
	// Default: "username"
	IdentityClaim string

	// TTL is the token validity window.
	// Default: 1 hour
	TTL time.Duration

	// Issuer is written to the iss claim when set.
	Issuer string

	// VerifyOnDecode makes Decode check signature and expiry.
	// When false, Decode only parses the claims.
	VerifyOnDecode bool

	// Now overrides the clock. Default: time.Now
	Now func() time.Time
}

// TokenService issues and decodes identity tokens.
//
// Contract:
// - Concurrency: safe for concurrent use; it holds no mutable state.
// - Errors: decode failures map to ErrTokenMalformed, ErrTokenExpired or ErrInvalidCredentials.
type TokenService struct {
	config TokenConfig
}

// NewTokenService creates a token service.
func NewTokenService(config TokenConfig) (*TokenService, error) {
	if len(config.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if config.IdentityClaim == "" {
		config.IdentityClaim = DefaultIdentityClaim
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTokenTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &TokenService{config: config}, nil
}

// IdentityClaim returns the claim name the service reads the principal from.
func (s *TokenService) IdentityClaim() string {
	return s.config.IdentityClaim
}

// Issue signs a token embedding the identity.
func (s *TokenService) Issue(identity string) (string, error) {
	now := s.config.Now()
	claims := jwt.MapClaims{
		s.config.IdentityClaim: identity,
		"iat":                  now.Unix(),
		"exp":                  now.Add(s.config.TTL).Unix(),
	}
	if s.config.Issuer != "" {
		claims["iss"] = s.config.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", wrapJWTError(err)
	}
	return signed, nil
}

// Parse decodes the token claims without checking signature or expiry.
// The returned identity has Verified=false and must be treated as untrusted.
func (s *TokenService) Parse(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingCredentials
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	return s.buildIdentity(claims, false), nil
}

// Verify checks the signature and expiry, then decodes the claims.
func (s *TokenService) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingCredentials
	}

	claims := jwt.MapClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.config.Now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.config.Secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrInvalidCredentials
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	return s.buildIdentity(claims, true), nil
}

// Decode runs Verify or Parse depending on VerifyOnDecode.
func (s *TokenService) Decode(tokenString string) (*Identity, error) {
	if s.config.VerifyOnDecode {
		return s.Verify(tokenString)
	}
	return s.Parse(tokenString)
}

func (s *TokenService) buildIdentity(claims jwt.MapClaims, verified bool) *Identity {
	identity := &Identity{
		Method:   AuthMethodToken,
		Verified: verified,
		Claims:   make(map[string]any, len(claims)),
	}

	for k, v := range claims {
		identity.Claims[k] = v
	}

	if principal, ok := claims[s.config.IdentityClaim].(string); ok {
		identity.Principal = principal
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		identity.IssuedAt = iat.Time
	}

	return identity
}

func wrapJWTError(err error) error {
	return fmt.Errorf("jwt: %w", err)
}
