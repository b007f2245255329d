package secret

import "errors"

var (
	// ErrMissingEnv is returned when a `${VAR}` reference names an unset variable.
	ErrMissingEnv = errors.New("missing required environment variables")

	// ErrUnknownProvider is returned for a secretref naming an unregistered provider.
	ErrUnknownProvider = errors.New("secret provider is not registered")

	// ErrEmptySecret is returned in strict mode when a provider yields "".
	ErrEmptySecret = errors.New("secret resolved to an empty value")
)
