package server

import "errors"

var (
	// ErrMissingCatalog is returned by New without a spec loader.
	ErrMissingCatalog = errors.New("server: catalog loader is required")

	// ErrMissingDecider is returned by New without an access decider.
	ErrMissingDecider = errors.New("server: access decider is required")

	// ErrMissingTokens is returned by New without a token service.
	ErrMissingTokens = errors.New("server: token service is required")

	// ErrMissingCredentials is returned by New without a credential verifier.
	ErrMissingCredentials = errors.New("server: credential verifier is required")
)
