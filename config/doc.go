// Package config loads docuapi configuration.
//
// Sources are layered with koanf, later ones overriding earlier:
//  1. Built-in defaults
//  2. YAML file (optional)
//  3. Legacy variables PORT and LOAD_OPTION
//  4. DOCUAPI_-prefixed environment variables
//  5. Explicit overrides, typically command-line flags
//
// Environment keys map by replacing the first underscore after the prefix
// with a dot: DOCUAPI_AUTH_SIGNING_SECRET sets auth.signing_secret.
// List values are comma-separated.
package config
