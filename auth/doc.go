// Package auth provides the identity primitives behind the documentation gate.
//
// It issues and decodes signed identity tokens (HS256 JWTs carried in the
// authToken cookie) and verifies login credentials. Decoding is split into
// Parse, which reads claims without checking the signature or expiry, and
// Verify, which checks both. Identities returned by Parse are untrusted.
package auth
