// Package catalog resolves API identifiers to OpenAPI/Swagger documents on disk.
//
// Specs live in a single directory and follow the naming pattern
// <apiID>-swagger.<ext>, where ext is the process-wide Format (json or yaml).
// Only identifiers on the configured allow-list are ever read. Documents are
// read and parsed on every call; nothing is cached.
//
// Every failure surfaces as ErrNotFound so callers keep a single 404 path,
// while the wrapped *LoadError records why (unknown id, missing file, or
// malformed file).
package catalog
