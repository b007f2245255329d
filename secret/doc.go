// Package secret resolves secret values referenced from configuration.
//
// The signing key and demo password may be written as:
//   - A literal:        api_doc_swagger
//   - An env reference: ${DOCUAPI_SIGNING_SECRET}
//   - A provider ref:   secretref:env:DOCUAPI_SIGNING_SECRET
//   - A file ref:       secretref:file:/run/secrets/signing_key
//
// `${VAR}` expansion is strict: a missing variable is an error rather
// than an empty string.
package secret
