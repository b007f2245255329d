// Package access decides how a documentation page is rendered for a request.
//
// The decision depends on four facts: whether the request carries an identity
// token, whether the token decodes, whether the API is request-enabled, and
// whether the decoded identity is an elevated member. The result is a
// swaggerui.Options value.
//
// Two behaviors are kept exactly as the gate has always rendered them:
//
//   - A token holder viewing a non-enabled API gets the try-out CSS nested
//     inside SwaggerOptions, where the UI ignores it, next to the bearer
//     pre-fill.
//   - Token holders who are not elevated members get the default options,
//     whatever the API's enablement.
//   - A sent but empty authToken cookie is decoded like any other token. It
//     fails, and the read-only fallback is rendered.
package access
