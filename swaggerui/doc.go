// Package swaggerui renders a Swagger UI page for a parsed spec.
//
// Options mirrors the option object of the swagger-ui-express setup call:
// a top-level CustomCSS injected into the page, and SwaggerOptions merged
// into the SwaggerUIBundle configuration. An AuthAction in SwaggerOptions
// pre-authorizes the UI once it loads. CustomCSS nested inside
// SwaggerOptions is passed through to the bundle, which ignores it.
package swaggerui
