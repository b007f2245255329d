// Package server is the HTTP presentation shell of DocuAPI.
//
// Routes:
//
//	GET /                          login form
//	GET /docs?username=&password=  demo login; sets the authToken cookie and lists APIs
//	GET /docs/{apiID}              Swagger UI for one API
//	GET /docs/{apiID}/spec.json    the raw API description
//	GET /logout                    clears the cookie
//	GET /static/*                  files from the static directory
//
// Health probes and /metrics are mounted when configured. Any other path
// falls through to the static directory.
package server
