package swaggerui

// HideTryOutCSS hides the "Try it out" control, leaving read-only docs.
const HideTryOutCSS = ".swagger-ui .try-out { display: none }"

// BearerSchemeName is the security scheme name written into the auth entry.
const BearerSchemeName = "bearerAuth"

// BearerActionKey keys the bearer entry inside authAction.
const BearerActionKey = "bearerAction"

// Options controls how a spec is rendered. The zero value renders the
// unrestricted default UI.
type Options struct {
	// CustomCSS is injected into the page head.
	CustomCSS string `json:"customCss,omitempty"`

	// SwaggerOptions is merged into the SwaggerUIBundle configuration.
	SwaggerOptions *SwaggerOptions `json:"swaggerOptions,omitempty"`
}

// IsDefault reports whether o is the unrestricted default.
func (o Options) IsDefault() bool {
	return o.CustomCSS == "" && o.SwaggerOptions == nil
}

// HidesTryOut reports whether the page will hide the try-out control.
// Only the top-level CustomCSS reaches the page.
func (o Options) HidesTryOut() bool {
	return o.CustomCSS == HideTryOutCSS
}

// BearerValue returns the pre-filled bearer credential, or "".
func (o Options) BearerValue() string {
	if o.SwaggerOptions == nil {
		return ""
	}
	entry, ok := o.SwaggerOptions.AuthAction[BearerActionKey]
	if !ok {
		return ""
	}
	return entry.Value
}

// SwaggerOptions is the subset of SwaggerUIBundle configuration the gate sets.
type SwaggerOptions struct {
	// CustomCSS is not a SwaggerUIBundle option; it is carried as-is.
	CustomCSS string `json:"customCss,omitempty"`

	// AuthAction pre-authorizes security schemes, keyed by scheme name.
	AuthAction map[string]AuthEntry `json:"authAction,omitempty"`
}

// AuthEntry is one pre-authorized security scheme.
type AuthEntry struct {
	Name   string     `json:"name"`
	Schema AuthSchema `json:"schema"`
	Value  string     `json:"value"`
}

// AuthSchema describes the security scheme being pre-authorized.
type AuthSchema struct {
	Type         string `json:"type"`
	In           string `json:"in"`
	Name         string `json:"name"`
	Scheme       string `json:"scheme"`
	BearerFormat string `json:"bearerFormat"`
}

// BearerAuthAction builds the authAction that pre-fills a JWT bearer token.
func BearerAuthAction(token string) map[string]AuthEntry {
	return map[string]AuthEntry{
		BearerActionKey: {
			Name: BearerSchemeName,
			Schema: AuthSchema{
				Type:         "http",
				In:           "header",
				Name:         "Authorization",
				Scheme:       "",
				BearerFormat: "JWT",
			},
			Value: "Bearer " + token,
		},
	}
}
