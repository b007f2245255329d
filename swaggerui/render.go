package swaggerui

import (
	"fmt"
	"html/template"
	"io"
)

// DefaultAssetBase serves the swagger-ui-dist bundle.
const DefaultAssetBase = "https://unpkg.com/swagger-ui-dist@5"

// Page configures the HTML shell around the UI.
type Page struct {
	// Title is the document title.
	Title string

	// AssetBase is the base URL of swagger-ui-dist.
	// Default: DefaultAssetBase
	AssetBase string
}

type pageData struct {
	Title          string
	AssetBase      string
	CustomCSS      template.CSS
	Spec           any
	SwaggerOptions *SwaggerOptions
}

var pageTemplate = template.Must(template.New("swagger-ui").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="{{.AssetBase}}/swagger-ui.css">
  <link rel="icon" type="image/png" href="/DocuAPI_icon.png">
  <style>
    html { box-sizing: border-box; overflow-y: scroll; }
    *, *:before, *:after { box-sizing: inherit; }
    body { margin: 0; background: #fafafa; }
  </style>
  {{- if .CustomCSS}}
  <style>{{.CustomCSS}}</style>
  {{- end}}
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="{{.AssetBase}}/swagger-ui-bundle.js"></script>
  <script src="{{.AssetBase}}/swagger-ui-standalone-preset.js"></script>
  <script>
    window.onload = function () {
      var options = {{.SwaggerOptions}};
      var config = Object.assign({
        spec: {{.Spec}},
        dom_id: "#swagger-ui",
        deepLinking: true,
        presets: [SwaggerUIBundle.presets.apis, SwaggerUIStandalonePreset],
        plugins: [SwaggerUIBundle.plugins.DownloadUrl],
        layout: "StandaloneLayout"
      }, options);
      var ui = SwaggerUIBundle(config);
      if (options.authAction) {
        ui.authActions.authorize(options.authAction);
      }
      window.ui = ui;
    };
  </script>
</body>
</html>
`))

// Render writes the UI page for spec with the given options.
func Render(w io.Writer, spec any, opts Options, page Page) error {
	if page.AssetBase == "" {
		page.AssetBase = DefaultAssetBase
	}
	if page.Title == "" {
		page.Title = "Swagger UI"
	}

	swaggerOptions := opts.SwaggerOptions
	if swaggerOptions == nil {
		swaggerOptions = &SwaggerOptions{}
	}

	data := pageData{
		Title:          page.Title,
		AssetBase:      page.AssetBase,
		CustomCSS:      template.CSS(opts.CustomCSS),
		Spec:           spec,
		SwaggerOptions: swaggerOptions,
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("swaggerui: render: %w", err)
	}
	return nil
}
