package server

import (
	"html/template"

	"github.com/jonwraymond/docuapi/catalog"
)

type loginPage struct {
	Username string
	Password string
}

type indexPage struct {
	Cards []catalog.Card
}

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>DocuAPI</title>
  <link rel="stylesheet" href="/style.css">
  <link rel="icon" type="image/png" href="/DocuAPI_icon.png">
</head>
<body>
  <div class="login">
    <img class="logo" src="/DocuAPI_logo.PNG" alt="DocuAPI">
    <p class="banner">DEMO REPRESENTATION</p>
    <form action="/docs" method="get">
      <input type="text" name="username" placeholder="Username" value="{{.Username}}" required>
      <input type="password" name="password" placeholder="Password" value="{{.Password}}" required>
      <button type="submit">Login</button>
    </form>
    <p class="note">SSO IS NOT AVAILABLE AT THIS MOMENT</p>
  </div>
</body>
</html>
`))

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>DocuAPI - Documenting API</title>
  <link rel="stylesheet" href="/style.css">
  <link rel="icon" type="image/png" href="/DocuAPI_icon.png">
</head>
<body>
  <h1>DocuAPI</h1>
  <div class="grid">
  {{- range .Cards}}
    <div class="card"><a href="{{.Href}}"{{if .Title}} title="{{.Title}}"{{end}}>{{.Label}}</a>{{if .Summary}}<div class="summary">{{.Summary}}</div>{{end}}</div>
  {{- end}}
  </div>
  <p><a class="logout" href="/logout">Log out</a></p>
</body>
</html>
`))
