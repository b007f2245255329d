package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jonwraymond/docuapi/access"
	"github.com/jonwraymond/docuapi/auth"
	"github.com/jonwraymond/docuapi/catalog"
	"github.com/jonwraymond/docuapi/observe"
	"github.com/jonwraymond/docuapi/swaggerui"
)

// Plain-text response bodies.
const (
	unauthorizedBody = "Unauthorized !! Either username or password is wrong"
	notFoundBody     = "Swagger is not found!!"
	throttledBody    = "Too many login attempts, try again later"
)

func (s *Server) requestLogger(r *http.Request) observe.Logger {
	logger := s.logger.WithRoute(RouteMeta(r))
	if id := middleware.GetReqID(r.Context()); id != "" {
		logger = logger.With(observe.F("request_id", id))
	}
	return logger
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	page := loginPage{
		Username: s.cfg.PrefillUsername,
		Password: s.cfg.PrefillPassword,
	}
	s.renderHTML(w, r, loginTemplate, page)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.requestLogger(r)

	query := r.URL.Query()
	username := query.Get("username")

	if limiter := s.cfg.LoginLimiter; limiter != nil {
		client := clientKey(r)
		if !limiter.Allow(client) {
			logger.Warn(r.Context(), "login throttled", observe.F("client", client))
			retry := int(math.Ceil(limiter.RetryAfter(client).Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
			writeText(w, http.StatusTooManyRequests, throttledBody)
			return
		}
	}

	identity, err := s.cfg.Credentials.Verify(ctx, username, query.Get("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) && !errors.Is(err, auth.ErrMissingCredentials) {
			logger.Error(r.Context(), "credential check failed", observe.F("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		logger.Warn(r.Context(), "login rejected", observe.F("username", username), observe.F("error", err))
		writeText(w, http.StatusOK, unauthorizedBody)
		return
	}

	token, err := s.cfg.Tokens.Issue(identity.Principal)
	if err != nil {
		logger.Error(r.Context(), "issue token", observe.F("error", err))
	} else {
		http.SetCookie(w, s.authCookie(token, int(s.cfg.CookieMaxAge.Seconds())))
	}

	cards, err := s.cfg.Catalog.Cards(ctx)
	if err != nil {
		logger.Error(r.Context(), "list specs", observe.F("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger.Info(r.Context(), "login accepted", observe.F("username", identity.Principal), observe.F("apis", len(cards)))
	s.renderHTML(w, r, indexTemplate, indexPage{Cards: cards})
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	apiID := chi.URLParam(r, "apiID")
	doc, ok := s.loadDocument(w, r, apiID)
	if !ok {
		return
	}
	logger := s.requestLogger(r)

	decision := s.cfg.Decider.Decide(r.Context(), access.Request{
		APIID:       apiID,
		Credentials: auth.NewAuthRequest(r),
	})
	s.metrics.RecordDecision(r.Context(), apiID, string(decision.Variant), string(decision.Dispatch))

	if decision.Err != nil {
		logger.Warn(r.Context(), "access options fell back to read-only", observe.F("error", decision.Err))
	}
	logger.Debug(r.Context(), "access decision",
		observe.F("variant", string(decision.Variant)),
		observe.F("dispatch", string(decision.Dispatch)),
		observe.F("principal", decision.Principal()),
		observe.F("elevated", decision.Elevated),
	)

	title := doc.Title()
	if title == "" {
		title = strings.ToUpper(apiID)
	}

	var buf bytes.Buffer
	page := swaggerui.Page{Title: title, AssetBase: s.cfg.AssetBase}
	if err := swaggerui.Render(&buf, doc, decision.Options, page); err != nil {
		logger.Error(r.Context(), "render swagger ui", observe.F("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w, r, chi.URLParam(r, "apiID"))
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		s.requestLogger(r).Error(r.Context(), "encode spec", observe.F("error", err))
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.authCookie("", -1))
	http.Redirect(w, r, "/", http.StatusFound)
}

// loadDocument writes the 404 response itself when the spec cannot be loaded.
func (s *Server) loadDocument(w http.ResponseWriter, r *http.Request, apiID string) (catalog.Document, bool) {
	doc, err := s.cfg.Catalog.Load(r.Context(), apiID)
	if err == nil {
		return doc, true
	}

	logger := s.requestLogger(r)
	fields := []observe.Field{observe.F("kind", string(catalog.KindOf(err))), observe.F("error", err)}
	if catalog.KindOf(err) == catalog.KindUnknownAPI {
		logger.Debug(r.Context(), "spec not served", fields...)
	} else {
		logger.Warn(r.Context(), "spec not served", fields...)
	}
	writeText(w, http.StatusNotFound, notFoundBody)
	return nil, false
}

func (s *Server) authCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) renderHTML(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.requestLogger(r).Error(r.Context(), "render page", observe.F("page", tmpl.Name()), observe.F("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// clientKey is the remote host without the port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// staticHandler serves regular files from dir. Directories are not listed.
func staticHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if dir == "" || name == "/" {
			http.NotFound(w, r)
			return
		}
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
