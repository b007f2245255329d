package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jonwraymond/docuapi/access"
	"github.com/jonwraymond/docuapi/auth"
	"github.com/jonwraymond/docuapi/catalog"
	"github.com/jonwraymond/docuapi/health"
	"github.com/jonwraymond/docuapi/observe"
	"github.com/jonwraymond/docuapi/resilience"
	"github.com/jonwraymond/docuapi/swaggerui"
)

// DefaultCookieMaxAge is the authToken cookie lifetime.
const DefaultCookieMaxAge = 24 * time.Hour

// Config holds the server's collaborators and settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	Catalog     *catalog.Loader
	Decider     *access.Decider
	Tokens      *auth.TokenService
	Credentials auth.CredentialVerifier

	// Logger defaults to a no-op logger.
	Logger observe.Logger

	// Metrics defaults to no-op metrics.
	Metrics observe.Metrics

	// Telemetry wraps every request when set.
	Telemetry *observe.HTTPMiddleware

	// Health mounts /healthz, /readyz and /health when set.
	Health *health.Aggregator

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	// LoginLimiter throttles login attempts per client address when set.
	LoginLimiter *resilience.LoginLimiter

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool

	// StaticDir holds the stylesheet, logo and icon.
	StaticDir string

	// AssetBase is where the Swagger UI bundle is loaded from.
	AssetBase string

	// CookieMaxAge is the authToken cookie lifetime.
	// Default: 24 hours
	CookieMaxAge time.Duration

	// SecureCookie marks the cookie Secure.
	SecureCookie bool

	// Prefill fills the login form with these credentials when non-empty.
	PrefillUsername string
	PrefillPassword string
}

// Server serves the documentation site.
type Server struct {
	cfg        Config
	logger     observe.Logger
	metrics    observe.Metrics
	handler    http.Handler
	httpServer *http.Server
}

// New validates cfg and builds the router.
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Catalog == nil:
		return nil, ErrMissingCatalog
	case cfg.Decider == nil:
		return nil, ErrMissingDecider
	case cfg.Tokens == nil:
		return nil, ErrMissingTokens
	case cfg.Credentials == nil:
		return nil, ErrMissingCredentials
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = DefaultCookieMaxAge
	}
	if cfg.AssetBase == "" {
		cfg.AssetBase = swaggerui.DefaultAssetBase
	}

	s := &Server{
		cfg:     cfg,
		logger:  cfg.Logger.With(observe.F("component", "server")),
		metrics: cfg.Metrics,
	}
	s.handler = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	if s.cfg.Telemetry != nil {
		r.Use(s.cfg.Telemetry.Handler)
	}
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleLoginPage)
	r.Get("/docs", s.handleLogin)
	r.Get("/docs/{apiID}", s.handleDocs)
	r.Get("/docs/{apiID}/spec.json", s.handleSpec)
	r.Get("/logout", s.handleLogout)

	if s.cfg.Health != nil {
		health.RegisterHandlers(r, s.cfg.Health)
	}
	if s.cfg.MetricsHandler != nil {
		r.Handle("/metrics", s.cfg.MetricsHandler)
	}

	static := staticHandler(s.cfg.StaticDir)
	r.Handle("/static/*", http.StripPrefix("/static", static))
	r.NotFound(static.ServeHTTP)

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on l.
func (s *Server) Serve(l net.Listener) error {
	return s.httpServer.Serve(l)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// RouteMeta reports the matched chi route for telemetry.
// It is meant to be passed to observe.NewHTTPMiddleware.
func RouteMeta(r *http.Request) observe.RouteMeta {
	meta := observe.RouteMeta{Method: r.Method}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		meta.Route = rctx.RoutePattern()
		meta.APIID = rctx.URLParam("apiID")
	}
	return meta
}
