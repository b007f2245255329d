package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/docuapi/access"
	"github.com/jonwraymond/docuapi/auth"
	"github.com/jonwraymond/docuapi/catalog"
	"github.com/jonwraymond/docuapi/health"
	"github.com/jonwraymond/docuapi/observe"
	"github.com/jonwraymond/docuapi/resilience"
)

const (
	testUser   = "abc@xyz.com"
	testPass   = "123456"
	testSecret = "test-secret-key-at-least-32-bytes"
)

var testSpecs = map[string]string{
	"api1-swagger.json": `{"openapi":"3.0.3","info":{"title":"Orders API","version":"1.0.0","description":"Create and track **orders**."},"paths":{}}`,
	"api2-swagger.json": `{"openapi":"3.0.3","info":{"title":"Hidden API","version":"1.0.0"},"paths":{}}`,
	"api3-swagger.json": `{"openapi":"3.0.3","info":{"title":"Payments API","version":"2.1.0"},"paths":{}}`,
}

type fixture struct {
	server *Server
	tokens *auth.TokenService
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()

	specDir := t.TempDir()
	for name, body := range testSpecs {
		if err := os.WriteFile(filepath.Join(specDir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write spec: %v", err)
		}
	}
	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "style.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatalf("write css: %v", err)
	}

	loader, err := catalog.NewLoader(catalog.Config{
		Dir:       specDir,
		Format:    catalog.FormatJSON,
		KnownAPIs: []string{"api1", "api3"},
	})
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte(testSecret)})
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	cfg := Config{
		Catalog:     loader,
		Decider:     access.NewDecider(access.Policy{RequestEnabled: []string{"api1"}, ElevatedMembers: []string{testUser}}, auth.NewCookieAuthenticator(tokens, "")),
		Tokens:      tokens,
		Credentials: auth.NewStaticCredentials(testUser, testPass),
		StaticDir:   staticDir,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{server: srv, tokens: tokens}
}

func (f *fixture) get(t *testing.T, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) tokenCookie(t *testing.T, principal string) *http.Cookie {
	t.Helper()
	token, err := f.tokens.Issue(principal)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestNew_RequiresDependencies(t *testing.T) {
	tokens, _ := auth.NewTokenService(auth.TokenConfig{Secret: []byte(testSecret)})
	loader, _ := catalog.NewLoader(catalog.Config{Dir: t.TempDir()})
	decider := access.NewDecider(access.Policy{}, auth.NewCookieAuthenticator(tokens, ""))
	creds := auth.NewStaticCredentials(testUser, testPass)

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"catalog", Config{Decider: decider, Tokens: tokens, Credentials: creds}, ErrMissingCatalog},
		{"decider", Config{Catalog: loader, Tokens: tokens, Credentials: creds}, ErrMissingDecider},
		{"tokens", Config{Catalog: loader, Decider: decider, Credentials: creds}, ErrMissingTokens},
		{"credentials", Config{Catalog: loader, Decider: decider, Tokens: tokens}, ErrMissingCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoginPage(t *testing.T) {
	t.Run("prefilled", func(t *testing.T) {
		f := newFixture(t, func(c *Config) {
			c.PrefillUsername = testUser
			c.PrefillPassword = testPass
		})
		rec := f.get(t, "/")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{"<title>DocuAPI</title>", `name="username"`, `value="abc@xyz.com"`, `action="/docs"`} {
			if !strings.Contains(body, want) {
				t.Errorf("login page missing %q", want)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		rec := newFixture(t).get(t, "/")
		if strings.Contains(rec.Body.String(), testUser) {
			t.Error("login page should not be prefilled")
		}
	})
}

func TestLogin_ValidCredentials(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/docs?username=abc%40xyz.com&password=123456")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cookie := findCookie(rec, auth.CookieName)
	if cookie == nil {
		t.Fatal("authToken cookie not set")
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if cookie.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Errorf("cookie MaxAge = %d, want 86400", cookie.MaxAge)
	}
	if cookie.Path != "/" {
		t.Errorf("cookie Path = %q, want /", cookie.Path)
	}

	identity, err := f.tokens.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("Verify(cookie) error = %v", err)
	}
	if identity.Principal != testUser {
		t.Errorf("principal = %q, want %q", identity.Principal, testUser)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "DocuAPI - Documenting API") {
		t.Error("index title missing")
	}
	for _, id := range []string{"api1", "api2", "api3"} {
		link := `<a href="/docs/` + id + `"`
		if strings.Count(body, link) != 1 {
			t.Errorf("index should contain exactly one card for %s", id)
		}
	}
	if !strings.Contains(body, "<strong>orders</strong>") {
		t.Error("card summary should render markdown")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"wrong password", "username=abc%40xyz.com&password=nope"},
		{"wrong username", "username=someone&password=123456"},
		{"missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newFixture(t).get(t, "/docs?"+tt.query)
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if findCookie(rec, auth.CookieName) != nil {
				t.Error("cookie must not be set")
			}
			if got := rec.Body.String(); got != unauthorizedBody {
				t.Errorf("body = %q, want %q", got, unauthorizedBody)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Content-Type = %q, want text/plain", ct)
			}
		})
	}
}

func TestLogin_VerifierFailure(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.Credentials = auth.CredentialVerifierFunc(func(context.Context, string, string) (*auth.Identity, error) {
			return nil, errors.New("directory offline")
		})
	})
	rec := f.get(t, "/docs?username=a&password=b")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestDocs_NotFound(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{"/docs/api9", "/docs/api2", "/docs/api9/spec.json"} {
		t.Run(target, func(t *testing.T) {
			rec := f.get(t, target)
			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rec.Code)
			}
			if got := rec.Body.String(); got != notFoundBody {
				t.Errorf("body = %q, want %q", got, notFoundBody)
			}
		})
	}
}

func TestDocs_AccessOptions(t *testing.T) {
	f := newFixture(t)
	elevated := f.tokenCookie(t, testUser)
	member := f.tokenCookie(t, "someone@xyz.com")

	tests := []struct {
		name       string
		target     string
		cookie     *http.Cookie
		wantHidden bool
		wantBearer bool
	}{
		{"anonymous enabled", "/docs/api1", nil, false, false},
		{"anonymous not enabled", "/docs/api3", nil, true, false},
		{"elevated enabled", "/docs/api1", elevated, false, true},
		{"elevated not enabled", "/docs/api3", elevated, true, true},
		{"member enabled", "/docs/api1", member, false, false},
		{"member not enabled", "/docs/api3", member, false, false},
		{"garbage token", "/docs/api3", &http.Cookie{Name: auth.CookieName, Value: "garbage"}, false, false},
		{"empty token enabled", "/docs/api1", &http.Cookie{Name: auth.CookieName, Value: ""}, true, false},
		{"empty token not enabled", "/docs/api3", &http.Cookie{Name: auth.CookieName, Value: ""}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}
			rec := f.get(t, tt.target, cookies...)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := rec.Body.String()
			if got := strings.Contains(body, "try-out"); got != tt.wantHidden {
				t.Errorf("try-out css present = %v, want %v", got, tt.wantHidden)
			}
			if got := strings.Contains(body, `"authAction":`); got != tt.wantBearer {
				t.Errorf("authAction present = %v, want %v", got, tt.wantBearer)
			}
			if tt.wantBearer && !strings.Contains(body, "Bearer "+tt.cookie.Value) {
				t.Error("bearer value should carry the cookie token")
			}
		})
	}
}

func TestDocs_PageTitle(t *testing.T) {
	rec := newFixture(t).get(t, "/docs/api1")
	if !strings.Contains(rec.Body.String(), "<title>Orders API</title>") {
		t.Error("page title should come from info.title")
	}
}

func TestSpecJSON(t *testing.T) {
	rec := newFixture(t).get(t, "/docs/api3/spec.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got, want map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if err := json.Unmarshal([]byte(testSpecs["api3-swagger.json"]), &want); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	gotInfo, _ := got["info"].(map[string]any)
	wantInfo, _ := want["info"].(map[string]any)
	if gotInfo["title"] != wantInfo["title"] || gotInfo["version"] != wantInfo["version"] {
		t.Errorf("info = %v, want %v", gotInfo, wantInfo)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/logout", f.tokenCookie(t, testUser))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
	cookie := findCookie(rec, auth.CookieName)
	if cookie == nil || cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Errorf("cookie = %+v, want cleared", cookie)
	}
}

func TestStaticFiles(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		target string
		want   int
	}{
		{"/style.css", http.StatusOK},
		{"/static/style.css", http.StatusOK},
		{"/missing.png", http.StatusNotFound},
		{"/static/", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := f.get(t, tt.target)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHealthAndMetricsMounts(t *testing.T) {
	agg := health.NewAggregator()
	agg.Register("ok", health.NewCheckerFunc("ok", func(context.Context) health.Result { return health.Healthy("fine") }))
	f := newFixture(t, func(c *Config) {
		c.Health = agg
		c.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		})
	})

	for _, target := range []string{"/healthz", "/readyz", "/health", "/metrics"} {
		if rec := f.get(t, target); rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", target, rec.Code)
		}
	}
}

type recordedRequest struct {
	meta   observe.RouteMeta
	status int
}

type recordingMetrics struct {
	mu        sync.Mutex
	requests  []recordedRequest
	decisions []string
}

func (m *recordingMetrics) RecordRequest(_ context.Context, meta observe.RouteMeta, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, recordedRequest{meta: meta, status: status})
}

func (m *recordingMetrics) RecordDecision(_ context.Context, apiID, variant, dispatch string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, apiID+"/"+variant+"/"+dispatch)
}

func TestTelemetry_RouteAndDecision(t *testing.T) {
	metrics := &recordingMetrics{}
	f := newFixture(t, func(c *Config) {
		c.Metrics = metrics
		c.Telemetry = observe.NewHTTPMiddleware(nil, metrics, nil, RouteMeta)
	})

	f.get(t, "/docs/api3")
	f.get(t, "/docs/api9")

	if len(metrics.requests) != 2 {
		t.Fatalf("recorded %d requests, want 2", len(metrics.requests))
	}
	first := metrics.requests[0]
	if first.meta.Route != "/docs/{apiID}" || first.meta.APIID != "api3" || first.status != http.StatusOK {
		t.Errorf("first request = %+v", first)
	}
	if second := metrics.requests[1]; second.status != http.StatusNotFound {
		t.Errorf("second status = %d, want 404", second.status)
	}

	want := "api3/" + string(access.VariantReadOnly) + "/" + string(access.DispatchComputed)
	if len(metrics.decisions) != 1 || metrics.decisions[0] != want {
		t.Errorf("decisions = %v, want [%s]", metrics.decisions, want)
	}
}

func TestRecoverer(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.Credentials = auth.CredentialVerifierFunc(func(context.Context, string, string) (*auth.Identity, error) {
			panic("boom")
		})
	})
	rec := f.get(t, "/docs?username=a&password=b")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestLogin_Throttled(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.LoginLimiter = resilience.NewLoginLimiter(resilience.LimiterConfig{Rate: 0.01, Burst: 2})
	})

	for i := 0; i < 2; i++ {
		if rec := f.get(t, "/docs?username=x&password=y"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d status = %d, want 200", i, rec.Code)
		}
	}
	rec := f.get(t, "/docs?username=abc%40xyz.com&password=123456")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if findCookie(rec, auth.CookieName) != nil {
		t.Error("throttled login must not set a cookie")
	}
}

func TestLogin_ThrottleUsesForwardedAddress(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.TrustProxy = true
		c.LoginLimiter = resilience.NewLoginLimiter(resilience.LimiterConfig{Rate: 0.01, Burst: 1})
	})

	send := func(forwardedFor string) int {
		req := httptest.NewRequest(http.MethodGet, "/docs?username=x&password=y", nil)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.7"); code != http.StatusOK {
		t.Fatalf("first client status = %d, want 200", code)
	}
	if code := send("203.0.113.8"); code != http.StatusOK {
		t.Errorf("second client status = %d, want 200", code)
	}
	if code := send("203.0.113.7"); code != http.StatusTooManyRequests {
		t.Errorf("repeat client status = %d, want 429", code)
	}
}
