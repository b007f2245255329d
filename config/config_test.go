package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/docuapi/secret"
)

// isolate clears variables a developer shell may export.
func isolate(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, DefaultEnvPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	t.Setenv(LegacyPortEnv, "")
	t.Setenv(LegacyFormatEnv, "")
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Specs.Format != "json" || cfg.Specs.SpecDir() != "swagger-json" {
		t.Errorf("Specs = %+v, SpecDir() = %q", cfg.Specs, cfg.Specs.SpecDir())
	}
	if !slices.Equal(cfg.Access.KnownAPIs, []string{"api1", "api2"}) {
		t.Errorf("KnownAPIs = %v", cfg.Access.KnownAPIs)
	}
	if !slices.Equal(cfg.Access.RequestEnabledAPIs, []string{"api1"}) {
		t.Errorf("RequestEnabledAPIs = %v", cfg.Access.RequestEnabledAPIs)
	}
	if !slices.Equal(cfg.Access.ElevatedMembers, []string{DefaultUsername}) {
		t.Errorf("ElevatedMembers = %v", cfg.Access.ElevatedMembers)
	}
	if cfg.Auth.Username != DefaultUsername || cfg.Auth.Password != DefaultPassword {
		t.Errorf("Auth credentials = %q/%q", cfg.Auth.Username, cfg.Auth.Password)
	}
	if cfg.Auth.SigningSecret != DefaultSigningSecret {
		t.Errorf("SigningSecret = %q", cfg.Auth.SigningSecret)
	}
	if cfg.Auth.TokenTTL != time.Hour || cfg.Auth.CookieMaxAge != 24*time.Hour {
		t.Errorf("TokenTTL = %v, CookieMaxAge = %v", cfg.Auth.TokenTTL, cfg.Auth.CookieMaxAge)
	}
	if cfg.Auth.IdentityClaim != "username" {
		t.Errorf("IdentityClaim = %q", cfg.Auth.IdentityClaim)
	}
	if cfg.Server.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Auth.LoginRate != 0 || cfg.Auth.LoginBurst != DefaultLoginBurst {
		t.Errorf("LoginRate = %v, LoginBurst = %d", cfg.Auth.LoginRate, cfg.Auth.LoginBurst)
	}
	if cfg.Server.TrustProxy {
		t.Error("TrustProxy = true, want false")
	}
}

func TestLoad_File(t *testing.T) {
	isolate(t)

	cfg, err := Load(context.Background(), WithConfigFile(filepath.Join("testdata", "docuapi.yaml")))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.StaticDir != "web" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Specs.SpecDir() != "swagger-yaml" {
		t.Errorf("SpecDir() = %q", cfg.Specs.SpecDir())
	}
	if !slices.Equal(cfg.Access.KnownAPIs, []string{"api1", "api3"}) {
		t.Errorf("KnownAPIs = %v", cfg.Access.KnownAPIs)
	}
	if !slices.Equal(cfg.Access.ElevatedMembers, []string{"lead@example.com"}) {
		t.Errorf("ElevatedMembers = %v", cfg.Access.ElevatedMembers)
	}
	// secretref:file resolves relative to the config file.
	if cfg.Auth.SigningSecret != "file-signing-key-with-at-least-32-bytes" {
		t.Errorf("SigningSecret = %q", cfg.Auth.SigningSecret)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute || !cfg.Auth.VerifyTokens {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.Observe.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Observe.Logging.Level)
	}
	// Untouched keys keep defaults.
	if cfg.Auth.Username != DefaultUsername {
		t.Errorf("Username = %q", cfg.Auth.Username)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t)

	if _, err := Load(context.Background(), WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))); err == nil {
		t.Fatal("Load() with missing file should fail")
	}
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("DOCUAPI_SERVER_PORT", "7070")
	t.Setenv("DOCUAPI_SPECS_FORMAT", "yml")
	t.Setenv("DOCUAPI_ACCESS_KNOWN_APIS", "api1, api2 ,api9")
	t.Setenv("DOCUAPI_AUTH_SIGNING_SECRET", "env-secret")
	t.Setenv("DOCUAPI_AUTH_PREFILL_LOGIN", "false")
	t.Setenv("DOCUAPI_OBSERVE_TRACING_SAMPLE_PCT", "0.25")
	t.Setenv("DOCUAPI_AUTH_LOGIN_RATE", "0.5")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Specs.SpecDir() != "swagger-yaml" {
		t.Errorf("SpecDir() = %q", cfg.Specs.SpecDir())
	}
	if !slices.Equal(cfg.Access.KnownAPIs, []string{"api1", "api2", "api9"}) {
		t.Errorf("KnownAPIs = %v", cfg.Access.KnownAPIs)
	}
	if cfg.Auth.SigningSecret != "env-secret" {
		t.Errorf("SigningSecret = %q", cfg.Auth.SigningSecret)
	}
	if cfg.Auth.PrefillLogin {
		t.Error("PrefillLogin = true, want false")
	}
	if cfg.Observe.Tracing.SamplePct != 0.25 {
		t.Errorf("SamplePct = %v", cfg.Observe.Tracing.SamplePct)
	}
	if cfg.Auth.LoginRate != 0.5 {
		t.Errorf("LoginRate = %v", cfg.Auth.LoginRate)
	}
}

func TestLoad_EnvListsSplitOnCommas(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
		get  func(*Config) []string
		want []string
	}{
		{
			name: "known apis",
			env:  "DOCUAPI_ACCESS_KNOWN_APIS",
			val:  "api1,api3",
			get:  func(c *Config) []string { return c.Access.KnownAPIs },
			want: []string{"api1", "api3"},
		},
		{
			name: "request enabled apis",
			env:  "DOCUAPI_ACCESS_REQUEST_ENABLED_APIS",
			val:  "api1,,api3 ",
			get:  func(c *Config) []string { return c.Access.RequestEnabledAPIs },
			want: []string{"api1", "api3"},
		},
		{
			name: "elevated members",
			env:  "DOCUAPI_ACCESS_ELEVATED_MEMBERS",
			val:  "a@x.com, b@x.com",
			get:  func(c *Config) []string { return c.Access.ElevatedMembers },
			want: []string{"a@x.com", "b@x.com"},
		},
		{
			name: "single value",
			env:  "DOCUAPI_ACCESS_ELEVATED_MEMBERS",
			val:  "a@x.com",
			get:  func(c *Config) []string { return c.Access.ElevatedMembers },
			want: []string{"a@x.com"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.env, tt.val)

			cfg, err := Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := tt.get(cfg); !slices.Equal(got, tt.want) {
				t.Errorf("%s = %q (len %d), want %q", tt.env, got, len(got), tt.want)
			}
		})
	}
}

func TestLoad_EnvCommaInScalarIsKept(t *testing.T) {
	isolate(t)
	t.Setenv("DOCUAPI_AUTH_SIGNING_SECRET", "a,b,c-with-enough-length-for-a-key")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.SigningSecret != "a,b,c-with-enough-length-for-a-key" {
		t.Errorf("SigningSecret = %q", cfg.Auth.SigningSecret)
	}
}

func TestLoad_LegacyEnv(t *testing.T) {
	isolate(t)
	t.Setenv(LegacyPortEnv, "3000")
	t.Setenv(LegacyFormatEnv, "yaml")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 || cfg.Specs.Format != "yaml" {
		t.Errorf("Port = %d, Format = %q", cfg.Server.Port, cfg.Specs.Format)
	}

	t.Setenv("DOCUAPI_SERVER_PORT", "4000")
	cfg, err = Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("prefixed variable should win, Port = %d", cfg.Server.Port)
	}
}

func TestLoad_OverridesWin(t *testing.T) {
	isolate(t)
	t.Setenv("DOCUAPI_SERVER_PORT", "7070")

	cfg, err := Load(context.Background(), WithOverrides(map[string]any{
		"server.port":  6060,
		"specs.dir":    "/srv/specs",
		"specs.format": "yaml",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("Server.Port = %d, want 6060", cfg.Server.Port)
	}
	if cfg.Specs.SpecDir() != "/srv/specs" {
		t.Errorf("SpecDir() = %q", cfg.Specs.SpecDir())
	}
}

func TestLoad_SecretResolution(t *testing.T) {
	isolate(t)
	t.Setenv("DOCUAPI_TEST_PASSWORD", "from-env")
	t.Setenv("DOCUAPI_AUTH_PASSWORD", "${DOCUAPI_TEST_PASSWORD}")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.Password != "from-env" {
		t.Errorf("Password = %q", cfg.Auth.Password)
	}

	t.Setenv("DOCUAPI_AUTH_SIGNING_SECRET", "${DOCUAPI_TEST_UNSET_SECRET}")
	_, err = Load(context.Background())
	if !errors.Is(err, secret.ErrMissingEnv) {
		t.Fatalf("Load() error = %v, want ErrMissingEnv", err)
	}
	if !strings.Contains(err.Error(), "auth.signing_secret") {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestLoad_CustomResolver(t *testing.T) {
	isolate(t)

	r := secret.NewResolver(true, secret.NewEnvProvider())
	t.Setenv("DOCUAPI_TEST_SIGNING", "custom")
	cfg, err := Load(context.Background(),
		WithSecretResolver(r),
		WithOverrides(map[string]any{"auth.signing_secret": "secretref:env:DOCUAPI_TEST_SIGNING"}),
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.SigningSecret != "custom" {
		t.Errorf("SigningSecret = %q", cfg.Auth.SigningSecret)
	}
}

func TestLoader_UnknownEnvKeyUsesFirstUnderscore(t *testing.T) {
	isolate(t)
	t.Setenv("DOCUAPI_EXTRA_SOME_KEY", "x")

	l := NewLoader()
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !slices.Contains(l.Keys(), "extra.some_key") {
		t.Errorf("Keys() = %v, want extra.some_key", l.Keys())
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerSection{Port: 8080},
			Specs:  SpecsSection{Format: "json"},
			Access: AccessSection{KnownAPIs: []string{"api1"}},
			Auth: AuthSection{
				Username:      "u",
				Password:      "p",
				SigningSecret: "s",
				IdentityClaim: "username",
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad format", func(c *Config) { c.Specs.Format = "xml" }, "specs.format"},
		{"no apis", func(c *Config) { c.Access.KnownAPIs = nil }, "known_apis"},
		{"no password", func(c *Config) { c.Auth.Password = "" }, "auth.password"},
		{"no secret", func(c *Config) { c.Auth.SigningSecret = "" }, "signing_secret"},
		{"no claim", func(c *Config) { c.Auth.IdentityClaim = " " }, "identity_claim"},
		{"negative ttl", func(c *Config) { c.Auth.TokenTTL = -time.Second }, "durations"},
		{"sample pct", func(c *Config) { c.Observe.Tracing.SamplePct = 2 }, "sample_pct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestServerSection_Addr(t *testing.T) {
	if got := (ServerSection{Port: 8080}).Addr(); got != ":8080" {
		t.Errorf("Addr() = %q", got)
	}
	if got := (ServerSection{Host: "127.0.0.1", Port: 80}).Addr(); got != "127.0.0.1:80" {
		t.Errorf("Addr() = %q", got)
	}
}
