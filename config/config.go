package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/docuapi/auth"
	"github.com/jonwraymond/docuapi/catalog"
)

// Config is the root configuration for docuapi.
type Config struct {
	Server  ServerSection  `koanf:"server"`
	Specs   SpecsSection   `koanf:"specs"`
	Access  AccessSection  `koanf:"access"`
	Auth    AuthSection    `koanf:"auth"`
	Observe ObserveSection `koanf:"observe"`
}

// ServerSection configures the HTTP listener and static assets.
type ServerSection struct {
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	StaticDir string `koanf:"static_dir"`

	// AssetBase is where the Swagger UI bundle is fetched from.
	AssetBase string `koanf:"asset_base"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// TrustProxy reads the client address from X-Forwarded-For.
	TrustProxy bool `koanf:"trust_proxy"`
}

// Addr returns host:port.
func (s ServerSection) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SpecsSection configures where API descriptions are read from.
type SpecsSection struct {
	// Format is json or yaml.
	Format string `koanf:"format"`

	// Dir defaults to swagger-json or swagger-yaml by format.
	Dir string `koanf:"dir"`
}

// SpecDir returns Dir, or the per-format default.
func (s SpecsSection) SpecDir() string {
	if s.Dir != "" {
		return s.Dir
	}
	format, err := catalog.ParseFormat(s.Format)
	if err != nil {
		return ""
	}
	return format.DefaultDir()
}

// AccessSection holds the allow-list and membership sets.
type AccessSection struct {
	KnownAPIs          []string `koanf:"known_apis"`
	RequestEnabledAPIs []string `koanf:"request_enabled_apis"`
	ElevatedMembers    []string `koanf:"elevated_members"`
}

// AuthSection configures the demo login and the identity token.
type AuthSection struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	SigningSecret string `koanf:"signing_secret"`
	IdentityClaim string `koanf:"identity_claim"`
	Issuer        string `koanf:"issuer"`

	TokenTTL     time.Duration `koanf:"token_ttl"`
	CookieMaxAge time.Duration `koanf:"cookie_max_age"`

	// VerifyTokens checks signature and expiry when reading the cookie.
	VerifyTokens bool `koanf:"verify_tokens"`

	// PrefillLogin fills the login form with the demo credentials.
	PrefillLogin bool `koanf:"prefill_login"`

	SecureCookie bool `koanf:"secure_cookie"`

	// LoginRate is login attempts regained per second per client; 0 disables throttling.
	LoginRate  float64 `koanf:"login_rate"`
	LoginBurst int     `koanf:"login_burst"`
}

// ObserveSection configures logging, tracing and metrics.
type ObserveSection struct {
	ServiceName string        `koanf:"service_name"`
	Version     string        `koanf:"version"`
	Logging     LoggingConfig `koanf:"logging"`
	Tracing     TracingConfig `koanf:"tracing"`
	Metrics     MetricsConfig `koanf:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Enabled bool   `koanf:"enabled"`
	Level   string `koanf:"level"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled   bool    `koanf:"enabled"`
	Exporter  string  `koanf:"exporter"`
	SamplePct float64 `koanf:"sample_pct"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter"`
}

// Default values.
const (
	DefaultHost            = ""
	DefaultPort            = 8080
	DefaultStaticDir       = "public"
	DefaultUsername        = "abc@xyz.com"
	DefaultPassword        = "123456"
	DefaultSigningSecret   = "api_doc_swagger"
	DefaultCookieMaxAge    = 24 * time.Hour
	DefaultShutdownTimeout = 10 * time.Second
	DefaultServiceName     = "docuapi"
	DefaultLoginBurst      = 10
)

// defaults returns the built-in configuration as a nested map.
func defaults() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"host":             DefaultHost,
			"port":             DefaultPort,
			"static_dir":       DefaultStaticDir,
			"asset_base":       "",
			"shutdown_timeout": DefaultShutdownTimeout.String(),
			"trust_proxy":      false,
		},
		"specs": map[string]any{
			"format": string(catalog.FormatJSON),
			"dir":    "",
		},
		"access": map[string]any{
			"known_apis":           []string{"api1", "api2"},
			"request_enabled_apis": []string{"api1"},
			"elevated_members":     []string{DefaultUsername},
		},
		"auth": map[string]any{
			"username":       DefaultUsername,
			"password":       DefaultPassword,
			"signing_secret": DefaultSigningSecret,
			"identity_claim": auth.DefaultIdentityClaim,
			"issuer":         "",
			"token_ttl":      auth.DefaultTokenTTL.String(),
			"cookie_max_age": DefaultCookieMaxAge.String(),
			"verify_tokens":  false,
			"prefill_login":  true,
			"secure_cookie":  false,
			"login_rate":     0.0,
			"login_burst":    DefaultLoginBurst,
		},
		"observe": map[string]any{
			"service_name": DefaultServiceName,
			"version":      "",
			"logging": map[string]any{
				"enabled": true,
				"level":   "info",
			},
			"tracing": map[string]any{
				"enabled":    false,
				"exporter":   "none",
				"sample_pct": 1.0,
			},
			"metrics": map[string]any{
				"enabled":  false,
				"exporter": "none",
			},
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if _, err := catalog.ParseFormat(c.Specs.Format); err != nil {
		problems = append(problems, fmt.Sprintf("specs.format %q must be json or yaml", c.Specs.Format))
	}
	if len(c.Access.KnownAPIs) == 0 {
		problems = append(problems, "access.known_apis is empty")
	}
	if strings.TrimSpace(c.Auth.Username) == "" || c.Auth.Password == "" {
		problems = append(problems, "auth.username and auth.password are required")
	}
	if c.Auth.SigningSecret == "" {
		problems = append(problems, "auth.signing_secret is required")
	}
	if strings.TrimSpace(c.Auth.IdentityClaim) == "" {
		problems = append(problems, "auth.identity_claim is required")
	}
	if c.Auth.TokenTTL < 0 || c.Auth.CookieMaxAge < 0 {
		problems = append(problems, "auth durations must not be negative")
	}
	if c.Auth.LoginRate < 0 || c.Auth.LoginBurst < 0 {
		problems = append(problems, "auth.login_rate and auth.login_burst must not be negative")
	}
	if pct := c.Observe.Tracing.SamplePct; pct < 0 || pct > 1 {
		problems = append(problems, fmt.Sprintf("observe.tracing.sample_pct %v must be in [0,1]", pct))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
