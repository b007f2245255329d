package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jonwraymond/docuapi/secret"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "DOCUAPI_"

// Legacy environment variables honoured below the prefixed ones.
const (
	LegacyPortEnv   = "PORT"
	LegacyFormatEnv = "LOAD_OPTION"
)

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
	resolver  *secret.Resolver
	lookupEnv func(string) (string, bool)
}

// Option configures the Loader.
type Option func(*Loader)

// WithConfigFile sets the YAML configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithOverrides applies values above every other source.
// Keys use dotted paths, e.g. "server.port".
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		if l.overrides == nil {
			l.overrides = make(map[string]any, len(values))
		}
		for k, v := range values {
			l.overrides[k] = v
		}
	}
}

// WithSecretResolver replaces the default env and file resolver.
func WithSecretResolver(r *secret.Resolver) Option {
	return func(l *Loader) {
		l.resolver = r
	}
}

// NewLoader creates a configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.resolver == nil {
		dir := ""
		if l.filePath != "" {
			dir = filepath.Dir(l.filePath)
		}
		l.resolver = secret.NewDefaultResolver(dir)
	}
	return l
}

// Load reads every source, resolves secrets and validates the result.
func Load(ctx context.Context, opts ...Option) (*Config, error) {
	return NewLoader(opts...).Load(ctx)
}

// Load reads every source, resolves secrets and validates the result.
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	if err := l.k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	if err := l.k.Load(mapProvider(l.legacyEnv()), nil); err != nil {
		return nil, fmt.Errorf("load legacy env: %w", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, err
	}

	if len(l.overrides) > 0 {
		nested := maps.Unflatten(l.overrides, ".")
		if err := l.k.Load(mapProvider(nested), nil); err != nil {
			return nil, fmt.Errorf("load overrides: %w", err)
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Access.KnownAPIs = cleanList(cfg.Access.KnownAPIs)
	cfg.Access.RequestEnabledAPIs = cleanList(cfg.Access.RequestEnabledAPIs)
	cfg.Access.ElevatedMembers = cleanList(cfg.Access.ElevatedMembers)

	if err := l.resolveSecrets(ctx, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Keys returns every loaded configuration key.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

// listKeys hold comma-separated values when set from the environment.
var listKeys = map[string]struct{}{
	"access.known_apis":           {},
	"access.request_enabled_apis": {},
	"access.elevated_members":     {},
}

// loadEnv loads prefixed variables. Names are matched against the known
// keys so that DOCUAPI_AUTH_SIGNING_SECRET maps to auth.signing_secret.
// Unknown names fall back to replacing the first underscore with a dot.
// List keys are split on commas.
func (l *Loader) loadEnv() error {
	known := make(map[string]string)
	for _, key := range l.k.Keys() {
		known[strings.ReplaceAll(key, ".", "_")] = key
	}

	transform := func(name, value string) (string, any) {
		name = strings.ToLower(strings.TrimPrefix(name, l.envPrefix))
		key, ok := known[name]
		if !ok {
			key = strings.Replace(name, "_", ".", 1)
		}
		if _, list := listKeys[key]; list {
			return key, strings.Split(value, ",")
		}
		return key, value
	}

	if err := l.k.Load(env.ProviderWithValue(l.envPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

func (l *Loader) legacyEnv() map[string]any {
	out := make(map[string]any)
	if v, ok := l.lookupEnv(LegacyPortEnv); ok && strings.TrimSpace(v) != "" {
		out["server"] = map[string]any{"port": strings.TrimSpace(v)}
	}
	if v, ok := l.lookupEnv(LegacyFormatEnv); ok && strings.TrimSpace(v) != "" {
		out["specs"] = map[string]any{"format": strings.TrimSpace(v)}
	}
	return out
}

func (l *Loader) resolveSecrets(ctx context.Context, cfg *Config) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"auth.username", &cfg.Auth.Username},
		{"auth.password", &cfg.Auth.Password},
		{"auth.signing_secret", &cfg.Auth.SigningSecret},
	}
	for _, f := range fields {
		resolved, err := l.resolver.ResolveValue(ctx, *f.value)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", f.name, err)
		}
		*f.value = resolved
	}
	return nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
