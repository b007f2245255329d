// docuapi serves Swagger UI documentation for a fixed set of API
// descriptions behind a demo login.
//
// Configuration comes from built-in defaults, an optional YAML file
// (--config), DOCUAPI_-prefixed environment variables, and finally the
// command-line flags. PORT and LOAD_OPTION are honoured for
// compatibility with older deployments.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/docuapi/access"
	"github.com/jonwraymond/docuapi/auth"
	"github.com/jonwraymond/docuapi/catalog"
	"github.com/jonwraymond/docuapi/config"
	"github.com/jonwraymond/docuapi/health"
	"github.com/jonwraymond/docuapi/observe"
	"github.com/jonwraymond/docuapi/resilience"
	"github.com/jonwraymond/docuapi/server"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// minSigningKeyLength is the key length below which readiness reports degraded.
const minSigningKeyLength = 32

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := newFlagSet()
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if v, _ := flagSet.GetBool("version"); v {
		fmt.Println("docuapi", version)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath, _ := flagSet.GetString("config")
	cfg, err := config.Load(ctx,
		config.WithConfigFile(configPath),
		config.WithOverrides(flagOverrides(flagSet)),
	)
	if err != nil {
		return err
	}
	if cfg.Observe.Version == "" {
		cfg.Observe.Version = version
	}

	return serve(ctx, cfg)
}

func newFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("docuapi", pflag.ContinueOnError)
	flagSet.String("config", "", "path to a YAML config file")
	flagSet.Int("port", config.DefaultPort, "listen port")
	flagSet.String("spec-dir", "", "directory holding the API descriptions")
	flagSet.String("format", "", "API description format: json or yaml")
	flagSet.Bool("version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

// flagOverrides returns config keys for the flags given on the command line.
func flagOverrides(flagSet *pflag.FlagSet) map[string]any {
	overrides := make(map[string]any)
	if flagSet.Changed("port") {
		port, _ := flagSet.GetInt("port")
		overrides["server.port"] = port
	}
	if flagSet.Changed("spec-dir") {
		dir, _ := flagSet.GetString("spec-dir")
		overrides["specs.dir"] = dir
	}
	if flagSet.Changed("format") {
		format, _ := flagSet.GetString("format")
		overrides["specs.format"] = format
	}
	return overrides
}

func serve(ctx context.Context, cfg *config.Config) error {
	obs, err := observe.NewObserver(ctx, observerConfig(cfg))
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()
	logger := obs.Logger()

	telemetry, metrics, err := observe.MiddlewareFromObserver(obs, server.RouteMeta)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}

	format, err := catalog.ParseFormat(cfg.Specs.Format)
	if err != nil {
		return err
	}
	loader, err := catalog.NewLoader(catalog.Config{
		Dir:       cfg.Specs.SpecDir(),
		Format:    format,
		KnownAPIs: cfg.Access.KnownAPIs,
	})
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:         []byte(cfg.Auth.SigningSecret),
		IdentityClaim:  cfg.Auth.IdentityClaim,
		TTL:            cfg.Auth.TokenTTL,
		Issuer:         cfg.Auth.Issuer,
		VerifyOnDecode: cfg.Auth.VerifyTokens,
	})
	if err != nil {
		return err
	}

	decider := access.NewDecider(access.Policy{
		RequestEnabled:  cfg.Access.RequestEnabledAPIs,
		ElevatedMembers: cfg.Access.ElevatedMembers,
	}, auth.NewCookieAuthenticator(tokens, auth.CookieName))

	checks := health.NewAggregator()
	checks.Register("spec_dir", health.NewDirChecker("spec_dir", loader.Dir(), format.FileSuffix()))
	checks.Register("signing_key", health.NewSecretLengthChecker("signing_key", []byte(cfg.Auth.SigningSecret), minSigningKeyLength))

	srvCfg := server.Config{
		Addr:           cfg.Server.Addr(),
		Catalog:        loader,
		Decider:        decider,
		Tokens:         tokens,
		Credentials:    auth.NewStaticCredentials(cfg.Auth.Username, cfg.Auth.Password),
		Logger:         logger,
		Metrics:        metrics,
		Telemetry:      telemetry,
		Health:         checks,
		MetricsHandler: obs.MetricsHandler(),
		StaticDir:      cfg.Server.StaticDir,
		AssetBase:      cfg.Server.AssetBase,
		CookieMaxAge:   cfg.Auth.CookieMaxAge,
		SecureCookie:   cfg.Auth.SecureCookie,
		TrustProxy:     cfg.Server.TrustProxy,
	}
	if cfg.Auth.LoginRate > 0 {
		srvCfg.LoginLimiter = resilience.NewLoginLimiter(resilience.LimiterConfig{
			Rate:  cfg.Auth.LoginRate,
			Burst: cfg.Auth.LoginBurst,
		})
	}
	if cfg.Auth.PrefillLogin {
		srvCfg.PrefillUsername = cfg.Auth.Username
		srvCfg.PrefillPassword = cfg.Auth.Password
	}
	srv, err := server.New(srvCfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "listening",
			observe.F("addr", srv.Addr()),
			observe.F("spec_dir", loader.Dir()),
			observe.F("format", string(format)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func observerConfig(cfg *config.Config) observe.Config {
	o := cfg.Observe
	return observe.Config{
		ServiceName: o.ServiceName,
		Version:     o.Version,
		Tracing: observe.TracingConfig{
			Enabled:   o.Tracing.Enabled,
			Exporter:  o.Tracing.Exporter,
			SamplePct: o.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  o.Metrics.Enabled,
			Exporter: o.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: o.Logging.Enabled,
			Level:   o.Logging.Level,
		},
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `docuapi serves Swagger UI pages for a fixed set of API descriptions.

Usage:
  docuapi [flags]

Environment:
  DOCUAPI_SERVER_PORT, DOCUAPI_SPECS_FORMAT, DOCUAPI_AUTH_SIGNING_SECRET, ...
  PORT and LOAD_OPTION are read when the prefixed variables are unset.

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
