// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/kscriptgo/kscript/internal/app/preprocess"
	"github.com/kscriptgo/kscript/internal/config"
	"github.com/kscriptgo/kscript/internal/ctxlog"
	"github.com/kscriptgo/kscript/pkg/include"
	"github.com/kscriptgo/kscript/pkg/script"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every Cobra handler receives an App and builds a
	// session from it.
	App struct {
		Config ConfigProvider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		flags  rootFlags
		// colorScheme is the glamour style for issue rendering, taken from
		// ui.color_scheme once a session is built.
		colorScheme string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	rootFlags struct {
		verbose            bool
		silent             bool
		configPath         string
		consolidateImports bool
	}

	// session is everything one command invocation needs, built from the
	// loaded configuration.
	session struct {
		cfg      *config.Config
		logger   *slog.Logger
		cache    *include.CachingFetcher
		resolver *include.Resolver
		pipeline *preprocess.Pipeline
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:      deps.Config,
		stdin:       deps.Stdin,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
		colorScheme: config.ColorSchemeAuto.String(),
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadOptions maps the global --config flag to provider options.
func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.flags.configPath}
}

// verbose reports whether verbose output was requested by flag or config.
func (a *App) verbose(cfg *config.Config) bool {
	if a.flags.verbose {
		return true
	}
	return cfg != nil && cfg.UI.Verbose && !a.flags.silent
}

// logLevel picks the stderr log level: --silent wins over verbose settings.
func (a *App) logLevel(cfg *config.Config) slog.Level {
	switch {
	case a.flags.silent:
		return slog.LevelError
	case a.verbose(cfg):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// newSession loads configuration and builds the resolver stack. The returned
// context carries the session logger.
func (a *App) newSession(ctx context.Context) (*session, context.Context, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, ctx, err
	}

	a.colorScheme = cfg.UI.ColorScheme.String()
	logger := ctxlog.New(a.stderr, a.logLevel(cfg))
	ctx = ctxlog.WithLogger(ctx, logger)

	outputDir := cfg.CacheDir.String()
	if outputDir == "" {
		outputDir = include.DefaultOutputDir()
	}

	fetcher, cache, err := newFetcher(cfg.Includes, filepath.Join(outputDir, include.RemoteCacheDirName))
	if err != nil {
		return nil, ctx, err
	}

	resolver := include.NewResolver(
		include.WithFetcher(fetcher),
		include.WithOutputDir(outputDir),
		include.WithConsolidateImports(a.flags.consolidateImports),
	)

	logger.Debug("session ready",
		"output_dir", resolver.OutputDir(),
		"timeout", cfg.Includes.Timeout,
		"cache_entries", cfg.Includes.CacheEntries)

	return &session{
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		resolver: resolver,
		pipeline: preprocess.New(resolver, script.Dependency(cfg.Annotations.SupportLibrary)),
	}, ctx, nil
}

// newFetcher builds the scheme dispatcher for file, http and https URIs.
// Unless cfg.CacheEntries is zero, remote content is cached in memory and
// below cacheDir.
func newFetcher(cfg config.IncludesConfig, cacheDir string) (include.Fetcher, *include.CachingFetcher, error) {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "kscript/" + Version
	}

	remote := include.NewHTTPFetcher(
		include.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		include.WithUserAgent(userAgent),
		include.WithMaxBytes(cfg.MaxSize),
	)
	schemes := include.SchemeFetcher{
		include.ProtocolFile: include.FileFetcher{MaxBytes: cfg.MaxSize},
		"http":               remote,
		"https":              remote,
	}

	if cfg.CacheEntries == 0 {
		return schemes, nil, nil
	}
	cache, err := include.NewCachingFetcher(schemes, cfg.CacheEntries, include.WithCacheDir(cacheDir))
	if err != nil {
		return nil, nil, err
	}
	return cache, cache, nil
}
