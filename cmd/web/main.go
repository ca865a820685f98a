package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"lifescientific.com/web/internal/cms"
	"lifescientific.com/web/internal/i18n"
	mw "lifescientific.com/web/internal/middleware"
	"lifescientific.com/web/internal/platform/config"
	"lifescientific.com/web/internal/platform/metrics"
	"lifescientific.com/web/internal/platform/observability"
)

const maxQueryBytes = 2048

var (
	templatesDir = "templates"
	publicDir    = "public"
	// devMode reparses templates per request and disables asset caching
	devMode    bool
	i18nBundle *i18n.Bundle
	cmsClient  *cms.Client
	siteCfg    config.Config
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "web: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr     string
		tmplPath string
		pubPath  string
		envFile  string
	)
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides LS_WEB_ADDR)")
	flag.StringVar(&tmplPath, "templates", "", "templates directory (overrides LS_WEB_TEMPLATES_DIR)")
	flag.StringVar(&pubPath, "public", "", "public assets directory (overrides LS_WEB_PUBLIC_DIR)")
	flag.StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, config.WithEnvFile(envFile))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	} else if port := os.Getenv("PORT"); port != "" && os.Getenv("LS_WEB_ADDR") == "" {
		// Cloud Run injects PORT
		cfg.Server.Addr = ":" + port
	}
	if tmplPath != "" {
		cfg.Paths.Templates = tmplPath
	}
	if pubPath != "" {
		cfg.Paths.Public = pubPath
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	closeCMS, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCMS()

	if !devMode {
		// fail fast on broken templates
		if _, err := templates(); err != nil {
			return fmt.Errorf("parse templates: %w", err)
		}
	}

	handler := newRouter(cfg, logger)
	if cfg.Server.H2C {
		handler = h2c.NewHandler(handler, &http2.Server{IdleTimeout: cfg.Server.IdleTimeout})
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("web listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Bool("dev", devMode),
			zap.Bool("sanity", cfg.CMS.SanityEnabled()),
			zap.Strings("languages", i18nBundle.Supported()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// setup loads translations and builds the CMS client into the package globals. The
// returned func releases the cache backend.
func setup(ctx context.Context, cfg config.Config, logger *zap.Logger) (func(), error) {
	siteCfg = cfg
	templatesDir = cfg.Paths.Templates
	publicDir = cfg.Paths.Public
	devMode = cfg.Site.DevMode

	bundle, err := i18n.Load(cfg.Paths.Locales, cfg.Site.DefaultLang, cfg.Site.Languages)
	if err != nil {
		return nil, fmt.Errorf("load locales: %w", err)
	}
	i18nBundle = bundle

	var (
		cache   cms.Cache
		closeFn = func() {}
	)
	if cfg.Cache.RedisURL != "" {
		rc, err := cms.NewRedisCache(cfg.Cache.RedisURL, cfg.Cache.Prefix)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = rc.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, using in-process cache", zap.Error(err))
			_ = rc.Close()
		} else {
			cache = rc
			closeFn = func() { _ = rc.Close() }
		}
	}
	if cache == nil {
		cache = cms.NewMemoryCache()
	}

	cmsClient = cms.NewClient(cms.Options{
		ProjectID:  cfg.CMS.ProjectID,
		Dataset:    cfg.CMS.Dataset,
		APIVersion: cfg.CMS.APIVersion,
		Token:      cfg.CMS.Token,
		UseCDN:     cfg.CMS.UseCDN,
		BaseURL:    cfg.CMS.BaseURL,
		ContentDir: cfg.Paths.Content,
		CacheTTL:   cfg.CMS.CacheTTL,
		Cache:      cache,
		HTTPClient: &http.Client{Timeout: cfg.CMS.Timeout},
		Logger:     logger.Named("cms"),
	})
	return closeFn, nil
}

func newRouter(cfg config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// RealIP trusts X-Forwarded-For; deploy only behind a proxy that sets it.
	r.Use(middleware.RealIP)
	r.Use(observability.TraceMiddleware(cfg.Telemetry.TraceProjectID))
	r.Use(observability.InjectLoggerMiddleware(logger))
	r.Use(observability.RequestLoggerMiddleware)
	r.Use(observability.RecoveryMiddleware(logger, ServerErrorHandler))
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(mw.HTMX)
	r.Use(mw.Locale(i18nBundle, strings.HasPrefix(cfg.Site.BaseURL, "https://")))
	r.Use(mw.VaryLocale)
	r.Use(mw.LimitQuery(maxQueryBytes))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Telemetry.MetricsEnabled {
		r.Handle(cfg.Telemetry.MetricsPath, metrics.Handler())
	}
	r.Handle("/assets/*", mw.AssetsWithCache("/assets", filepath.Join(publicDir, "assets"), devMode))

	r.Get("/", HomeHandler)
	r.Get("/products", ProductsHandler)
	r.Get("/products/{slug}", ProductDetailHandler)
	r.Get("/blog", BlogHandler)
	r.Get("/blog/{slug}", PostHandler)
	r.Get("/pages/{slug}", ContentPageHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", APIProductsHandler)
		r.Get("/products/{slug}", APIProductHandler)
	})

	r.NotFound(NotFoundHandler)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		if isAPIRequest(r) {
			writeAPIError(w, r, http.StatusMethodNotAllowed)
			return
		}
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})
	return r
}
