package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envPrefix = "LS_WEB_"

	defaultEnvFile         = ".env"
	defaultAddr            = ":8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultRequestTimeout  = 20 * time.Second
	defaultBaseURL         = "http://localhost:8080"
	defaultLang            = "en"
	defaultLanguages       = "en,fr,es"
	defaultDataset         = "production"
	defaultAPIVersion      = "2023-05-03"
	defaultCMSTimeout      = 5 * time.Second
	defaultCacheTTL        = 5 * time.Minute
	defaultCachePrefix     = "lsweb:"
	defaultLogLevel        = "info"
	defaultMetricsPath     = "/metrics"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Paths     PathsConfig
	CMS       CMSConfig
	Cache     CacheConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	// H2C serves cleartext HTTP/2, as Cloud Run's end-to-end HTTP/2 mode expects.
	H2C bool
}

// SiteConfig holds public site settings.
type SiteConfig struct {
	BaseURL         string
	DefaultLang     string
	Languages       []string
	DevMode         bool
	PlausibleDomain string
	GAMeasurementID string
	ContactEmail    string
}

// PathsConfig points at the on-disk templates, assets, locales and fallback content.
type PathsConfig struct {
	Templates string
	Public    string
	Locales   string
	Content   string
}

// CMSConfig configures the Sanity query API. An empty ProjectID with no BaseURL means
// local content only.
type CMSConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	BaseURL    string
	Timeout    time.Duration
	CacheTTL   time.Duration
}

// CacheConfig selects the CMS cache backend. Without RedisURL an in-process cache is used.
type CacheConfig struct {
	RedisURL string
	Prefix   string
}

// LogConfig controls zap.
type LogConfig struct {
	Level       string
	Development bool
}

// TelemetryConfig toggles metrics exposure and trace project labelling.
type TelemetryConfig struct {
	MetricsEnabled bool
	MetricsPath    string
	TraceProjectID string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the site configuration from defaults, the .env file, the process
// environment and an optional explicit map, in increasing precedence.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		key = envPrefix + key
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	var invalid []string
	durationField := func(key string, fallback time.Duration) time.Duration {
		d, ok := durationWithDefault(lookup, key, fallback)
		if !ok {
			invalid = append(invalid, envPrefix+key)
		}
		return d
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:            stringWithDefault(lookup, "ADDR", defaultAddr),
			ReadTimeout:     durationField("READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationField("WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationField("IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationField("SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
			RequestTimeout:  durationField("REQUEST_TIMEOUT", defaultRequestTimeout),
			H2C:             boolWithDefault(lookup, "H2C", false),
		},
		Site: SiteConfig{
			BaseURL:         strings.TrimRight(stringWithDefault(lookup, "BASE_URL", defaultBaseURL), "/"),
			DefaultLang:     strings.ToLower(stringWithDefault(lookup, "DEFAULT_LANG", defaultLang)),
			Languages:       csvWithDefault(lookup, "LANGUAGES", defaultLanguages),
			DevMode:         boolWithDefault(lookup, "DEV", false),
			PlausibleDomain: stringWithDefault(lookup, "PLAUSIBLE_DOMAIN", ""),
			GAMeasurementID: stringWithDefault(lookup, "GA_MEASUREMENT_ID", ""),
			ContactEmail:    stringWithDefault(lookup, "CONTACT_EMAIL", ""),
		},
		Paths: PathsConfig{
			Templates: stringWithDefault(lookup, "TEMPLATES_DIR", "templates"),
			Public:    stringWithDefault(lookup, "PUBLIC_DIR", "public"),
			Locales:   stringWithDefault(lookup, "LOCALES_DIR", "locales"),
			Content:   stringWithDefault(lookup, "CONTENT_DIR", "content"),
		},
		CMS: CMSConfig{
			ProjectID:  stringWithDefault(lookup, "SANITY_PROJECT_ID", ""),
			Dataset:    stringWithDefault(lookup, "SANITY_DATASET", defaultDataset),
			APIVersion: strings.TrimPrefix(stringWithDefault(lookup, "SANITY_API_VERSION", defaultAPIVersion), "v"),
			Token:      stringWithDefault(lookup, "SANITY_TOKEN", ""),
			UseCDN:     boolWithDefault(lookup, "SANITY_USE_CDN", true),
			BaseURL:    stringWithDefault(lookup, "SANITY_BASE_URL", ""),
			Timeout:    durationField("SANITY_TIMEOUT", defaultCMSTimeout),
			CacheTTL:   durationField("CMS_CACHE_TTL", defaultCacheTTL),
		},
		Cache: CacheConfig{
			RedisURL: stringWithDefault(lookup, "REDIS_URL", ""),
			Prefix:   stringWithDefault(lookup, "CACHE_PREFIX", defaultCachePrefix),
		},
		Log: LogConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: boolWithDefault(lookup, "METRICS_ENABLED", true),
			MetricsPath:    stringWithDefault(lookup, "METRICS_PATH", defaultMetricsPath),
			TraceProjectID: stringWithDefault(lookup, "TRACE_PROJECT_ID", ""),
		},
	}
	// dev mode implies a console logger unless explicitly disabled
	cfg.Log.Development = boolWithDefault(lookup, "LOG_DEVELOPMENT", cfg.Site.DevMode)

	if err := validateConfig(cfg, invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SanityEnabled reports whether a remote CMS is configured.
func (c CMSConfig) SanityEnabled() bool {
	return strings.TrimSpace(c.ProjectID) != "" || strings.TrimSpace(c.BaseURL) != ""
}

func validateConfig(cfg Config, invalid []string) error {
	missing := append([]string(nil), invalid...)

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		missing = append(missing, "Server.Addr")
	}
	if u, err := url.Parse(cfg.Site.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		missing = append(missing, "Site.BaseURL")
	}
	if len(cfg.Site.Languages) == 0 {
		missing = append(missing, "Site.Languages")
	} else if !contains(cfg.Site.Languages, cfg.Site.DefaultLang) {
		missing = append(missing, "Site.DefaultLang")
	}
	if cfg.CMS.CacheTTL < 0 {
		missing = append(missing, "CMS.CacheTTL")
	}
	if cfg.CMS.SanityEnabled() && strings.TrimSpace(cfg.CMS.Dataset) == "" {
		missing = append(missing, "CMS.Dataset")
	}
	if cfg.CMS.BaseURL != "" {
		if u, err := url.Parse(cfg.CMS.BaseURL); err != nil || u.Scheme == "" {
			missing = append(missing, "CMS.BaseURL")
		}
	}
	if cfg.Cache.RedisURL != "" {
		if u, err := url.Parse(cfg.Cache.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			missing = append(missing, "Cache.RedisURL")
		}
	}
	if cfg.Telemetry.MetricsEnabled && !strings.HasPrefix(cfg.Telemetry.MetricsPath, "/") {
		missing = append(missing, "Telemetry.MetricsPath")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) (time.Duration, bool) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, true
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback, false
	}
	return d, true
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key, fallback string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		raw = fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" && !contains(out, trimmed) {
			out = append(out, trimmed)
		}
	}
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
