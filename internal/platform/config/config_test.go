package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Site.DefaultLang != "en" {
		t.Errorf("expected default lang en, got %s", cfg.Site.DefaultLang)
	}
	if got := cfg.Site.Languages; len(got) != 3 || got[0] != "en" || got[1] != "fr" || got[2] != "es" {
		t.Errorf("unexpected default languages %v", got)
	}
	if cfg.CMS.SanityEnabled() {
		t.Error("expected sanity disabled without project id")
	}
	if cfg.CMS.Dataset != defaultDataset || cfg.CMS.APIVersion != defaultAPIVersion {
		t.Errorf("unexpected sanity defaults %s/%s", cfg.CMS.Dataset, cfg.CMS.APIVersion)
	}
	if !cfg.CMS.UseCDN {
		t.Error("expected CDN enabled by default")
	}
	if cfg.CMS.CacheTTL != defaultCacheTTL {
		t.Errorf("unexpected cache ttl %s", cfg.CMS.CacheTTL)
	}
	if cfg.Cache.RedisURL != "" {
		t.Errorf("expected no redis by default, got %s", cfg.Cache.RedisURL)
	}
	if cfg.Paths.Content != "content" || cfg.Paths.Templates != "templates" {
		t.Errorf("unexpected default paths %+v", cfg.Paths)
	}
	if !cfg.Telemetry.MetricsEnabled || cfg.Telemetry.MetricsPath != "/metrics" {
		t.Errorf("unexpected telemetry defaults %+v", cfg.Telemetry)
	}
	if cfg.Log.Development {
		t.Error("expected production logger by default")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"LS_WEB_ADDR":               ":9090",
		"LS_WEB_IDLE_TIMEOUT":       "2m",
		"LS_WEB_BASE_URL":           "https://www.lifescientific.com/",
		"LS_WEB_DEFAULT_LANG":       "FR",
		"LS_WEB_LANGUAGES":          "fr, en, fr",
		"LS_WEB_DEV":                "true",
		"LS_WEB_SANITY_PROJECT_ID":  "abc123",
		"LS_WEB_SANITY_DATASET":     "staging",
		"LS_WEB_SANITY_API_VERSION": "v2024-01-01",
		"LS_WEB_SANITY_TOKEN":       "read-token",
		"LS_WEB_SANITY_USE_CDN":     "off",
		"LS_WEB_CMS_CACHE_TTL":      "30s",
		"LS_WEB_REDIS_URL":          "redis://localhost:6379/2",
		"LS_WEB_PLAUSIBLE_DOMAIN":   "lifescientific.com",
		"LS_WEB_METRICS_ENABLED":    "no",
		"LS_WEB_H2C":                "1",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %s", cfg.Server.Addr)
	}
	if !cfg.Server.H2C {
		t.Error("expected h2c enabled")
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Site.BaseURL != "https://www.lifescientific.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Site.BaseURL)
	}
	if cfg.Site.DefaultLang != "fr" {
		t.Errorf("expected lower-cased default lang, got %s", cfg.Site.DefaultLang)
	}
	if got := cfg.Site.Languages; len(got) != 2 || got[0] != "fr" || got[1] != "en" {
		t.Errorf("expected deduplicated languages, got %v", got)
	}
	if !cfg.Log.Development {
		t.Error("expected dev mode to select development logging")
	}
	if !cfg.CMS.SanityEnabled() || cfg.CMS.Dataset != "staging" || cfg.CMS.Token != "read-token" {
		t.Errorf("unexpected cms config %+v", cfg.CMS)
	}
	if cfg.CMS.APIVersion != "2024-01-01" {
		t.Errorf("expected api version without v prefix, got %s", cfg.CMS.APIVersion)
	}
	if cfg.CMS.UseCDN {
		t.Error("expected CDN disabled")
	}
	if cfg.CMS.CacheTTL != 30*time.Second {
		t.Errorf("unexpected cache ttl %s", cfg.CMS.CacheTTL)
	}
	if cfg.Cache.RedisURL != "redis://localhost:6379/2" {
		t.Errorf("unexpected redis url %s", cfg.Cache.RedisURL)
	}
	if cfg.Telemetry.MetricsEnabled {
		t.Error("expected metrics disabled")
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "# local overrides\nLS_WEB_ADDR=:7070\nexport LS_WEB_SANITY_PROJECT_ID=\"dot-project\"\nLS_WEB_LOG_LEVEL=debug\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvFile(envPath),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"LS_WEB_LOG_LEVEL": "warn"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Addr != ":7070" {
		t.Errorf("expected addr from dotenv :7070, got %s", cfg.Server.Addr)
	}
	if cfg.CMS.ProjectID != "dot-project" {
		t.Errorf("expected project from dotenv, got %s", cfg.CMS.ProjectID)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected explicit map to win over dotenv, got %s", cfg.Log.Level)
	}
}

func TestLoadSystemEnvOverridesDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("LS_WEB_ADDR=:7070\n"), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}
	t.Setenv("LS_WEB_ADDR", ":6060")

	cfg, err := Load(context.Background(), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Addr != ":6060" {
		t.Errorf("expected system env to win, got %s", cfg.Server.Addr)
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(context.Background(), WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("expected missing dotenv to be ignored, got %v", err)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	env := map[string]string{
		"LS_WEB_BASE_URL":     "not a url",
		"LS_WEB_DEFAULT_LANG": "de",
		"LS_WEB_READ_TIMEOUT": "soon",
		"LS_WEB_REDIS_URL":    "http://cache",
	}
	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := map[string]bool{
		"LS_WEB_READ_TIMEOUT": true,
		"Site.BaseURL":        true,
		"Site.DefaultLang":    true,
		"Cache.RedisURL":      true,
	}
	fields := validation.Fields()
	if len(fields) != len(want) {
		t.Fatalf("unexpected fields %v", fields)
	}
	for _, f := range fields {
		if !want[f] {
			t.Errorf("unexpected invalid field %s", f)
		}
	}
}
