// Package cms provides read-only access to site content: products, blog posts, and
// static pages. Content comes from the Sanity query API when a project is configured and
// from the local content directory otherwise, or when the remote query fails.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"lifescientific.com/web/internal/platform/metrics"
)

// ErrNotFound is returned when a CMS resource cannot be located.
var ErrNotFound = errors.New("cms: not found")

const (
	defaultAPIVersion = "2023-05-03"
	defaultDataset    = "production"
	defaultCacheTTL   = 5 * time.Minute
	defaultTimeout    = 5 * time.Second
)

var tracer = otel.Tracer("lifescientific.com/web/internal/cms")

// Options configures a Client. Every field is optional; a zero Options yields a client
// that serves local content only.
type Options struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	// BaseURL overrides the Sanity host, e.g. for a proxy or tests.
	BaseURL    string
	ContentDir string
	CacheTTL   time.Duration
	Cache      Cache
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client provides read-only access to CMS content.
type Client struct {
	baseURL    string
	dataset    string
	apiVersion string
	token      string
	contentDir string
	cacheTTL   time.Duration
	cache      Cache
	http       *http.Client
	logger     *zap.Logger
	group      singleflight.Group
}

// NewClient constructs a Client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		dataset:    firstNonEmpty(strings.TrimSpace(opts.Dataset), defaultDataset),
		apiVersion: strings.TrimPrefix(firstNonEmpty(strings.TrimSpace(opts.APIVersion), defaultAPIVersion), "v"),
		token:      strings.TrimSpace(opts.Token),
		cacheTTL:   opts.CacheTTL,
		cache:      opts.Cache,
		http:       opts.HTTPClient,
		logger:     opts.Logger,
	}
	switch {
	case strings.TrimSpace(opts.BaseURL) != "":
		c.baseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	case strings.TrimSpace(opts.ProjectID) != "":
		host := "api.sanity.io"
		if opts.UseCDN {
			host = "apicdn.sanity.io"
		}
		c.baseURL = fmt.Sprintf("https://%s.%s", strings.TrimSpace(opts.ProjectID), host)
	}
	c.SetContentDir(opts.ContentDir)
	if c.cacheTTL <= 0 {
		c.cacheTTL = defaultCacheTTL
	}
	if c.cache == nil {
		c.cache = NewMemoryCache()
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Remote reports whether the client queries a remote CMS.
func (c *Client) Remote() bool {
	return c != nil && c.baseURL != ""
}

// SetContentDir configures the fallback directory for local content.
func (c *Client) SetContentDir(dir string) {
	if c == nil {
		return
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultContentDir
	}
	c.contentDir = dir
}

// ContentDir returns the configured fallback directory.
func (c *Client) ContentDir() string {
	if c == nil || strings.TrimSpace(c.contentDir) == "" {
		return defaultContentDir
	}
	return c.contentDir
}

type queryEnvelope struct {
	Result json.RawMessage `json:"result"`
}

// query runs a GROQ query and decodes the result into dst. A null result maps to ErrNotFound.
func (c *Client) query(ctx context.Context, resource, groq string, params map[string]string, dst any) (err error) {
	ctx, span := tracer.Start(ctx, "cms.query")
	span.SetAttributes(
		attribute.String("cms.resource", resource),
		attribute.String("cms.dataset", c.dataset),
	)
	start := time.Now()
	defer func() {
		metrics.RecordCMSQuery(resource, err, time.Since(start))
		if err != nil && !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	endpoint, err := url.JoinPath(c.baseURL, "v"+c.apiVersion, "data", "query", c.dataset)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	q.Set("query", groq)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		q.Set("$"+name, string(encoded))
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("cms: %s query status %d", resource, resp.StatusCode)
	}

	var env queryEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("cms: decode %s: %w", resource, err)
	}
	raw := strings.TrimSpace(string(env.Result))
	if raw == "" || raw == "null" {
		return ErrNotFound
	}
	if err := json.Unmarshal(env.Result, dst); err != nil {
		return fmt.Errorf("cms: decode %s result: %w", resource, err)
	}
	return nil
}

// cached serves key from the cache, otherwise runs load once per concurrent miss. The
// shared load is detached from the caller's cancellation so one aborted request cannot
// fail it for everyone waiting on the key. Results load marks as degraded (served from
// the local fallback after a remote failure) are returned but not stored.
func cached[T any](ctx context.Context, c *Client, key string, load func(context.Context) (T, bool, error)) (T, error) {
	var zero T
	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("cms cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			metrics.RecordCacheLookup(true)
			return v, nil
		}
	}
	metrics.RecordCacheLookup(false)

	shared := context.WithoutCancel(ctx)
	res, err, _ := c.group.Do(key, func() (any, error) {
		v, degraded, err := load(shared)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if degraded {
			return raw, nil
		}
		if err := c.cache.Set(shared, key, raw, c.cacheTTL); err != nil {
			c.logger.Warn("cms cache write failed", zap.String("key", key), zap.Error(err))
		}
		return raw, nil
	})
	if err != nil {
		return zero, err
	}
	// decode per caller so shared results are never aliased
	var v T
	if err := json.Unmarshal(res.([]byte), &v); err != nil {
		return zero, err
	}
	return v, nil
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, "|")
}

func (c *Client) logFallback(resource string, err error, fields ...zap.Field) {
	metrics.RecordFallback(resource)
	if err == nil {
		return
	}
	fields = append(fields, zap.String("resource", resource), zap.Error(err))
	c.logger.Warn("cms remote failed, serving local content", fields...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if lang == "" {
		return defaultLang
	}
	return lang
}

// langCandidates lists the locales to try for lang, ending with the default locale.
func langCandidates(lang string) []string {
	lang = normalizeLang(lang)
	if lang == defaultLang {
		return []string{lang}
	}
	return []string{lang, defaultLang}
}
