package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("/products", "GET", "200"))
	RecordRequest("/products", "GET", http.StatusOK, 15*time.Millisecond)
	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("/products", "GET", "200"))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestRecordCMSQueryOutcome(t *testing.T) {
	RecordCMSQuery("products", errors.New("boom"), time.Second)
	RecordCMSQuery("products", nil, time.Second)
	if n := testutil.CollectAndCount(CMSQueryDuration); n < 2 {
		t.Fatalf("expected ok and error series, got %d", n)
	}
}

func TestCacheAndFallbackCounters(t *testing.T) {
	hits := testutil.ToFloat64(CMSCacheTotal.WithLabelValues("hit"))
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	if got := testutil.ToFloat64(CMSCacheTotal.WithLabelValues("hit")); got != hits+1 {
		t.Fatalf("unexpected hit count %v", got)
	}
	fallbacks := testutil.ToFloat64(CMSFallbacksTotal.WithLabelValues("posts"))
	RecordFallback("posts")
	if got := testutil.ToFloat64(CMSFallbacksTotal.WithLabelValues("posts")); got != fallbacks+1 {
		t.Fatalf("unexpected fallback count %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	CatalogResults.Observe(3)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "web_catalog_filter_results_bucket") {
		t.Fatalf("catalog histogram missing from exposition")
	}
}
