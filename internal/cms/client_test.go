package cms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"lifescientific.com/web/internal/catalog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

type sanityStub struct {
	mu       sync.Mutex
	requests []*http.Request
	handler  func(w http.ResponseWriter, r *http.Request)
}

func newSanityStub(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *sanityStub) {
	t.Helper()
	stub := &sanityStub{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.requests = append(stub.requests, r.Clone(context.Background()))
		stub.mu.Unlock()
		stub.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, stub
}

func writeResult(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"result": v}))
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

const localProductsYAML = `products:
  - id: local-niantic
    slug: niantic
    name: Niantic
    tagline: Local copy
    category: herbicide
    supported_crops:
      - crop: Wheat
        dosage:
          amount: 3
          unit: L/ha
`

func TestListProductsQueriesSanity(t *testing.T) {
	srv, stub := newSanityStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(t, w, []map[string]any{
			{
				"id":       "prod-1",
				"slug":     "tarak",
				"name":     "Tarak",
				"category": "fungicide",
				"variants": []map[string]any{
					{"name": "Tarak EC", "activeIngredients": []map[string]any{{"name": "Prothioconazole", "amount": 250, "unit": "g/L"}}},
				},
				"supportedCrops": []map[string]any{{"crop": "Corn"}},
			},
		})
	})
	client := NewClient(Options{BaseURL: srv.URL, Dataset: "staging", Token: "read-token", ContentDir: t.TempDir()})

	products, err := client.ListProducts(context.Background(), "fr-FR")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Tarak", products[0].Name)
	require.Equal(t, catalog.CategoryFungicide, products[0].Category)
	require.Equal(t, "Prothioconazole", products[0].Variants[0].ActiveIngredients[0].Name)

	require.Len(t, stub.requests, 1)
	req := stub.requests[0]
	require.Equal(t, "/v2023-05-03/data/query/staging", req.URL.Path)
	require.Equal(t, `"fr"`, req.URL.Query().Get("$lang"))
	require.Contains(t, req.URL.Query().Get("query"), `_type == "product"`)
	require.Equal(t, "Bearer read-token", req.Header.Get("Authorization"))
}

func TestListProductsFallsBackToLocalContent(t *testing.T) {
	srv, _ := newSanityStub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "products", "en.yaml"), localProductsYAML)
	client := NewClient(Options{BaseURL: srv.URL, ContentDir: dir})

	// es has no local file, so the default locale is used
	products, err := client.ListProducts(context.Background(), "es")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "local-niantic", products[0].ID)
	require.Equal(t, 3.0, products[0].SupportedCrops[0].Dosage.Amount)
}

func TestListProductsWithoutAnySourceIsEmpty(t *testing.T) {
	client := NewClient(Options{ContentDir: t.TempDir()})
	products, err := client.ListProducts(context.Background(), "en")
	require.NoError(t, err)
	require.NotNil(t, products)
	require.Empty(t, products)
}

func TestListProductsIsCached(t *testing.T) {
	var hits atomic.Int32
	srv, _ := newSanityStub(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeResult(t, w, []map[string]any{{"id": "a", "name": "A", "category": "herbicide"}})
	})
	client := NewClient(Options{BaseURL: srv.URL, ContentDir: t.TempDir(), CacheTTL: time.Minute})

	first, err := client.ListProducts(context.Background(), "en")
	require.NoError(t, err)
	first[0].Name = "mutated"

	second, err := client.ListProducts(context.Background(), "en")
	require.NoError(t, err)
	require.Equal(t, "A", second[0].Name, "cached results must not alias caller slices")
	require.EqualValues(t, 1, hits.Load())
}

func TestGetProduct(t *testing.T) {
	srv, stub := newSanityStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("$slug") == `"tarak"` {
			writeResult(t, w, map[string]any{"id": "prod-1", "slug": "tarak", "name": "Tarak", "category": "fungicide"})
			return
		}
		writeResult(t, w, nil)
	})
	client := NewClient(Options{BaseURL: srv.URL, ContentDir: t.TempDir()})

	p, err := client.GetProduct(context.Background(), "Tarak", "en")
	require.NoError(t, err)
	require.Equal(t, "prod-1", p.ID)

	_, err = client.GetProduct(context.Background(), "missing", "en")
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = client.GetProduct(context.Background(), "../etc/passwd", "en")
	require.ErrorIs(t, err, ErrNotFound)
	require.Len(t, stub.requests, 2)
}

func TestGetProductFromLocalContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "products", "en.yaml"), localProductsYAML)
	client := NewClient(Options{ContentDir: dir})

	p, err := client.GetProduct(context.Background(), "niantic", "fr")
	require.NoError(t, err)
	require.Equal(t, "Niantic", p.Name)
}

func TestReadProductsFileRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "products: [unclosed")
	_, err := ReadProductsFile(path)
	require.Error(t, err)
}

func TestMemoryCacheExpires(t *testing.T) {
	cache := NewMemoryCache()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(context.Background(), "k", []byte("v"), time.Minute))
	got, ok, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(got))

	now = now.Add(2 * time.Minute)
	_, ok, err = cache.Get(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListProductsSurvivesCancelledCaller(t *testing.T) {
	srv, _ := newSanityStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(t, w, []map[string]any{{"id": "a", "name": "Niantic", "category": "herbicide"}})
	})
	client := NewClient(Options{BaseURL: srv.URL, ContentDir: t.TempDir()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	products, err := client.ListProducts(ctx, "en")
	require.NoError(t, err)
	require.Len(t, products, 1)

	products, err = client.ListProducts(context.Background(), "en")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Niantic", products[0].Name)
}

func TestListProductsDoesNotCacheFallback(t *testing.T) {
	var hits atomic.Int32
	srv, _ := newSanityStub(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		writeResult(t, w, []map[string]any{{"id": "a", "name": "Niantic", "category": "herbicide"}})
	})
	client := NewClient(Options{BaseURL: srv.URL, ContentDir: t.TempDir(), CacheTTL: time.Minute})

	products, err := client.ListProducts(context.Background(), "en")
	require.NoError(t, err)
	require.Empty(t, products)

	products, err = client.ListProducts(context.Background(), "en")
	require.NoError(t, err)
	require.Len(t, products, 1)

	_, err = client.ListProducts(context.Background(), "en")
	require.NoError(t, err)
	require.EqualValues(t, 2, hits.Load())
}

func TestGetPostDoesNotCacheFallback(t *testing.T) {
	var hits atomic.Int32
	srv, _ := newSanityStub(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	})
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "posts", "en", "harvest.md"), harvestPost)
	client := NewClient(Options{BaseURL: srv.URL, ContentDir: dir})

	for range 2 {
		p, err := client.GetPost(context.Background(), "harvest", "en")
		require.NoError(t, err)
		require.Equal(t, "Preparing for harvest", p.Title)
	}
	require.EqualValues(t, 2, hits.Load())
}

func TestListProductsCollapsesConcurrentMisses(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv, _ := newSanityStub(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		writeResult(t, w, []map[string]any{{"id": "a", "name": "Tarak", "category": "fungicide"}})
	})
	client := NewClient(Options{BaseURL: srv.URL, ContentDir: t.TempDir(), CacheTTL: time.Minute})

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]catalog.Product, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := client.ListProducts(context.Background(), "en")
			if err == nil {
				results[i] = products
			}
		}()
	}
	require.Eventually(t, func() bool { return hits.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, hits.Load())
	for _, products := range results {
		require.Len(t, products, 1)
		require.Equal(t, "Tarak", products[0].Name)
	}
}
