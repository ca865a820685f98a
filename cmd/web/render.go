package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"lifescientific.com/web/internal/catalog"
	"lifescientific.com/web/internal/format"
	"lifescientific.com/web/internal/handlers"
	"lifescientific.com/web/internal/markdown"
	"lifescientific.com/web/internal/platform/observability"
)

// templateSet holds one executable tree per page plus a shared tree for fragments.
type templateSet struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

// productCard is the argument of the product_card partial.
type productCard struct {
	Lang    string
	Product catalog.Product
}

var (
	tmplMu    sync.RWMutex
	tmplCache *templateSet
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"now": time.Now,
		"t": func(lang, key string) string {
			if i18nBundle == nil {
				return key
			}
			return i18nBundle.T(lang, key)
		},
		"categoryKey": func(c catalog.Category) string { return "catalog.category." + string(c) },
		"fmtDate":     format.FmtDate,
		"dosage":      format.FmtDosage,
		"ingredient":  format.FmtIngredient,
		"markdown":    markdown.RenderContent,
		"excerpt":     markdown.Excerpt,
		"join":        strings.Join,
		"langURL":     langURL,
		"productURL":  productURL,
		"postURL":     postURL,
		"card": func(lang string, p catalog.Product) productCard {
			return productCard{Lang: lang, Product: p}
		},
		// JSON-LD payloads come from json.Marshal, which escapes <, > and &
		"jsonld": func(s string) template.JS { return template.JS(s) },
	}
}

// parseTemplates reads layouts/ and partials/ once, then clones that base for each file in
// pages/ so every page can define its own "content" block.
func parseTemplates() (*templateSet, error) {
	shared, err := collectTemplates(filepath.Join(templatesDir, "layouts"), filepath.Join(templatesDir, "partials"))
	if err != nil {
		return nil, err
	}
	if len(shared) == 0 {
		return nil, fmt.Errorf("no layout templates found under %s", templatesDir)
	}
	base, err := template.New("_root").Funcs(templateFuncs()).ParseFiles(shared...)
	if err != nil {
		return nil, err
	}
	pageFiles, err := collectTemplates(filepath.Join(templatesDir, "pages"))
	if err != nil {
		return nil, err
	}
	set := &templateSet{pages: map[string]*template.Template{}, fragments: base}
	for _, file := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		page, err := clone.ParseFiles(file)
		if err != nil {
			return nil, err
		}
		set.pages[strings.TrimSuffix(filepath.Base(file), ".tmpl")] = page
	}
	return set, nil
}

func collectTemplates(dirs ...string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// templates returns the parsed set. In dev mode templates are reparsed on each request.
func templates() (*templateSet, error) {
	if devMode {
		return parseTemplates()
	}
	tmplMu.RLock()
	set := tmplCache
	tmplMu.RUnlock()
	if set != nil {
		return set, nil
	}
	set, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	tmplMu.Lock()
	tmplCache = set
	tmplMu.Unlock()
	return set, nil
}

// renderPage executes the base layout with the named page's content block.
func renderPage(w http.ResponseWriter, r *http.Request, status int, page string, data handlers.PageData) {
	set, err := templates()
	if err != nil {
		templateFailure(w, r, err)
		return
	}
	t, ok := set.pages[page]
	if !ok {
		templateFailure(w, r, fmt.Errorf("unknown page template %q", page))
		return
	}
	execute(w, r, status, t, "base", data)
}

// renderTemplate executes a shared fragment such as frag_products_results.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data handlers.PageData) {
	set, err := templates()
	if err != nil {
		templateFailure(w, r, err)
		return
	}
	execute(w, r, http.StatusOK, set.fragments, name, data)
}

// execute buffers the output so a failing template never leaves a half-written page.
func execute(w http.ResponseWriter, r *http.Request, status int, t *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		templateFailure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func templateFailure(w http.ResponseWriter, r *http.Request, err error) {
	observability.FromContext(r.Context()).Error("template render failed", zap.Error(err))
	msg := "internal server error"
	if devMode {
		msg = fmt.Sprintf("template error: %v", err)
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

// langURL returns target with ?hl=lang set, keeping any existing query.
func langURL(target, lang string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("hl", lang)
	u.RawQuery = q.Encode()
	return u.String()
}
