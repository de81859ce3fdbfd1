package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

// Renderer manages template parsing and rendering with isolated template sets.
// It supports two layouts:
//   - "auth" layout for the sign-in page
//   - "app" layout for gated pages (dashboard, list screens)
//
// Templates are organized as:
//   - layouts/auth.html, layouts/app.html - base layouts
//   - pages/auth/*.html - auth pages (use auth layout)
//   - pages/*.html - app pages (use app layout)
//
// List fragments are templ components and are rendered with RenderComponent.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
	fsys      fs.FS
	isDev     bool
	mu        sync.RWMutex
}

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	// FS holds the templates. Ignored when TemplatesDir is set.
	FS fs.FS

	// TemplatesDir reads templates from disk and reloads them on every
	// render. Used in development.
	TemplatesDir string

	Logger *slog.Logger
}

// NewRenderer creates a new template renderer.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		logger:    cfg.Logger,
		fsys:      cfg.FS,
	}
	if cfg.TemplatesDir != "" {
		r.fsys = os.DirFS(cfg.TemplatesDir)
		r.isDev = true
	}
	if r.fsys == nil {
		return nil, fmt.Errorf("renderer needs a template filesystem")
	}

	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) load() error {
	templates := make(map[string]*template.Template)

	layouts := []struct {
		name  string
		pages string
		key   func(page string) string
	}{
		{"auth", "pages/auth/*.html", func(p string) string { return "auth/" + p }},
		{"app", "pages/*.html", func(p string) string { return p }},
	}

	for _, l := range layouts {
		base, err := template.New(l.name).Funcs(TemplateFuncs()).ParseFS(r.fsys, "layouts/"+l.name+".html")
		if err != nil {
			return fmt.Errorf("failed to parse %s layout: %w", l.name, err)
		}

		pages, err := fs.Glob(r.fsys, l.pages)
		if err != nil {
			return fmt.Errorf("failed to glob %s pages: %w", l.name, err)
		}
		for _, page := range pages {
			pageTmpl, err := base.Clone()
			if err != nil {
				return fmt.Errorf("failed to clone %s template for %s: %w", l.name, page, err)
			}
			pageTmpl, err = pageTmpl.ParseFS(r.fsys, page)
			if err != nil {
				return fmt.Errorf("failed to parse page %s: %w", page, err)
			}
			name := strings.TrimSuffix(path.Base(page), path.Ext(page))
			templates[l.key(name)] = pageTmpl
		}
	}

	r.mu.Lock()
	r.templates = templates
	r.mu.Unlock()

	r.logger.Debug("templates loaded", "count", len(templates))
	return nil
}

// Reload reloads all templates. Useful for development.
func (r *Renderer) Reload() error {
	return r.load()
}

// RenderHTTP renders a page with the given status.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, status int, name string, data interface{}) {
	if r.isDev {
		if err := r.Reload(); err != nil {
			r.logger.Error("template reload failed", "error", err)
			http.Error(w, "Template reload failed", http.StatusInternalServerError)
			return
		}
	}

	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Error("template not found", "name", name)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	// Render to buffer first to catch errors before writing headers
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, r.baseTemplateName(name), data); err != nil {
		r.logger.Error("template execution failed", "name", name, "error", err)
		http.Error(w, "Template execution failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderComponent writes a templ component as a standalone HTML response,
// e.g. a list fragment for a partial refresh.
func (r *Renderer) RenderComponent(w http.ResponseWriter, req *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(req.Context(), &buf); err != nil {
		r.logger.Error("component render failed", "path", req.URL.Path, "error", err)
		http.Error(w, "Render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (r *Renderer) baseTemplateName(name string) string {
	if strings.HasPrefix(name, "auth/") {
		return "auth"
	}
	return "app"
}

// ListTemplates returns a list of all loaded template names.
func (r *Renderer) ListTemplates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}
