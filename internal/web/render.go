package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer parses the embedded page templates once and renders pages
// against the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template against the layout.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"markdown": renderMarkdown,
		"millis":   formatMillis,
		"plural":   plural,
	}

	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := map[string]*template.Template{}
	for _, name := range []string{"workspaces.html", "detail.html", "error.html"} {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

// renderPage executes a page template into a buffer first so a template
// error never produces a half-written response.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// renderError renders the error page, falling back to plain text if the
// error template itself fails.
func (r *Renderer) renderError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	t, ok := r.pages["error.html"]
	if !ok {
		fmt.Fprintf(w, "error %d: %s", status, msg)
		return
	}
	data := map[string]any{"Status": status, "Message": msg, "Version": ""}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		fmt.Fprintf(w, "error %d: %s", status, msg)
		return
	}
	buf.WriteTo(w)
}

// renderMarkdown converts quick-note markdown to HTML. Goldmark
// escapes raw HTML by default, so note content cannot inject markup.
func renderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}
