// Package templates handles HTML template rendering for pages and Datastar
// SSE fragments.
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"sync"
)

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
	"upper": strings.ToUpper,
	// attr marks a Datastar expression as a safe attribute value.
	"attr": func(s string) template.HTMLAttr { return template.HTMLAttr(s) },
	// on builds a Datastar event attribute. Attributes named data-on* are
	// JavaScript to html/template, so the expression is escaped here instead.
	"on": func(event, expr string) template.HTMLAttr {
		return template.HTMLAttr(`data-on:` + event + `="` + template.HTMLEscapeString(expr) + `"`)
	},
	// cm formats millimeters as centimeters.
	"cm": func(mm float64) string { return fmt.Sprintf("%.1f", mm/10) },
}

// Renderer manages HTML templates.
type Renderer struct {
	fsys     fs.FS
	patterns []string

	mu        sync.RWMutex
	templates *template.Template
}

// New parses every template in fsys matching patterns, e.g.
// "templates/*.html", "templates/fragments/*.html".
func New(fsys fs.FS, patterns ...string) (*Renderer, error) {
	r := &Renderer{fsys: fsys, patterns: patterns}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	return r.Execute(buf, name, data)
}

// Execute renders a named template to w.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(w, name, data)
}

// Reload parses the templates again (useful for dev hot-reload with an
// os.DirFS source).
func (r *Renderer) Reload() error {
	tmpl := template.New("").Funcs(funcMap)
	for _, p := range r.patterns {
		var err error
		tmpl, err = tmpl.ParseFS(r.fsys, p)
		if err != nil {
			return fmt.Errorf("parse templates %s: %w", p, err)
		}
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}
