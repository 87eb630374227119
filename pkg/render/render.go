// Package render turns page templates into HTML with html/template.
//
// Every page template defines a "content" block that is rendered inside the
// shared base layout. Templates are embedded in the binary and keyed by their
// path under templates/ without the extension, e.g. "preferences/prefs".
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"sort"
	"strings"
)

//go:embed templates
var templatesFS embed.FS

const (
	layoutName = "base"
	extension  = ".html"
)

// Renderer renders embedded page templates. It is safe for concurrent use.
type Renderer struct {
	set map[string]*template.Template
}

// New parses every embedded template.
func New() (*Renderer, error) {
	return NewFromFS(templatesFS, "templates")
}

// NewFromFS parses the templates found under root in fsys. root must contain
// base.html.
func NewFromFS(fsys fs.FS, root string) (*Renderer, error) {
	sub, err := fs.Sub(fsys, root)
	if err != nil {
		return nil, err
	}

	layout, err := template.New(layoutName).Funcs(funcs).ParseFS(sub, layoutName+extension)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{set: map[string]*template.Template{layoutName: layout}}
	err = fs.WalkDir(sub, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, extension) || path == layoutName+extension {
			return nil
		}

		t, err := layout.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(sub, path); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		r.set[strings.TrimSuffix(path, extension)] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render executes the named template inside the base layout.
func (r *Renderer) Render(name string, vars map[string]any) (string, error) {
	t, ok := r.set[name]
	if !ok {
		return "", fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutName+extension, vars); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.String(), nil
}

// Names lists the known templates.
func (r *Renderer) Names() []string {
	names := make([]string, 0, len(r.set))
	for name := range r.set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var funcs = template.FuncMap{
	"alertClass": func(typ any) string {
		return fmt.Sprintf("alert %v", typ)
	},
}
