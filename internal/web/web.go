// Package web holds the portal and admin templates, compiled into the binary.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates
var files embed.FS

// Registry holds one template set per page, each parsed together with the
// shared layouts and partials.
type Registry struct {
	templates map[string]*template.Template
}

func (r *Registry) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	tmpl, ok := r.templates[name]
	if ok {
		// partial files define a template named after the file
		if base := strings.TrimSuffix(name, ".html"); base != name {
			if lookup := tmpl.Lookup(base); lookup != nil {
				return lookup.Execute(w, data)
			}
		}
		return tmpl.ExecuteTemplate(w, name, data)
	}

	for _, t := range r.templates {
		if lookup := t.Lookup(name); lookup != nil {
			return lookup.Execute(w, data)
		}
	}

	return fmt.Errorf("template %s not found", name)
}

// Load parses the embedded templates.
func Load() (*Registry, error) {
	return load(files)
}

func load(fsys fs.FS) (*Registry, error) {
	funcMap := template.FuncMap{
		"dict":  dict,
		"deref": deref,
	}

	registry := &Registry{templates: make(map[string]*template.Template)}

	layouts, err := fs.Glob(fsys, "templates/layouts/*.html")
	if err != nil {
		return nil, err
	}
	partials, err := fs.Glob(fsys, "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	pages, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	shared := append(append([]string{}, layouts...), partials...)

	for _, page := range pages {
		name := path.Base(page)
		tmpl, err := parseFiles(fsys, template.New(name).Funcs(funcMap), append(shared, page)...)
		if err != nil {
			return nil, err
		}
		registry.templates[name] = tmpl
	}

	for _, partial := range partials {
		name := path.Base(partial)
		tmpl, err := parseFiles(fsys, template.New(name).Funcs(funcMap), partials...)
		if err != nil {
			return nil, err
		}
		registry.templates[name] = tmpl
	}

	return registry, nil
}

func parseFiles(fsys fs.FS, tmpl *template.Template, names ...string) (*template.Template, error) {
	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if _, err := tmpl.Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}
	return tmpl, nil
}

func dict(values ...interface{}) map[string]interface{} {
	if len(values)%2 != 0 {
		return nil
	}
	d := make(map[string]interface{}, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil
		}
		d[key] = values[i+1]
	}
	return d
}

func deref(b *bool) bool {
	return b != nil && *b
}
