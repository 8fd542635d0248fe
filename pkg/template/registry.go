// registry.go - The fixed, compiled-in list of templates.
package template

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"
)

//go:embed templates.yaml
var registryYAML []byte

//go:embed images/*
var images embed.FS

// Registry is an immutable, ordered set of templates.
type Registry struct {
	templates []Template
	byID      map[string]int
}

// NewRegistry validates templates and indexes them by id, keeping order.
func NewRegistry(templates []Template) (*Registry, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("registry: no templates")
	}

	r := &Registry{
		templates: make([]Template, 0, len(templates)),
		byID:      make(map[string]int, len(templates)),
	}
	for _, t := range templates {
		if err := validateTemplate(&t); err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate template %q", t.ID)
		}
		r.byID[t.ID] = len(r.templates)
		r.templates = append(r.templates, t)
	}
	return r, nil
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the embedded registry. A broken compiled-in document is
// a programmer error and panics.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := ParseRegistry(registryYAML)
		if err != nil {
			panic(fmt.Sprintf("template: embedded registry: %v", err))
		}
		defaultReg = r
	})
	return defaultReg
}

// Images returns the embedded background images, rooted so that a
// template's ImageRef opens directly.
func Images() fs.FS {
	sub, err := fs.Sub(images, "images")
	if err != nil {
		panic(fmt.Sprintf("template: embedded images: %v", err))
	}
	return sub
}

// List returns the templates in declaration order.
func (r *Registry) List() []Template {
	out := make([]Template, len(r.templates))
	copy(out, r.templates)
	return out
}

// First returns the first declared template, the one a session starts on.
func (r *Registry) First() Template {
	return r.templates[0]
}

// Lookup returns the template with the given id.
func (r *Registry) Lookup(id string) (Template, error) {
	i, ok := r.byID[id]
	if !ok {
		return Template{}, fmt.Errorf("%w %q", ErrUnknownTemplate, id)
	}
	return r.templates[i], nil
}

// DefaultStyle returns the declared default style of one field.
func (r *Registry) DefaultStyle(templateID string, f FieldID) (FieldStyle, error) {
	t, err := r.Lookup(templateID)
	if err != nil {
		return FieldStyle{}, err
	}
	if !f.Valid() {
		return FieldStyle{}, fmt.Errorf("%w %d", ErrUnknownField, int(f))
	}
	return t.Defaults[f], nil
}
