// parser.go - YAML parsing of the template registry document.
package template

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// registryDoc is the top-level structure of templates.yaml.
type registryDoc struct {
	Templates []templateDoc `yaml:"templates"`
}

type templateDoc struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Image  string `yaml:"image"`
	Canvas struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"canvas"`
	Fields map[string]FieldStyle `yaml:"fields"`
}

// ParseRegistry decodes and validates a registry document.
func ParseRegistry(data []byte) (*Registry, error) {
	var doc registryDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	templates := make([]Template, 0, len(doc.Templates))
	for i, td := range doc.Templates {
		t, err := td.toTemplate()
		if err != nil {
			return nil, fmt.Errorf("template #%d (%q): %w", i, td.ID, err)
		}
		templates = append(templates, t)
	}

	return NewRegistry(templates)
}

func (td templateDoc) toTemplate() (Template, error) {
	t := Template{
		ID:           td.ID,
		Name:         td.Name,
		ImageRef:     td.Image,
		CanvasWidth:  td.Canvas.Width,
		CanvasHeight: td.Canvas.Height,
	}

	seen := 0
	for key, st := range td.Fields {
		f, err := ParseFieldID(key)
		if err != nil {
			return Template{}, err
		}
		t.Defaults[f] = st
		seen++
	}
	if seen != fieldCount {
		return Template{}, fmt.Errorf("expected %d fields, got %d", fieldCount, seen)
	}

	return t, nil
}
