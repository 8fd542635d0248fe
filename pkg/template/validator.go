// validator.go - Sanity checks applied to every registry template.
package template

import (
	"errors"
	"fmt"
	"strings"
)

// validateTemplate rejects templates that would break coordinate math or
// rendering, and normalizes style values in place.
func validateTemplate(t *Template) error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("empty template id")
	}
	if t.ImageRef == "" {
		return fmt.Errorf("template %q: missing image", t.ID)
	}
	if t.CanvasWidth <= 0 || t.CanvasHeight <= 0 {
		return fmt.Errorf("template %q: canvas must be positive, got %dx%d", t.ID, t.CanvasWidth, t.CanvasHeight)
	}
	if t.Name == "" {
		t.Name = t.ID
	}

	for _, f := range Fields {
		st := &t.Defaults[f]
		c, err := NormalizeColor(st.Color)
		if err != nil {
			return fmt.Errorf("template %q field %s: %w", t.ID, f, err)
		}
		st.Color = c
		st.FontSize = ClampFontSize(st.FontSize)
		if st.FontFamily == "" {
			st.FontFamily = DefaultFamily
		}
	}
	return nil
}
