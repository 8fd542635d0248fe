package editor

import (
	"fmt"

	"github.com/xob0t/SlipStencil/pkg/template"
)

// StyleKind selects which attribute a StyleUpdate changes.
type StyleKind int

const (
	StyleFontSize StyleKind = iota + 1
	StyleColor
)

// ParseStyleKind accepts "fontSize" and "color".
func ParseStyleKind(s string) (StyleKind, error) {
	switch s {
	case "fontSize", "size":
		return StyleFontSize, nil
	case "color", "colorCode":
		return StyleColor, nil
	}
	return 0, fmt.Errorf("unknown style attribute %q", s)
}

// StyleUpdate changes one attribute of one field.
type StyleUpdate struct {
	Field    template.FieldID
	Kind     StyleKind
	FontSize int
	Color    string
}

// ApplyStyle returns styles with u applied; no other attribute or field
// changes. Font sizes are clamped; invalid colors are rejected.
func ApplyStyle(styles template.Styles, u StyleUpdate) (template.Styles, error) {
	if !u.Field.Valid() {
		return styles, fmt.Errorf("apply style: %w", template.ErrUnknownField)
	}

	st := styles.Get(u.Field)
	switch u.Kind {
	case StyleFontSize:
		st.FontSize = template.ClampFontSize(u.FontSize)
	case StyleColor:
		c, err := template.NormalizeColor(u.Color)
		if err != nil {
			return styles, fmt.Errorf("apply style: %w", err)
		}
		st.Color = c
	default:
		return styles, fmt.Errorf("apply style: unknown attribute %d", u.Kind)
	}
	return styles.With(u.Field, st), nil
}
