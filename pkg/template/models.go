// Package template holds the compiled-in slip templates and the typed
// records (fields, styles, form values) every other package works with.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ── Field identifiers ──

// FieldID names one of the fixed text slots composited onto a template.
type FieldID int

const (
	FieldName FieldID = iota
	FieldAmount
	FieldPurpose

	fieldCount = 3
)

// NoField marks the absence of an active field.
const NoField FieldID = -1

// Fields lists every FieldID in canonical order. Drawing and hit-testing
// both walk this order.
var Fields = [fieldCount]FieldID{FieldName, FieldAmount, FieldPurpose}

var fieldNames = [fieldCount]string{"name", "amount", "purpose"}

var (
	// ErrUnknownField is returned when a field name is not one of name, amount, purpose.
	ErrUnknownField = errors.New("unknown field")
	// ErrUnknownTemplate is returned for template ids missing from the registry.
	ErrUnknownTemplate = errors.New("unknown template")
)

// Valid reports whether f is one of the enumerated fields.
func (f FieldID) Valid() bool {
	return f >= 0 && int(f) < fieldCount
}

func (f FieldID) String() string {
	if !f.Valid() {
		return ""
	}
	return fieldNames[f]
}

// ParseFieldID maps "name", "amount" or "purpose" to its FieldID.
func ParseFieldID(s string) (FieldID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range fieldNames {
		if n == s {
			return FieldID(i), nil
		}
	}
	return NoField, fmt.Errorf("%w %q", ErrUnknownField, s)
}

// MarshalText encodes NoField as the empty string.
func (f FieldID) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText accepts the empty string as NoField.
func (f *FieldID) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*f = NoField
		return nil
	}
	id, err := ParseFieldID(string(b))
	if err != nil {
		return err
	}
	*f = id
	return nil
}

// ── Styles ──

// Font size bounds enforced at every input boundary.
const (
	MinFontSize = 10
	MaxFontSize = 80
)

// FieldStyle is the position and look of one field, in canvas pixels.
type FieldStyle struct {
	X          int    `json:"x" yaml:"x"`
	Y          int    `json:"y" yaml:"y"`
	FontSize   int    `json:"fontSize" yaml:"fontSize"`
	Color      string `json:"color" yaml:"color"`
	FontFamily string `json:"fontFamily" yaml:"fontFamily"`
}

// Font returns the canvas-style font shorthand, e.g. "36px Inter Bold".
func (s FieldStyle) Font() string {
	return fmt.Sprintf("%dpx %s", s.FontSize, s.FontFamily)
}

// Styles holds one FieldStyle per FieldID. It is a value type: assigning
// it copies every record.
type Styles [fieldCount]FieldStyle

// Get returns the style of f. f must be valid.
func (s Styles) Get(f FieldID) FieldStyle {
	return s[f]
}

// With returns a copy of s with f replaced.
func (s Styles) With(f FieldID, st FieldStyle) Styles {
	s[f] = st
	return s
}

// MarshalJSON encodes styles as an object keyed by field name.
func (s Styles) MarshalJSON() ([]byte, error) {
	m := make(map[string]FieldStyle, fieldCount)
	for _, f := range Fields {
		m[f.String()] = s[f]
	}
	return json.Marshal(m)
}

// ── Form values ──

// FormValues is the user-entered content, independent of styling.
type FormValues struct {
	Name    string `json:"name"`
	Amount  string `json:"amount"`
	Purpose string `json:"purpose"`
}

// DefaultValues is what a new session starts with.
var DefaultValues = FormValues{
	Name:    "Jane Doe",
	Amount:  "100.00",
	Purpose: "Disaster Relief Fund",
}

// Get returns the raw value of f.
func (v FormValues) Get(f FieldID) string {
	switch f {
	case FieldName:
		return v.Name
	case FieldAmount:
		return v.Amount
	case FieldPurpose:
		return v.Purpose
	}
	return ""
}

// With returns a copy of v with f set to value.
func (v FormValues) With(f FieldID, value string) FormValues {
	switch f {
	case FieldName:
		v.Name = value
	case FieldAmount:
		v.Amount = value
	case FieldPurpose:
		v.Purpose = value
	}
	return v
}

// ── Templates ──

// Template is a background image plus default layout and fixed output size.
type Template struct {
	ID           string
	Name         string
	ImageRef     string
	Defaults     Styles
	CanvasWidth  int
	CanvasHeight int
}

// CloneDefaults returns an independent copy of the template's default styles.
func (t Template) CloneDefaults() Styles {
	return t.Defaults
}
