// color.go - Hex color parsing and style input clamping.
package template

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ErrInvalidColor is returned for anything that is not a 6-digit hex color.
var ErrInvalidColor = errors.New("invalid color")

// ParseHexColor parses "#rrggbb" (the leading '#' is optional) into an
// opaque color.RGBA.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w %q: expected 6-digit hex", ErrInvalidColor, s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w %q: %v", ErrInvalidColor, s, err)
	}

	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// NormalizeColor validates s and returns it as "#rrggbb" in lower case,
// the form a browser color picker reports.
func NormalizeColor(s string) (string, error) {
	c, err := ParseHexColor(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B), nil
}

// ClampFontSize bounds size to [MinFontSize, MaxFontSize].
func ClampFontSize(size int) int {
	return min(max(size, MinFontSize), MaxFontSize)
}
