// fonts.go - Font family resolution and face caching.
// Family names from the registry (e.g. "Inter Bold") map onto the embedded
// Go fonts unless a custom TTF has been registered under that exact name.
// Runes the primary font lacks (the ₹ sign among them) are drawn from an
// embedded DejaVu Sans fallback.
package template

import (
	_ "embed"
	"fmt"
	"image"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

//go:embed fonts/DejaVuSans.ttf
var fallbackRegularTTF []byte

//go:embed fonts/DejaVuSans-Bold.ttf
var fallbackBoldTTF []byte

// DefaultFamily is used for styles that name no family.
const DefaultFamily = "Inter"

type faceKey struct {
	family string
	size   int
}

// FontManager resolves family names to faces and caches one face per
// (family, size). Faces are not safe for concurrent use, so a FontManager
// belongs to a single session.
type FontManager struct {
	builtin  map[string]*opentype.Font
	fallback map[string]*opentype.Font
	custom   map[string]*opentype.Font
	faces    map[faceKey]font.Face
	dpi      float64
}

// NewFontManager parses the embedded Go fonts and the fallback fonts.
func NewFontManager() (*FontManager, error) {
	fm := &FontManager{
		builtin:  make(map[string]*opentype.Font),
		fallback: make(map[string]*opentype.Font),
		custom:   make(map[string]*opentype.Font),
		faces:    make(map[faceKey]font.Face),
		dpi:      72,
	}

	for name, data := range map[string][]byte{
		"regular":     goregular.TTF,
		"bold":        gobold.TTF,
		"italic":      goitalic.TTF,
		"bold-italic": gobolditalic.TTF,
		"mono":        gomono.TTF,
	} {
		parsed, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s font: %w", name, err)
		}
		fm.builtin[name] = parsed
	}
	for name, data := range map[string][]byte{
		"regular": fallbackRegularTTF,
		"bold":    fallbackBoldTTF,
	} {
		parsed, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s fallback font: %w", name, err)
		}
		fm.fallback[name] = parsed
	}

	return fm, nil
}

// RegisterTTF makes family resolve to the given TrueType/OpenType data.
func (fm *FontManager) RegisterTTF(family string, data []byte) error {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font %q: %w", family, err)
	}
	fm.custom[normalizeFamily(family)] = parsed
	for k := range fm.faces {
		if k.family == normalizeFamily(family) {
			delete(fm.faces, k)
		}
	}
	return nil
}

// RegisterFile loads a font file from disk and registers it under family.
func (fm *FontManager) RegisterFile(family, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fm.RegisterTTF(family, data)
}

// Face returns the face for family at sizePx canvas pixels.
func (fm *FontManager) Face(family string, sizePx int) (font.Face, error) {
	key := faceKey{family: normalizeFamily(family), size: sizePx}
	if face, ok := fm.faces[key]; ok {
		return face, nil
	}

	primary, err := fm.newFace(fm.resolve(key.family), sizePx)
	if err != nil {
		return nil, err
	}
	fallback, err := fm.newFace(fm.resolveFallback(key.family), sizePx)
	if err != nil {
		return nil, err
	}

	face := &chainFace{faces: []font.Face{primary, fallback}}
	fm.faces[key] = face
	return face, nil
}

func (fm *FontManager) newFace(f *opentype.Font, sizePx int) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(sizePx),
		DPI:     fm.dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

func (fm *FontManager) resolve(family string) *opentype.Font {
	if f, ok := fm.custom[family]; ok {
		return f
	}

	bold := strings.Contains(family, "bold")
	italic := strings.Contains(family, "italic") || strings.Contains(family, "oblique")
	switch {
	case strings.Contains(family, "mono"):
		return fm.builtin["mono"]
	case bold && italic:
		return fm.builtin["bold-italic"]
	case bold:
		return fm.builtin["bold"]
	case italic:
		return fm.builtin["italic"]
	}
	return fm.builtin["regular"]
}

func (fm *FontManager) resolveFallback(family string) *opentype.Font {
	if strings.Contains(family, "bold") {
		return fm.fallback["bold"]
	}
	return fm.fallback["regular"]
}

func normalizeFamily(family string) string {
	family = strings.ToLower(strings.Join(strings.Fields(family), " "))
	if family == "" {
		return strings.ToLower(DefaultFamily)
	}
	return family
}

// chainFace draws each rune with the first face that has a real glyph for
// it. Metrics come from the first face, so the baseline and line height
// follow the primary font.
type chainFace struct {
	faces []font.Face
}

func (c *chainFace) pick(r rune) font.Face {
	for _, f := range c.faces {
		if _, ok := f.GlyphAdvance(r); ok {
			return f
		}
	}
	return c.faces[0]
}

func (c *chainFace) Close() error {
	var first error
	for _, f := range c.faces {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *chainFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	return c.pick(r).Glyph(dot, r)
}

func (c *chainFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	return c.pick(r).GlyphBounds(r)
}

func (c *chainFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	return c.pick(r).GlyphAdvance(r)
}

// Kern is zero across a face boundary.
func (c *chainFace) Kern(r0, r1 rune) fixed.Int26_6 {
	f := c.pick(r0)
	if f != c.pick(r1) {
		return 0
	}
	return f.Kern(r0, r1)
}

func (c *chainFace) Metrics() font.Metrics {
	return c.faces[0].Metrics()
}
