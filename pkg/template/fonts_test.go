package template

import (
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

func TestFontResolution(t *testing.T) {
	fm, err := NewFontManager()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		family string
		want   string
	}{
		{"Inter", "regular"},
		{"", "regular"},
		{"Inter Bold", "bold"},
		{"inter   ITALIC", "italic"},
		{"Inter Bold Italic", "bold-italic"},
		{"Roboto Mono", "mono"},
	}
	for _, tt := range tests {
		if got := fm.resolve(normalizeFamily(tt.family)); got != fm.builtin[tt.want] {
			t.Errorf("family %q did not resolve to %s", tt.family, tt.want)
		}
	}
}

func TestFaceIsCachedAndSized(t *testing.T) {
	fm, err := NewFontManager()
	if err != nil {
		t.Fatal(err)
	}
	a, err := fm.Face("Inter Bold", 36)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := fm.Face("inter bold", 36)
	if a != b {
		t.Fatal("equivalent family names produced separate faces")
	}

	small, _ := fm.Face("Inter Bold", 18)
	if font.MeasureString(small, "Jane Doe") >= font.MeasureString(a, "Jane Doe") {
		t.Fatal("smaller size measured at least as wide")
	}
	regular, _ := fm.Face("Inter", 36)
	if font.MeasureString(regular, "Jane Doe") == font.MeasureString(a, "Jane Doe") {
		t.Fatal("bold and regular measure identically")
	}
}

func TestRegisterTTFOverridesFamily(t *testing.T) {
	fm, err := NewFontManager()
	if err != nil {
		t.Fatal(err)
	}
	before, _ := fm.Face("Brand", 20)
	if err := fm.RegisterTTF("Brand", gomono.TTF); err != nil {
		t.Fatal(err)
	}
	after, _ := fm.Face("Brand", 20)
	if before == after {
		t.Fatal("registering a font kept the cached face")
	}
	if fm.resolve("brand") == fm.builtin["regular"] {
		t.Fatal("custom family still resolves to the built-in regular font")
	}

	if err := fm.RegisterTTF("Broken", []byte("nope")); err == nil {
		t.Fatal("garbage font data registered")
	}
}

func TestRupeeSignHasRealGlyph(t *testing.T) {
	fm, err := NewFontManager()
	if err != nil {
		t.Fatal(err)
	}
	for _, family := range []string{"Inter Bold", "Inter", "Inter Italic", "Roboto Mono"} {
		face, err := fm.Face(family, 36)
		if err != nil {
			t.Fatal(err)
		}
		if _, adv, ok := face.GlyphBounds('₹'); !ok || adv <= 0 {
			t.Errorf("%s: GlyphBounds('₹') = adv %v, ok %v; want a real glyph", family, adv, ok)
		}
		if _, _, _, _, ok := face.Glyph(fixed.P(0, 36), '₹'); !ok {
			t.Errorf("%s: Glyph('₹') not ok", family)
		}
	}
}

func TestPrimaryFontKeepsItsGlyphs(t *testing.T) {
	fm, err := NewFontManager()
	if err != nil {
		t.Fatal(err)
	}
	face, err := fm.Face("Inter Bold", 36)
	if err != nil {
		t.Fatal(err)
	}
	bold, err := opentype.NewFace(fm.builtin["bold"], &opentype.FaceOptions{Size: 36, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range "Jane Doe 100.00" {
		got, _ := face.GlyphAdvance(r)
		want, _ := bold.GlyphAdvance(r)
		if got != want {
			t.Errorf("advance of %q = %v; want Go Bold's %v", r, got, want)
		}
	}
	if face.Metrics() != bold.Metrics() {
		t.Error("metrics do not come from the primary font")
	}
	if k := face.Kern('₹', '1'); k != 0 {
		t.Errorf("kern across fonts = %v; want 0", k)
	}
}
