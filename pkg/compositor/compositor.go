// Package compositor draws a slip: the template background stretched to the
// canvas, each field's styled text on top, and a dashed box around the
// active field.
//
// Every Render is a full redraw. The same Measure function backs both the
// selection box and pointer hit-testing, so what the user sees highlighted
// is exactly what a pointer-down picks up.
package compositor

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/xob0t/SlipStencil/pkg/template"
)

// CurrencyGlyph prefixes the amount field.
const CurrencyGlyph = "₹"

// LineHeightFactor approximates a text box height from its font size.
const LineHeightFactor = 1.2

// Selection box appearance.
var (
	HighlightColor = color.RGBA{R: 0xF9, G: 0x73, B: 0x16, A: 0xFF}
	HighlightDash  = []float64{5, 5}
)

const highlightWidth = 2

// Scene is everything a frame depends on.
type Scene struct {
	Width, Height int
	Background    image.Image // nil renders text on a transparent canvas
	Values        template.FormValues
	Styles        template.Styles
	Active        template.FieldID
}

// Box is a text bounding box in canvas pixels.
type Box struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) lies inside b, edges included.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.W && y >= b.Y && y <= b.Y+b.H
}

// FieldBox pairs a field with its current bounding box.
type FieldBox struct {
	Field template.FieldID
	Box   Box
}

// Compositor renders scenes using a session's font manager.
type Compositor struct {
	fonts *template.FontManager
}

// New creates a compositor drawing with fonts.
func New(fonts *template.FontManager) *Compositor {
	return &Compositor{fonts: fonts}
}

// DisplayText is the string drawn for f.
func DisplayText(f template.FieldID, values template.FormValues) string {
	if f == template.FieldAmount {
		return CurrencyGlyph + values.Get(f)
	}
	return values.Get(f)
}

// Measure returns the box text occupies when drawn with style: the
// advance width from font metrics and a height of FontSize*1.2.
func (c *Compositor) Measure(text string, style template.FieldStyle) (Box, error) {
	face, err := c.fonts.Face(style.FontFamily, style.FontSize)
	if err != nil {
		return Box{}, err
	}
	adv := font.MeasureString(face, text)
	return Box{
		X: float64(style.X),
		Y: float64(style.Y),
		W: float64(adv) / 64,
		H: float64(style.FontSize) * LineHeightFactor,
	}, nil
}

// Boxes measures every field in canonical order.
func (c *Compositor) Boxes(values template.FormValues, styles template.Styles) ([]FieldBox, error) {
	boxes := make([]FieldBox, 0, len(template.Fields))
	for _, f := range template.Fields {
		b, err := c.Measure(DisplayText(f, values), styles.Get(f))
		if err != nil {
			return nil, fmt.Errorf("measure %s: %w", f, err)
		}
		boxes = append(boxes, FieldBox{Field: f, Box: b})
	}
	return boxes, nil
}

// Render draws scene into dst and returns it. dst is reallocated when it is
// nil or not exactly Width x Height; either way its prior content is
// cleared first.
func (c *Compositor) Render(dst *image.RGBA, scene Scene) (*image.RGBA, error) {
	if scene.Width <= 0 || scene.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", scene.Width, scene.Height)
	}

	bounds := image.Rect(0, 0, scene.Width, scene.Height)
	if dst == nil || dst.Bounds() != bounds {
		dst = image.NewRGBA(bounds)
	} else {
		draw.Draw(dst, bounds, image.Transparent, image.Point{}, draw.Src)
	}

	// Stretched to fill, aspect ratio not preserved.
	if scene.Background != nil {
		draw.CatmullRom.Scale(dst, bounds, scene.Background, scene.Background.Bounds(), draw.Src, nil)
	}

	dc := gg.NewContextForRGBA(dst)
	for _, f := range template.Fields {
		if err := c.drawField(dc, f, scene); err != nil {
			return nil, fmt.Errorf("draw %s: %w", f, err)
		}
	}

	return dst, nil
}

// drawField fills the field text with a top baseline at (X, Y) and strokes
// the selection box when f is active.
func (c *Compositor) drawField(dc *gg.Context, f template.FieldID, scene Scene) error {
	style := scene.Styles.Get(f)
	text := DisplayText(f, scene.Values)

	face, err := c.fonts.Face(style.FontFamily, style.FontSize)
	if err != nil {
		return err
	}
	col, err := template.ParseHexColor(style.Color)
	if err != nil {
		return err
	}

	ascent := float64(face.Metrics().Ascent) / 64
	dc.SetFontFace(face)
	dc.SetColor(col)
	dc.DrawString(text, float64(style.X), float64(style.Y)+ascent)

	if f != scene.Active {
		return nil
	}

	box, err := c.Measure(text, style)
	if err != nil {
		return err
	}
	dc.SetColor(HighlightColor)
	dc.SetLineWidth(highlightWidth)
	dc.SetDash(HighlightDash...)
	dc.DrawRectangle(box.X, box.Y, box.W, box.H)
	dc.Stroke()
	dc.SetDash()
	return nil
}
