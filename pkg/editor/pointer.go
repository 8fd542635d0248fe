package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/xob0t/SlipStencil/pkg/compositor"
	"github.com/xob0t/SlipStencil/pkg/template"
)

// Point is a position in either client or canvas space.
type Point struct {
	X, Y float64
}

// Rect is the canvas element's rendered bounding box in client space.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MaxCoordinate bounds the magnitude of every client, rect and canvas
// coordinate a pointer event may carry.
const MaxCoordinate = 1 << 20

// ErrPointerOutOfRange is returned for non-finite or oversized coordinates.
var ErrPointerOutOfRange = errors.New("pointer coordinate out of range")

func inRange(vs ...float64) bool {
	for _, v := range vs {
		if !(math.Abs(v) <= MaxCoordinate) {
			return false
		}
	}
	return true
}

// CheckRange rejects p unless both coordinates are finite and within
// MaxCoordinate.
func (p Point) CheckRange() error {
	if !inRange(p.X, p.Y) {
		return fmt.Errorf("%w: (%g, %g)", ErrPointerOutOfRange, p.X, p.Y)
	}
	return nil
}

// ToCanvas maps a client-space point into canvas pixels using a per-axis
// scale of canvas size over rendered size. A degenerate rect axis maps
// with scale 1.
func ToCanvas(client Point, rect Rect, canvasW, canvasH int) Point {
	sx, sy := 1.0, 1.0
	if rect.Width > 0 {
		sx = float64(canvasW) / rect.Width
	}
	if rect.Height > 0 {
		sy = float64(canvasH) / rect.Height
	}
	return Point{
		X: (client.X - rect.Left) * sx,
		Y: (client.Y - rect.Top) * sy,
	}
}

// TouchPoint returns the first touch, the only one the drag pipeline reads.
func TouchPoint(touches []Point) (Point, bool) {
	if len(touches) == 0 {
		return Point{}, false
	}
	return touches[0], true
}

// Phase is the pointer state machine's state.
type Phase int

const (
	Idle Phase = iota
	Dragging
)

func (p Phase) String() string {
	if p == Dragging {
		return "dragging"
	}
	return "idle"
}

// PointerState is Idle, or Dragging a field grabbed at Grab relative to
// the field origin. The zero value is Idle.
type PointerState struct {
	Phase Phase
	Field template.FieldID
	Grab  Point
}

// Moved is the new origin of the dragged field after a pointer-move.
type Moved struct {
	Field template.FieldID
	X, Y  int
}

// HitTest returns the first box in the given order containing p. Order,
// not visual stacking, breaks ties between overlapping fields.
func HitTest(p Point, boxes []compositor.FieldBox) (compositor.FieldBox, bool) {
	for _, fb := range boxes {
		if fb.Box.Contains(p.X, p.Y) {
			return fb, true
		}
	}
	return compositor.FieldBox{Field: template.NoField}, false
}

// Down handles pointer-down at canvas point p. It returns the next state
// and the field that should become active (NoField on a miss).
func (s PointerState) Down(p Point, boxes []compositor.FieldBox) (PointerState, template.FieldID) {
	fb, ok := HitTest(p, boxes)
	if !ok {
		return PointerState{Field: template.NoField}, template.NoField
	}
	return PointerState{
		Phase: Dragging,
		Field: fb.Field,
		Grab:  Point{X: p.X - fb.Box.X, Y: p.Y - fb.Box.Y},
	}, fb.Field
}

// Move handles pointer-move at canvas point p. ok is false when idle.
// Positions are not clamped to the canvas.
func (s PointerState) Move(p Point) (Moved, bool) {
	if s.Phase != Dragging || !s.Field.Valid() {
		return Moved{}, false
	}
	return Moved{
		Field: s.Field,
		X:     int(math.Round(p.X - s.Grab.X)),
		Y:     int(math.Round(p.Y - s.Grab.Y)),
	}, true
}

// Release handles pointer-up and pointer-leave.
func (s PointerState) Release() PointerState {
	return PointerState{Field: template.NoField}
}
