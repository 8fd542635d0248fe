// Package editor holds the mutable state of one editing session: the
// selected template, form values, per-field styles, the pointer state
// machine and the background image load. Every mutation redraws the frame
// before the session lock is released.
package editor

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/xob0t/SlipStencil/pkg/compositor"
	"github.com/xob0t/SlipStencil/pkg/loader"
	"github.com/xob0t/SlipStencil/pkg/template"
)

// Config wires a session to its collaborators. Zero fields get defaults.
type Config struct {
	Registry *template.Registry    // default: template.Default()
	Resolver loader.Resolver       // default: embedded images, plus http(s)
	Fonts    *template.FontManager // default: embedded Go fonts
	Logger   *log.Logger           // default: log.Default()
	Values   *template.FormValues  // default: template.DefaultValues
}

// PointerEvent is a pointer position in client space together with the
// canvas element's rendered bounds at the time of the event.
type PointerEvent struct {
	Client Point
	Rect   Rect
}

// Validate rejects events whose client point or rect holds a non-finite
// or oversized coordinate.
func (ev PointerEvent) Validate() error {
	if err := ev.Client.CheckRange(); err != nil {
		return err
	}
	r := ev.Rect
	if !inRange(r.Left, r.Top, r.Width, r.Height) {
		return fmt.Errorf("%w: rect %+v", ErrPointerOutOfRange, r)
	}
	return nil
}

// Snapshot is a read-only view of session state.
type Snapshot struct {
	TemplateID   string              `json:"templateId"`
	CanvasWidth  int                 `json:"canvasWidth"`
	CanvasHeight int                 `json:"canvasHeight"`
	Values       template.FormValues `json:"values"`
	Styles       template.Styles     `json:"styles"`
	Active       template.FieldID    `json:"active"`
	Dragging     bool                `json:"dragging"`
	ImageLoading bool                `json:"imageLoading"`
	ImageError   string              `json:"imageError,omitempty"`
}

// Session is one editor instance. It is safe for concurrent use; all
// operations are serialized.
type Session struct {
	mu     sync.Mutex
	reg    *template.Registry
	comp   *compositor.Compositor
	loader *loader.Loader
	logger *log.Logger

	tmpl    template.Template
	values  template.FormValues
	styles  template.Styles
	active  template.FieldID
	pointer PointerState

	bg         image.Image
	loading    bool
	loadErr    error
	gen        uint64
	cancelLoad context.CancelFunc
	loadDone   chan struct{}

	frame *image.RGBA

	// loaded observes every completed load and whether it was applied.
	loaded func(res loader.Result, applied bool)
}

// New creates a session on the registry's first template and starts
// loading its background.
func New(cfg Config) (*Session, error) {
	return newSession(cfg, nil)
}

func newSession(cfg Config, loaded func(loader.Result, bool)) (*Session, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = template.Default()
	}
	res := cfg.Resolver
	if res == nil {
		res = loader.NewDefaultResolver(template.Images())
	}
	fonts := cfg.Fonts
	if fonts == nil {
		var err error
		if fonts, err = template.NewFontManager(); err != nil {
			return nil, fmt.Errorf("fonts: %w", err)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	values := template.DefaultValues
	if cfg.Values != nil {
		values = *cfg.Values
	}

	s := &Session{
		reg:    reg,
		comp:   compositor.New(fonts),
		loader: loader.New(res),
		logger: logger,
		values: values,
		active: template.NoField,
		loaded: loaded,
	}
	s.pointer = s.pointer.Release()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectLocked(reg.First())
	if err := s.redrawLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close abandons any pending image load.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
}

// ── Template & image lifecycle ──

// SelectTemplate switches templates, resetting every field style to the
// template defaults and starting a fresh background load.
func (s *Session) SelectTemplate(id string) error {
	t, err := s.reg.Lookup(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectLocked(t)
	return s.redrawLocked()
}

func (s *Session) selectLocked(t template.Template) {
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.signalLoadLocked()

	s.gen++
	gen := s.gen

	s.tmpl = t
	s.styles = t.CloneDefaults()
	s.active = template.NoField
	s.pointer = s.pointer.Release()
	s.bg = nil
	s.loading = true
	s.loadErr = nil

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelLoad = cancel
	s.loadDone = make(chan struct{})

	ch := s.loader.Load(ctx, t.ImageRef, gen)
	go func() {
		if res, ok := <-ch; ok {
			s.CompleteLoad(res)
		}
	}()
}

// CompleteLoad applies a finished load if it belongs to the current
// generation and reports whether it did. Results of superseded loads are
// dropped.
func (s *Session) CompleteLoad(res loader.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := res.Gen == s.gen && s.loading
	if applied {
		s.loading = false
		s.signalLoadLocked()
		if res.Err != nil {
			s.loadErr = res.Err
			s.bg = nil
			s.logger.Printf("Warning: %v, rendering without background", res.Err)
		} else {
			s.bg = res.Image
		}
		if err := s.redrawLocked(); err != nil {
			s.logger.Printf("Warning: redraw after load: %v", err)
		}
	}

	if s.loaded != nil {
		s.loaded(res, applied)
	}
	return applied
}

func (s *Session) signalLoadLocked() {
	if s.loadDone != nil {
		close(s.loadDone)
		s.loadDone = nil
	}
}

// WaitImage blocks until the current template's background has loaded or
// failed, returning the load error if any. A load that never completes
// blocks until ctx is done.
func (s *Session) WaitImage(ctx context.Context) error {
	for {
		s.mu.Lock()
		if !s.loading {
			err := s.loadErr
			s.mu.Unlock()
			return err
		}
		done := s.loadDone
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
		}
	}
}

// ── Form & style ──

// SetFormValue replaces the content of one field.
func (s *Session) SetFormValue(f template.FieldID, value string) error {
	if !f.Valid() {
		return fmt.Errorf("set value: %w", template.ErrUnknownField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = s.values.With(f, value)
	return s.redrawLocked()
}

// ApplyStyle changes one style attribute and makes its field active.
func (s *Session) ApplyStyle(u StyleUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	styles, err := ApplyStyle(s.styles, u)
	if err != nil {
		return err
	}
	s.styles = styles
	s.active = u.Field
	return s.redrawLocked()
}

// MoveField places a field at an explicit canvas position.
func (s *Session) MoveField(f template.FieldID, x, y int) error {
	if !f.Valid() {
		return fmt.Errorf("move field: %w", template.ErrUnknownField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.styles.Get(f)
	st.X, st.Y = x, y
	s.styles = s.styles.With(f, st)
	return s.redrawLocked()
}

// SetActive selects f for highlighting; NoField clears the selection.
func (s *Session) SetActive(f template.FieldID) error {
	if f != template.NoField && !f.Valid() {
		return fmt.Errorf("set active: %w", template.ErrUnknownField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = f
	return s.redrawLocked()
}

// ── Pointer ──

// PointerDown hit-tests the event and starts a drag on a match. It
// returns the field now active. Without a background, hit-testing is
// disabled and every pointer-down clears the selection.
func (s *Session) PointerDown(ev PointerEvent) (template.FieldID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.toCanvasLocked(ev)
	if err != nil {
		return s.active, err
	}

	if s.bg == nil {
		s.pointer = s.pointer.Release()
		s.active = template.NoField
		return template.NoField, s.redrawLocked()
	}

	boxes, err := s.comp.Boxes(s.values, s.styles)
	if err != nil {
		return template.NoField, err
	}

	s.pointer, s.active = s.pointer.Down(p, boxes)
	return s.active, s.redrawLocked()
}

// PointerMove drags the active field; it reports whether anything moved.
func (s *Session) PointerMove(ev PointerEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.toCanvasLocked(ev)
	if err != nil {
		return false, err
	}
	m, ok := s.pointer.Move(p)
	if !ok {
		return false, nil
	}
	st := s.styles.Get(m.Field)
	st.X, st.Y = m.X, m.Y
	s.styles = s.styles.With(m.Field, st)
	return true, s.redrawLocked()
}

// PointerUp ends a drag. The active field stays selected.
func (s *Session) PointerUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointer = s.pointer.Release()
}

// PointerLeave ends a drag when the pointer leaves the canvas.
func (s *Session) PointerLeave() {
	s.PointerUp()
}

// toCanvasLocked maps ev into canvas space. A tiny rect scales the point
// up, so the result is range-checked as well as the input.
func (s *Session) toCanvasLocked(ev PointerEvent) (Point, error) {
	if err := ev.Validate(); err != nil {
		return Point{}, err
	}
	p := ToCanvas(ev.Client, ev.Rect, s.tmpl.CanvasWidth, s.tmpl.CanvasHeight)
	if err := p.CheckRange(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// ── Views ──

// Template returns the selected template.
func (s *Session) Template() template.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tmpl
}

// Registry returns the template registry the session selects from.
func (s *Session) Registry() *template.Registry {
	return s.reg
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TemplateID:   s.tmpl.ID,
		CanvasWidth:  s.tmpl.CanvasWidth,
		CanvasHeight: s.tmpl.CanvasHeight,
		Values:       s.values,
		Styles:       s.styles,
		Active:       s.active,
		Dragging:     s.pointer.Phase == Dragging,
		ImageLoading: s.loading,
	}
	if s.loadErr != nil {
		snap.ImageError = s.loadErr.Error()
	}
	return snap
}

// Frame returns a copy of the last rendered canvas.
func (s *Session) Frame() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRGBA(s.frame)
}

// ExportFrame clears the selection highlight, redraws, and returns the
// clean frame with the template id it belongs to.
func (s *Session) ExportFrame() (image.Image, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = template.NoField
	if err := s.redrawLocked(); err != nil {
		return nil, "", err
	}
	return cloneRGBA(s.frame), s.tmpl.ID, nil
}

func (s *Session) redrawLocked() error {
	frame, err := s.comp.Render(s.frame, compositor.Scene{
		Width:      s.tmpl.CanvasWidth,
		Height:     s.tmpl.CanvasHeight,
		Background: s.bg,
		Values:     s.values,
		Styles:     s.styles,
		Active:     s.active,
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	s.frame = frame
	return nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
