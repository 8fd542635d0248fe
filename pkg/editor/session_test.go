package editor

import (
	"bytes"
	"errors"
	"image"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/xob0t/SlipStencil/pkg/loader"
	"github.com/xob0t/SlipStencil/pkg/template"
)

func loadedSession(t *testing.T) *Session {
	t.Helper()
	s, _ := newTestSession(t, loader.FSResolver{FS: testImages(t)})
	if err := waitImage(t, s); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestNewSessionStartsOnFirstTemplate(t *testing.T) {
	s := loadedSession(t)
	snap := s.Snapshot()

	want := template.Default().First()
	if snap.TemplateID != want.ID {
		t.Fatalf("template = %q; want %q", snap.TemplateID, want.ID)
	}
	if diff := cmp.Diff(want.Defaults, snap.Styles); diff != "" {
		t.Fatalf("styles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(template.DefaultValues, snap.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if snap.Active != template.NoField || snap.ImageLoading {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	frame := s.Frame()
	if frame.Bounds() != image.Rect(0, 0, 800, 400) {
		t.Fatalf("frame bounds = %v", frame.Bounds())
	}
	if got := frame.RGBAAt(2, 2); !near(got, red) {
		t.Fatalf("background pixel = %v; want %v", got, red)
	}
}

func TestSelectTemplateResetsStyles(t *testing.T) {
	dirty := loadedSession(t)
	for _, u := range []StyleUpdate{
		{Field: template.FieldName, Kind: StyleFontSize, FontSize: 70},
		{Field: template.FieldAmount, Kind: StyleColor, Color: "#00ff00"},
	} {
		if err := dirty.ApplyStyle(u); err != nil {
			t.Fatal(err)
		}
	}
	if err := dirty.MoveField(template.FieldPurpose, -40, 900); err != nil {
		t.Fatal(err)
	}

	clean := loadedSession(t)

	classic, err := template.Default().Lookup("receipt-classic")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []*Session{dirty, clean, dirty} {
		if err := s.SelectTemplate(classic.ID); err != nil {
			t.Fatal(err)
		}
		snap := s.Snapshot()
		if diff := cmp.Diff(classic.Defaults, snap.Styles); diff != "" {
			t.Fatalf("styles after switch mismatch (-want +got):\n%s", diff)
		}
		if snap.Active != template.NoField || snap.Dragging {
			t.Fatalf("switch kept selection: %+v", snap)
		}
	}
}

func TestSelectUnknownTemplate(t *testing.T) {
	s := loadedSession(t)
	err := s.SelectTemplate("nope")
	if !errors.Is(err, template.ErrUnknownTemplate) {
		t.Fatalf("err = %v; want ErrUnknownTemplate", err)
	}
	if got := s.Snapshot().TemplateID; got != "receipt-birthday" {
		t.Fatalf("template changed to %q", got)
	}
}

func TestStaleLoadIsIgnored(t *testing.T) {
	slow := make(chan struct{})
	res := gateResolver{
		fs:    testImages(t),
		gates: map[string]chan struct{}{"template2.png": slow},
	}
	s, events := newTestSession(t, res)

	if err := s.SelectTemplate("receipt-classic"); err != nil {
		t.Fatal(err)
	}
	ev := nextEvent(t, events)
	if !ev.applied || ev.res.Ref != "template1.png" {
		t.Fatalf("first completed load = %+v; want applied template1.png", ev)
	}

	// The birthday image finishes after the switch.
	close(slow)
	ev = nextEvent(t, events)
	if ev.applied || ev.res.Ref != "template2.png" || ev.res.Err != nil {
		t.Fatalf("late load = %+v; want successful but ignored template2.png", ev)
	}

	if got := s.Frame().RGBAAt(2, 2); !near(got, blue) {
		t.Fatalf("background pixel = %v; want current template's %v", got, blue)
	}
	if snap := s.Snapshot(); snap.TemplateID != "receipt-classic" || snap.ImageLoading {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestCompleteLoadChecksGeneration(t *testing.T) {
	s := loadedSession(t)
	stale := loader.Result{Gen: 0, Ref: "template1.png", Image: image.NewRGBA(image.Rect(0, 0, 1, 1))}
	if s.CompleteLoad(stale) {
		t.Fatal("stale result applied")
	}
	if got := s.Frame().RGBAAt(2, 2); !near(got, red) {
		t.Fatalf("background pixel = %v; want %v", got, red)
	}
}

func TestLoadFailureDisablesHitTesting(t *testing.T) {
	s, _ := newTestSession(t, loader.FSResolver{FS: fstest.MapFS{}})
	if err := waitImage(t, s); err == nil {
		t.Fatal("expected load error")
	}

	snap := s.Snapshot()
	if snap.ImageLoading || snap.ImageError == "" {
		t.Fatalf("snapshot = %+v; want failed load", snap)
	}

	active, err := s.PointerDown(at(160, 255))
	if err != nil {
		t.Fatal(err)
	}
	if active != template.NoField {
		t.Fatalf("active = %v; hit-testing should be disabled", active)
	}

	// Export still produces a text-only frame.
	img, id, err := s.ExportFrame()
	if err != nil || img == nil || id != "receipt-birthday" {
		t.Fatalf("ExportFrame = %v, %q, %v", img != nil, id, err)
	}
}

func TestPointerDragMovesActiveField(t *testing.T) {
	s := loadedSession(t)

	active, err := s.PointerDown(at(170, 260))
	if err != nil {
		t.Fatal(err)
	}
	if active != template.FieldAmount {
		t.Fatalf("active = %v; want amount", active)
	}
	if !s.Snapshot().Dragging {
		t.Fatal("not dragging after pointer-down on a field")
	}

	moved, err := s.PointerMove(at(180, 256))
	if err != nil || !moved {
		t.Fatalf("PointerMove = %v, %v", moved, err)
	}

	s.PointerUp()
	snap := s.Snapshot()
	st := snap.Styles.Get(template.FieldAmount)
	if st.X != 164 || st.Y != 246 {
		t.Fatalf("amount at (%d,%d); want (164,246)", st.X, st.Y)
	}
	if snap.Dragging || snap.Active != template.FieldAmount {
		t.Fatalf("after pointer-up: %+v; want idle with amount still active", snap)
	}

	if moved, _ := s.PointerMove(at(300, 300)); moved {
		t.Fatal("move after pointer-up changed a field")
	}
}

func TestPointerDragScaledCanvas(t *testing.T) {
	s := loadedSession(t)
	half := Rect{Left: 20, Top: 10, Width: 400, Height: 200}

	// Client (105,140) is canvas (170,260).
	if active, _ := s.PointerDown(PointerEvent{Client: Point{105, 140}, Rect: half}); active != template.FieldAmount {
		t.Fatalf("active = %v; want amount", active)
	}
	s.PointerMove(PointerEvent{Client: Point{110, 138}, Rect: half})
	s.PointerLeave()

	st := s.Snapshot().Styles.Get(template.FieldAmount)
	if st.X != 164 || st.Y != 246 {
		t.Fatalf("amount at (%d,%d); want (164,246)", st.X, st.Y)
	}
}

func TestPointerDownMissClearsSelection(t *testing.T) {
	s := loadedSession(t)
	if err := s.SetActive(template.FieldPurpose); err != nil {
		t.Fatal(err)
	}
	active, err := s.PointerDown(at(5, 5))
	if err != nil {
		t.Fatal(err)
	}
	if active != template.NoField || s.Snapshot().Active != template.NoField {
		t.Fatal("miss did not clear the active field")
	}
}

func TestApplyStyleActivatesField(t *testing.T) {
	s := loadedSession(t)
	if err := s.ApplyStyle(StyleUpdate{Field: template.FieldPurpose, Kind: StyleFontSize, FontSize: 5}); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.Active != template.FieldPurpose {
		t.Fatalf("active = %v; want purpose", snap.Active)
	}
	if got := snap.Styles.Get(template.FieldPurpose).FontSize; got != template.MinFontSize {
		t.Fatalf("font size = %d; want clamped %d", got, template.MinFontSize)
	}

	before := s.Snapshot().Styles
	err := s.ApplyStyle(StyleUpdate{Field: template.FieldPurpose, Kind: StyleColor, Color: "blue"})
	if !errors.Is(err, template.ErrInvalidColor) {
		t.Fatalf("err = %v; want ErrInvalidColor", err)
	}
	if diff := cmp.Diff(before, s.Snapshot().Styles); diff != "" {
		t.Fatalf("rejected update changed styles (-want +got):\n%s", diff)
	}
}

func TestExportFrameHasNoSelection(t *testing.T) {
	s := loadedSession(t)
	if err := s.SetActive(template.FieldAmount); err != nil {
		t.Fatal(err)
	}
	highlighted := s.Frame()

	img, id, err := s.ExportFrame()
	if err != nil {
		t.Fatal(err)
	}
	if id != "receipt-birthday" {
		t.Fatalf("id = %q", id)
	}
	if got := s.Snapshot().Active; got != template.NoField {
		t.Fatalf("active after export = %v; want none", got)
	}

	if err := s.SetActive(template.NoField); err != nil {
		t.Fatal(err)
	}
	clean := s.Frame()

	exported := img.(*image.RGBA)
	if !bytes.Equal(exported.Pix, clean.Pix) {
		t.Fatal("exported frame differs from an unselected render")
	}
	if bytes.Equal(highlighted.Pix, clean.Pix) {
		t.Fatal("selection box was not drawn before export")
	}
}

func TestFormValueRedraws(t *testing.T) {
	s := loadedSession(t)
	before := s.Frame()
	if err := s.SetFormValue(template.FieldName, "John Q. Public"); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Values.Name; got != "John Q. Public" {
		t.Fatalf("name = %q", got)
	}
	if bytes.Equal(before.Pix, s.Frame().Pix) {
		t.Fatal("frame unchanged after editing the name")
	}
	if err := s.SetFormValue(template.NoField, "x"); !errors.Is(err, template.ErrUnknownField) {
		t.Fatalf("err = %v; want ErrUnknownField", err)
	}
}

func TestPointerRejectsOutOfRangeCoordinates(t *testing.T) {
	s := loadedSession(t)
	if _, err := s.PointerDown(at(170, 260)); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot()

	events := []PointerEvent{
		at(1e30, 260),
		at(170, -1e30),
		// A near-zero rect scales an ordinary client point out of range.
		{Client: Point{X: 5, Y: 5}, Rect: Rect{Width: 1e-300, Height: 400}},
	}
	for _, ev := range events {
		moved, err := s.PointerMove(ev)
		if !errors.Is(err, ErrPointerOutOfRange) || moved {
			t.Fatalf("PointerMove(%+v) = %v, %v; want ErrPointerOutOfRange", ev, moved, err)
		}
		if _, err := s.PointerDown(ev); !errors.Is(err, ErrPointerOutOfRange) {
			t.Fatalf("PointerDown(%+v) = %v; want ErrPointerOutOfRange", ev, err)
		}
	}

	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Fatalf("rejected events changed state (-want +got):\n%s", diff)
	}
}
