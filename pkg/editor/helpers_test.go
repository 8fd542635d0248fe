package editor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"log"
	"testing"
	"testing/fstest"
	"time"

	"github.com/xob0t/SlipStencil/pkg/loader"
)

var (
	red  = color.RGBA{R: 200, G: 20, B: 20, A: 255}
	blue = color.RGBA{R: 20, G: 20, B: 200, A: 255}
)

func solidPNG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 40))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// testImages backs receipt-birthday with red and receipt-classic with blue.
func testImages(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"template2.png": {Data: solidPNG(t, red)},
		"template1.png": {Data: solidPNG(t, blue)},
	}
}

// gateResolver holds back selected refs until their gate is closed,
// ignoring cancellation, to model a slow fetch that still succeeds.
type gateResolver struct {
	fs    fs.FS
	gates map[string]chan struct{}
}

func (g gateResolver) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if gate, ok := g.gates[ref]; ok {
		<-gate
	}
	return g.fs.Open(ref)
}

type loadEvent struct {
	res     loader.Result
	applied bool
}

func newTestSession(t *testing.T, res loader.Resolver) (*Session, <-chan loadEvent) {
	t.Helper()
	events := make(chan loadEvent, 8)
	s, err := newSession(Config{
		Resolver: res,
		Logger:   log.New(io.Discard, "", 0),
	}, func(r loader.Result, applied bool) {
		events <- loadEvent{res: r, applied: applied}
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(s.Close)
	return s, events
}

func waitImage(t *testing.T, s *Session) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.WaitImage(ctx)
	if ctx.Err() != nil {
		t.Fatalf("image load did not complete: %v", err)
	}
	return err
}

func nextEvent(t *testing.T, events <-chan loadEvent) loadEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for load result")
		return loadEvent{}
	}
}

func near(a, b color.RGBA) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) <= 2 && d(a.G, b.G) <= 2 && d(a.B, b.B) <= 2 && d(a.A, b.A) <= 2
}

// scale1 maps client coordinates 1:1 onto an 800x400 canvas.
var scale1 = Rect{Left: 0, Top: 0, Width: 800, Height: 400}

func at(x, y float64) PointerEvent {
	return PointerEvent{Client: Point{X: x, Y: y}, Rect: scale1}
}
