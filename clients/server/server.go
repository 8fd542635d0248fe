// Package server provides the SlipStencil web editor and its HTTP API.
//
// The browser page is a thin shell: it forwards form edits, style edits and
// pointer/touch events to the single in-memory editor session and paints
// whatever frame the Go compositor produced.
package server

import (
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/exec"
	"runtime"

	"github.com/xob0t/SlipStencil/pkg/editor"
	"github.com/xob0t/SlipStencil/pkg/export"
	"github.com/xob0t/SlipStencil/pkg/loader"
	"github.com/xob0t/SlipStencil/pkg/template"
)

//go:embed web/*
var webContent embed.FS

const maxBody = 1 << 20

type srv struct {
	session *editor.Session
}

// RunServe starts the web UI server.
func RunServe(args []string) error {
	fset := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		port      string
		assetsDir string
		noBrowser bool
	)
	fset.StringVar(&port, "port", "8080", "Port to listen on")
	fset.StringVar(&port, "p", "8080", "Port to listen on")
	fset.StringVar(&assetsDir, "assets", "", "Directory to resolve template images from (default: embedded)")
	fset.BoolVar(&noBrowser, "no-browser", false, "Do not open a browser")
	if err := fset.Parse(args); err != nil {
		return err
	}

	images := template.Images()
	if assetsDir != "" {
		images = os.DirFS(assetsDir)
	}

	session, err := editor.New(editor.Config{Resolver: loader.NewDefaultResolver(images)})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer session.Close()

	handler, err := NewHandler(session)
	if err != nil {
		return err
	}

	addr := ":" + port
	log.Printf("SlipStencil editor → http://localhost%s", addr)

	if !noBrowser {
		go openBrowser("http://localhost" + addr)
	}

	return http.ListenAndServe(addr, handler)
}

// NewHandler serves the embedded page and the API for one session.
func NewHandler(session *editor.Session) (http.Handler, error) {
	webFS, err := fs.Sub(webContent, "web")
	if err != nil {
		return nil, fmt.Errorf("embed web: %w", err)
	}

	s := &srv{session: session}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/templates", s.handleTemplates)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/frame.png", s.handleFrame)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/template", s.handleSelectTemplate)
	mux.HandleFunc("POST /api/form", s.handleForm)
	mux.HandleFunc("POST /api/style", s.handleStyle)
	mux.HandleFunc("POST /api/active", s.handleActive)
	mux.HandleFunc("POST /api/pointer/{action}", s.handlePointer)

	mux.Handle("/", http.FileServer(http.FS(webFS)))
	return mux, nil
}

// ── Read ──

type templateInfo struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	CanvasWidth  int             `json:"canvasWidth"`
	CanvasHeight int             `json:"canvasHeight"`
	Defaults     template.Styles `json:"defaults"`
}

func (s *srv) handleTemplates(w http.ResponseWriter, r *http.Request) {
	list := s.session.Registry().List()
	out := make([]templateInfo, 0, len(list))
	for _, t := range list {
		out = append(out, templateInfo{
			ID:           t.ID,
			Name:         t.Name,
			Image:        t.ImageRef,
			CanvasWidth:  t.CanvasWidth,
			CanvasHeight: t.CanvasHeight,
			Defaults:     t.Defaults,
		})
	}
	writeJSON(w, out)
}

func (s *srv) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.session.Snapshot())
}

func (s *srv) handleFrame(w http.ResponseWriter, r *http.Request) {
	frame := s.session.Frame()
	if frame == nil {
		http.Error(w, "no frame", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := export.Encode(w, frame); err != nil {
		log.Printf("frame: %v", err)
	}
}

func (s *srv) handleExport(w http.ResponseWriter, r *http.Request) {
	name, data, err := export.Render(s.session)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Write(data)
}

// ── Mutations ──

func (s *srv) handleSelectTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, s.session.SelectTemplate(req.ID))
}

func (s *srv) handleForm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field template.FieldID `json:"field"`
		Value string           `json:"value"`
	}
	req.Field = template.NoField
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, s.session.SetFormValue(req.Field, req.Value))
}

func (s *srv) handleStyle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field    template.FieldID `json:"field"`
		Kind     string           `json:"kind"`
		FontSize int              `json:"fontSize"`
		Color    string           `json:"color"`
	}
	req.Field = template.NoField
	if !decode(w, r, &req) {
		return
	}
	kind, err := editor.ParseStyleKind(req.Kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.respond(w, s.session.ApplyStyle(editor.StyleUpdate{
		Field:    req.Field,
		Kind:     kind,
		FontSize: req.FontSize,
		Color:    req.Color,
	}))
}

func (s *srv) handleActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field template.FieldID `json:"field"`
	}
	req.Field = template.NoField
	if !decode(w, r, &req) {
		return
	}
	s.respond(w, s.session.SetActive(req.Field))
}

type clientPoint struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

type pointerRequest struct {
	clientPoint
	Touches []clientPoint `json:"touches"`
	Rect    editor.Rect   `json:"rect"`
}

// event converts the request to a pointer event, reading only the first
// touch when touches are present.
func (p pointerRequest) event() editor.PointerEvent {
	pt := editor.Point{X: p.ClientX, Y: p.ClientY}
	if len(p.Touches) > 0 {
		touches := make([]editor.Point, len(p.Touches))
		for i, t := range p.Touches {
			touches[i] = editor.Point{X: t.ClientX, Y: t.ClientY}
		}
		pt, _ = editor.TouchPoint(touches)
	}
	return editor.PointerEvent{Client: pt, Rect: p.Rect}
}

func (s *srv) handlePointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if !decode(w, r, &req) {
		return
	}
	ev := req.event()
	if err := ev.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	switch action := r.PathValue("action"); action {
	case "down":
		_, err = s.session.PointerDown(ev)
	case "move":
		_, err = s.session.PointerMove(ev)
	case "up":
		s.session.PointerUp()
	case "leave":
		s.session.PointerLeave()
	default:
		http.Error(w, fmt.Sprintf("unknown pointer action %q", action), http.StatusNotFound)
		return
	}
	s.respond(w, err)
}

// ── Helpers ──

// respond maps err to a status code or writes the new state.
func (s *srv) respond(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSON(w, s.session.Snapshot())
	case errors.Is(err, template.ErrUnknownTemplate),
		errors.Is(err, template.ErrUnknownField),
		errors.Is(err, template.ErrInvalidColor),
		errors.Is(err, editor.ErrPointerOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "decode request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("open browser: %v", err)
	}
}
