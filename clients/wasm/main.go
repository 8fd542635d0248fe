//go:build js && wasm

// SlipStencil WASM - in-browser editor session.
// Compiled with: GOOS=js GOARCH=wasm go build -o slipstencil.wasm ./clients/wasm/
package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/xob0t/SlipStencil/pkg/editor"
	"github.com/xob0t/SlipStencil/pkg/export"
	"github.com/xob0t/SlipStencil/pkg/template"
)

var session *editor.Session

func main() {
	fmt.Println("SlipStencil WASM loaded")

	var err error
	session, err = editor.New(editor.Config{})
	if err != nil {
		fmt.Println("error: create session:", err)
		return
	}

	// Register JS-callable functions.
	js.Global().Set("goSelectTemplate", js.FuncOf(selectTemplate))
	js.Global().Set("goSetForm", js.FuncOf(setForm))
	js.Global().Set("goSetStyle", js.FuncOf(setStyle))
	js.Global().Set("goPointer", js.FuncOf(pointer))
	js.Global().Set("goState", js.FuncOf(state))
	js.Global().Set("goFrame", js.FuncOf(frame))
	js.Global().Set("goExport", js.FuncOf(exportSlip))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

// state() - current session state as JSON.
func state(this js.Value, args []js.Value) interface{} {
	b, err := json.Marshal(session.Snapshot())
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf(string(b))
}

// result returns the new state, or an "error: ..." string.
func result(err error) interface{} {
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return state(js.Undefined(), nil)
}

// goSelectTemplate(id)
func selectTemplate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need template id")
	}
	return result(session.SelectTemplate(args[0].String()))
}

// goSetForm(field, value)
func setForm(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need field, value")
	}
	f, err := template.ParseFieldID(args[0].String())
	if err != nil {
		return result(err)
	}
	return result(session.SetFormValue(f, args[1].String()))
}

// goSetStyle(field, kind, value) - kind is "fontSize" or "color".
func setStyle(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf("error: need field, kind, value")
	}
	f, err := template.ParseFieldID(args[0].String())
	if err != nil {
		return result(err)
	}
	kind, err := editor.ParseStyleKind(args[1].String())
	if err != nil {
		return result(err)
	}

	u := editor.StyleUpdate{Field: f, Kind: kind}
	if kind == editor.StyleFontSize {
		u.FontSize = args[2].Int()
	} else {
		u.Color = args[2].String()
	}
	return result(session.ApplyStyle(u))
}

// goPointer(action, clientX, clientY, canvasElement) - action is
// "down", "move", "up" or "leave". Touch handlers pass touches[0].
func pointer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need action")
	}

	var ev editor.PointerEvent
	if len(args) >= 4 {
		r := args[3].Call("getBoundingClientRect")
		ev = editor.PointerEvent{
			Client: editor.Point{X: args[1].Float(), Y: args[2].Float()},
			Rect: editor.Rect{
				Left:   r.Get("left").Float(),
				Top:    r.Get("top").Float(),
				Width:  r.Get("width").Float(),
				Height: r.Get("height").Float(),
			},
		}
	}

	var err error
	switch action := args[0].String(); action {
	case "down":
		_, err = session.PointerDown(ev)
	case "move":
		_, err = session.PointerMove(ev)
	case "up":
		session.PointerUp()
	case "leave":
		session.PointerLeave()
	default:
		err = fmt.Errorf("unknown pointer action %q", action)
	}
	return result(err)
}

// goFrame() - current frame as base64 PNG.
func frame(this js.Value, args []js.Value) interface{} {
	img := session.Frame()
	if img == nil {
		return js.ValueOf("error: no frame")
	}
	var buf bufferSaver
	if err := export.Encode(&buf, img); err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(buf.data))
}

// goExport() - {name, png} with the PNG base64-encoded; the page triggers
// the download.
func exportSlip(this js.Value, args []js.Value) interface{} {
	var buf bufferSaver
	if _, err := export.Export(session, &buf); err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf(map[string]interface{}{
		"name": buf.name,
		"png":  base64.StdEncoding.EncodeToString(buf.data),
	})
}

// bufferSaver keeps an export in memory.
type bufferSaver struct {
	name string
	data []byte
}

func (b *bufferSaver) Save(name string, data []byte) error {
	b.name, b.data = name, data
	return nil
}

func (b *bufferSaver) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}
