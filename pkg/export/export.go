// Package export turns the current slip frame into a downloadable PNG.
//
// The pipeline mirrors a browser "download canvas" action: the source
// drops its selection highlight and redraws, the frame is encoded as PNG,
// and the bytes are handed to a Saver under a name derived from the
// template id.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// Source produces a clean frame (no selection highlight) and the id of
// the template it was rendered from.
type Source interface {
	ExportFrame() (image.Image, string, error)
}

// Saver stores an exported file.
type Saver interface {
	Save(name string, data []byte) error
}

// Filename is the deterministic download name for a template.
func Filename(templateID string) string {
	return fmt.Sprintf("donation_slip_%s.png", templateID)
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

// Render asks src for a clean frame and returns its file name and PNG bytes.
func Render(src Source) (string, []byte, error) {
	img, id, err := src.ExportFrame()
	if err != nil {
		return "", nil, fmt.Errorf("export frame: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		return "", nil, err
	}
	return Filename(id), buf.Bytes(), nil
}

// Export renders src and saves the result, returning the file name used.
func Export(src Source, saver Saver) (string, error) {
	name, data, err := Render(src)
	if err != nil {
		return "", err
	}
	if err := saver.Save(name, data); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return name, nil
}

// FileSaver writes exports into a directory, creating it if needed.
type FileSaver struct {
	Dir string
}

func (s FileSaver) Save(name string, data []byte) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

// Path returns where Save puts name.
func (s FileSaver) Path(name string) string {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, filepath.Base(name))
}
