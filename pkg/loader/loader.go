// Package loader fetches and decodes template background images.
//
// A load is tagged with the generation token of the request that started
// it. The loader never decides staleness; the caller compares Result.Gen
// against its current generation when the result arrives.
package loader

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Resolver turns an opaque image reference into bytes.
type Resolver interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// LoadError reports a fetch or decode failure for one reference.
type LoadError struct {
	Ref string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load image %q: %v", e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Result is delivered once per Load call.
type Result struct {
	Gen   uint64
	Ref   string
	Image image.Image
	Err   error
}

// Loader decodes images obtained from a Resolver.
type Loader struct {
	resolver Resolver
}

// New creates a loader reading through r.
func New(r Resolver) *Loader {
	return &Loader{resolver: r}
}

// Load fetches ref in its own goroutine. The returned channel receives
// exactly one Result and is then closed.
func (l *Loader) Load(ctx context.Context, ref string, gen uint64) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		img, err := l.Fetch(ctx, ref)
		ch <- Result{Gen: gen, Ref: ref, Image: img, Err: err}
	}()
	return ch
}

// Fetch opens and decodes ref synchronously.
func (l *Loader) Fetch(ctx context.Context, ref string) (image.Image, error) {
	if l.resolver == nil {
		return nil, &LoadError{Ref: ref, Err: errors.New("no resolver")}
	}

	rc, err := l.resolver.Open(ctx, ref)
	if err != nil {
		return nil, &LoadError{Ref: ref, Err: err}
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, &LoadError{Ref: ref, Err: fmt.Errorf("decode: %w", err)}
	}
	return img, nil
}

// ── Resolvers ──

// FSResolver opens references as paths inside a filesystem.
type FSResolver struct {
	FS fs.FS
}

func (r FSResolver) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.FS.Open(strings.TrimPrefix(ref, "/"))
}

// HTTPResolver fetches absolute http(s) references.
type HTTPResolver struct {
	Client *http.Client
}

func (r HTTPResolver) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", ref, resp.Status)
	}
	return resp.Body, nil
}

// SchemeResolver sends http(s) references to Remote and everything else
// to Local.
type SchemeResolver struct {
	Local  Resolver
	Remote Resolver
}

func (r SchemeResolver) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if isRemote(ref) {
		if r.Remote == nil {
			return nil, fmt.Errorf("remote reference %q: no remote resolver", ref)
		}
		return r.Remote.Open(ctx, ref)
	}
	if r.Local == nil {
		return nil, fmt.Errorf("local reference %q: no local resolver", ref)
	}
	return r.Local.Open(ctx, ref)
}

// NewDefaultResolver resolves relative references inside fsys and absolute
// URLs over HTTP.
func NewDefaultResolver(fsys fs.FS) Resolver {
	return SchemeResolver{
		Local:  FSResolver{FS: fsys},
		Remote: HTTPResolver{},
	}
}

func isRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
