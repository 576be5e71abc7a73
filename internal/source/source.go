// Package source opens datasets by URI: local files, HTTP(S) URLs and
// Google Cloud Storage objects.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Fetcher opens the dataset at uri.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Options configures the sources built by NewRouter.
type Options struct {
	// HTTPTimeout bounds a whole HTTP download. Zero means 60 seconds.
	HTTPTimeout time.Duration
	// HTTPClient overrides the client used for http and https URIs.
	HTTPClient *http.Client
	// GCSAnonymous reads public buckets without credentials.
	GCSAnonymous bool
}

// Router dispatches Fetch calls by URI scheme. URIs without a known scheme
// are read from the local file system.
type Router struct {
	schemes  map[string]Fetcher
	fallback Fetcher
	gcs      *GCSSource
}

// NewRouter creates a router for file, http, https and gs URIs.
func NewRouter(opts Options) *Router {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.HTTPTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	httpSrc := NewHTTPSource(client)
	gcs := NewGCSSource(opts.GCSAnonymous)
	file := FileSource{}

	r := &Router{
		schemes:  make(map[string]Fetcher),
		fallback: file,
		gcs:      gcs,
	}
	r.Register("file", file)
	r.Register("http", httpSrc)
	r.Register("https", httpSrc)
	r.Register("gs", gcs)
	return r
}

// Register routes scheme to f, replacing any previous route.
func (r *Router) Register(scheme string, f Fetcher) {
	r.schemes[strings.ToLower(scheme)] = f
}

// Fetch opens uri with the fetcher registered for its scheme.
func (r *Router) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	s := Scheme(uri)
	if s == "" {
		return r.fallback.Fetch(ctx, uri)
	}
	f, ok := r.schemes[s]
	if !ok {
		return nil, fmt.Errorf("Fetch: unsupported scheme %q in %s", s, uri)
	}
	return f.Fetch(ctx, uri)
}

// Close releases the storage client, if one was created.
func (r *Router) Close() error {
	if r.gcs != nil {
		return r.gcs.Close()
	}
	return nil
}

// Scheme returns the lower-cased scheme of uri, or "" for a plain path.
func Scheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(uri[:i])
}
