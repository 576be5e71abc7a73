package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type stubFetcher struct {
	body  string
	calls []string
}

func (s *stubFetcher) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	s.calls = append(s.calls, uri)
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(b)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, uri := range []string{path, "file://" + path} {
		rc, err := FileSource{}.Fetch(context.Background(), uri)
		if err != nil {
			t.Fatalf("Fetch(%q) error = %v", uri, err)
		}
		if got := readAll(t, rc); got != "a,b\n1,2\n" {
			t.Errorf("Fetch(%q) = %q", uri, got)
		}
	}

	_, err := FileSource{}.Fetch(context.Background(), filepath.Join(dir, "missing.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data.csv":
			w.Write([]byte("transaction_id\n1\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.Client())

	rc, err := src.Fetch(context.Background(), srv.URL+"/data.csv")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := readAll(t, rc); got != "transaction_id\n1\n" {
		t.Errorf("Fetch() = %q", got)
	}

	_, err = src.Fetch(context.Background(), srv.URL+"/missing.csv")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestHTTPSource_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPSource(srv.Client()).Fetch(ctx, srv.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRouter_Dispatch(t *testing.T) {
	r := NewRouter(Options{})
	gs := &stubFetcher{body: "gs"}
	web := &stubFetcher{body: "web"}
	r.Register("gs", gs)
	r.Register("HTTPS", web)

	rc, err := r.Fetch(context.Background(), "gs://bucket/data.csv")
	if err != nil {
		t.Fatalf("Fetch(gs) error = %v", err)
	}
	if got := readAll(t, rc); got != "gs" {
		t.Errorf("gs routed to wrong fetcher: %q", got)
	}

	rc, err = r.Fetch(context.Background(), "https://example.com/x.csv")
	if err != nil {
		t.Fatalf("Fetch(https) error = %v", err)
	}
	if got := readAll(t, rc); got != "web" {
		t.Errorf("https routed to wrong fetcher: %q", got)
	}

	if _, err := r.Fetch(context.Background(), "ftp://host/x.csv"); err == nil {
		t.Error("expected unsupported scheme error")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		object  string
		wantErr bool
	}{
		{uri: "gs://bucket/exports/q4.csv", bucket: "bucket", object: "exports/q4.csv"},
		{uri: "gs://bucket/q4.csv", bucket: "bucket", object: "q4.csv"},
		{uri: "gs://bucket", wantErr: true},
		{uri: "gs://bucket/", wantErr: true},
		{uri: "s3://bucket/q4.csv", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseGCSURI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGCSURI() error = %v", err)
			}
			if bucket != tt.bucket || object != tt.object {
				t.Errorf("ParseGCSURI() = %q, %q", bucket, object)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("gs://bucket/exports/2024/q4.csv"); got != "q4.csv" {
		t.Errorf("FileName() = %q", got)
	}
	if got := FileName("gs://bucket"); got != "bucket" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestUploadFile_Validation(t *testing.T) {
	if _, err := UploadFile(context.Background(), "", "", "data.csv"); err == nil {
		t.Error("expected missing bucket error")
	}
	if _, err := UploadFile(context.Background(), "bucket", "", filepath.Join(t.TempDir(), "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
