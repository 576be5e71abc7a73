package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileSource reads datasets from the local file system. It accepts plain
// paths and file:// URIs.
type FileSource struct{}

func (FileSource) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	path := strings.TrimPrefix(uri, "file://")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %q: %w", path, err)
	}
	return f, nil
}
