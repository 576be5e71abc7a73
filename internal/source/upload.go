package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// UploadTimeout bounds a single dataset upload.
const UploadTimeout = 2 * time.Minute

// UploadFile uploads a local dataset to bucket under object. An empty object
// name uses the file's base name. Credentials come from Application Default
// Credentials unless opts say otherwise. It returns the gs:// URI written.
func UploadFile(ctx context.Context, bucket, object, filePath string, opts ...option.ClientOption) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("UploadFile: bucket is required")
	}
	if object == "" {
		object = filepath.Base(filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/csv"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", bucket, object), nil
}
