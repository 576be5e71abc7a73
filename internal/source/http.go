package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnexpectedStatus is returned when an HTTP dataset responds with a
// non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// HTTPSource downloads datasets with GET requests.
type HTTPSource struct {
	client *http.Client
}

// NewHTTPSource creates an HTTPSource using client.
func NewHTTPSource(client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{client: client}
}

func (s *HTTPSource) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("fetchHTTP: building request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetchHTTP: GET %s: %w", uri, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetchHTTP: GET %s returned %d: %w", uri, resp.StatusCode, ErrUnexpectedStatus)
	}
	return resp.Body, nil
}
