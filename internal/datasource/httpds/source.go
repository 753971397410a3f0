package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Source reads one remote extract.
type Source struct {
	client *Client
	url    string
}

// NewSource returns a Source for url using client.
func NewSource(client *Client, url string) *Source {
	return &Source{client: client, url: url}
}

// IsURL reports whether name should be fetched over HTTP.
func IsURL(name string) bool {
	n := strings.ToLower(name)
	return strings.HasPrefix(n, "http://") || strings.HasPrefix(n, "https://")
}

// Open implements datasource.Source. A 404 or 410 wraps os.ErrNotExist so
// callers treat a missing remote extract like a missing file.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.url, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("open %s: status %d: %w", s.url, resp.StatusCode, os.ErrNotExist)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("open %s: status %d", s.url, resp.StatusCode)
	}
	return resp.Body, nil
}
