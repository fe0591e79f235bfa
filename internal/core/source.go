package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Source yields the raw CSV export of the delivery sheet.
type Source interface {
	// ID identifies the source for caching and logs.
	ID() string
	// Open starts reading the export. Failures wrap ErrSourceUnavailable.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// NewSource returns an HTTPSource for http(s) locations and a FileSource
// for everything else. A nil client uses http.DefaultClient.
func NewSource(location string, client *http.Client) Source {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return &HTTPSource{URL: location, Client: client}
	}
	return &FileSource{Path: location}
}

// HTTPSource fetches a published spreadsheet export over HTTP.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// ID implements Source.
func (s *HTTPSource) ID() string {
	return s.URL
}

// Open implements Source. Any status outside 2xx is treated as unavailable.
func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrSourceUnavailable, s.URL, resp.StatusCode)
	}
	return resp.Body, nil
}

// FileSource reads a CSV export from the local filesystem.
type FileSource struct {
	Path string
}

// ID implements Source.
func (s *FileSource) ID() string {
	return "file:" + s.Path
}

// Open implements Source.
func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return f, nil
}
