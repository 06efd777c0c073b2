// Package source fetches palette inputs published at HTTP URLs.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// maxBody caps the size of a fetched palette.
const maxBody = 1 << 20

// ErrNotURL is returned by [Source.Fetch] for references that are not
// http:// or https:// URLs.
var ErrNotURL = errors.New("not an http(s) URL")

// Fetcher returns the raw bytes behind an input reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Options configures the HTTP side of [New].
type Options struct {
	// RetryMax is the number of retries after the first failed request.
	RetryMax int
	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration
}

// Source fetches http(s) references with retries.
type Source struct {
	client *retryablehttp.Client
}

// New returns a Source using a retrying HTTP client.
func New(opts Options) *Source {
	c := retryablehttp.NewClient()
	c.RetryMax = opts.RetryMax
	if opts.Timeout > 0 {
		c.HTTPClient.Timeout = opts.Timeout
	}
	c.Logger = nil // suppress retryablehttp's default logging
	return &Source{client: c}
}

// IsURL reports whether ref is fetched over HTTP rather than read from disk.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Fetch returns the contents of ref.
func (s *Source) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if !IsURL(ref) {
		return nil, fmt.Errorf("%w: %q", ErrNotURL, ref)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", ref, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if len(data) > maxBody {
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes", ref, maxBody)
	}
	return data, nil
}
