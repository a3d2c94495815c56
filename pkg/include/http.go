// SPDX-License-Identifier: MPL-2.0

package include

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultUserAgent is sent with every remote include request unless overridden.
const DefaultUserAgent = "kscript/dev"

type (
	// HTTPFetcher downloads remote includes with plain GET requests.
	HTTPFetcher struct {
		httpClient *http.Client
		userAgent  string
		maxBytes   int64
	}

	// HTTPOption configures an HTTPFetcher during construction.
	HTTPOption func(*HTTPFetcher)
)

// WithHTTPClient sets a custom HTTP client. Request timeouts are the client's.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.httpClient = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBytes caps the size of a downloaded include.
func WithMaxBytes(n int64) HTTPOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
// Defaults: httpClient=http.DefaultClient, userAgent=DefaultUserAgent, maxBytes=DefaultMaxBytes.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		httpClient: http.DefaultClient,
		userAgent:  DefaultUserAgent,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads u. Any status other than 200 is an *HTTPStatusError.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }() // Response body; close error non-critical

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{URL: u.String(), StatusCode: resp.StatusCode}
	}

	return readLimited(resp.Body, f.maxBytes)
}
