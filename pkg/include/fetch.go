// SPDX-License-Identifier: MPL-2.0

package include

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// DefaultMaxBytes is the default upper bound on the size of one included source (5 MiB).
const DefaultMaxBytes int64 = 5 << 20

type (
	// Fetcher returns the content referenced by a canonical include URI.
	Fetcher interface {
		Fetch(ctx context.Context, u *url.URL) ([]byte, error)
	}

	// FetcherFunc adapts a function to the Fetcher interface.
	FetcherFunc func(ctx context.Context, u *url.URL) ([]byte, error)

	// FileFetcher reads file:// URIs from the local file system.
	FileFetcher struct {
		// MaxBytes caps the file size; zero means DefaultMaxBytes.
		MaxBytes int64
	}

	// SchemeFetcher dispatches to a Fetcher by lower-cased URI scheme.
	SchemeFetcher map[string]Fetcher
)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	return f(ctx, u)
}

// Fetch reads the file named by u.
func (f FileFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !strings.EqualFold(u.Scheme, "file") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	file, err := os.Open(LocalPath(u))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }() // Read-only file; close error non-critical

	return readLimited(file, limit)
}

// Fetch forwards to the fetcher registered for u's scheme.
func (s SchemeFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	f, ok := s[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return f.Fetch(ctx, u)
}

// DefaultFetcher reads local files and fetches http and https URLs with a
// default HTTPFetcher.
func DefaultFetcher() SchemeFetcher {
	remote := NewHTTPFetcher()
	return SchemeFetcher{
		"file":  FileFetcher{},
		"http":  remote,
		"https": remote,
	}
}

// readLimited reads r fully, failing with ErrTooLarge past limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}
