// SPDX-License-Identifier: MPL-2.0

package include

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvableInclude is the sentinel error wrapped by UnresolvableIncludeError.
	ErrUnresolvableInclude = errors.New("unresolvable include")

	// ErrUnsupportedScheme is returned by SchemeFetcher for URIs it has no fetcher for.
	ErrUnsupportedScheme = errors.New("unsupported URI scheme")

	// ErrTooLarge is returned when fetched content exceeds the configured size limit.
	ErrTooLarge = errors.New("content exceeds size limit")
)

type (
	// UnresolvableIncludeError is returned when an include target cannot be
	// canonicalized or fetched. It names the failing reference and the source
	// that referenced it.
	UnresolvableIncludeError struct {
		// Target is the reference exactly as written in the directive.
		Target string
		// URI is the canonical identity, empty when canonicalization failed.
		URI string
		// Including is the canonical identity of the source holding the directive.
		Including string
		// Line is the 1-based line of the directive inside Including.
		Line int
		Err  error
	}

	// HTTPStatusError is returned by HTTPFetcher for non-200 responses.
	HTTPStatusError struct {
		URL        string
		StatusCode int
	}
)

// Error implements the error interface.
func (e *UnresolvableIncludeError) Error() string {
	return fmt.Sprintf("cannot resolve include %q (%s:%d): %v", e.Target, e.Including, e.Line, e.Err)
}

// Unwrap returns ErrUnresolvableInclude and the underlying cause.
func (e *UnresolvableIncludeError) Unwrap() []error {
	return []error{ErrUnresolvableInclude, e.Err}
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}
