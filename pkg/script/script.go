// SPDX-License-Identifier: MPL-2.0

package script

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

type (
	// Script is an immutable, ordered sequence of source lines.
	// Line order is significant: directives, includes and entry points are
	// resolved in file order.
	Script struct {
		lines          []string
		supportLibrary Dependency
	}

	// Option configures a Script at construction time.
	Option func(*Script)
)

// WithSupportLibrary overrides the coordinate appended by CollectDependencies
// when annotation-style dependencies are present. An empty coordinate keeps
// DefaultSupportLibrary.
func WithSupportLibrary(coord Dependency) Option {
	return func(s *Script) {
		if coord != "" {
			s.supportLibrary = coord
		}
	}
}

// New creates a Script from lines. The slice is copied.
func New(lines []string, opts ...Option) *Script {
	s := &Script{
		lines:          slices.Clone(lines),
		supportLibrary: DefaultSupportLibrary,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parse creates a Script from source text.
func Parse(text string, opts ...Option) *Script {
	return New(SplitLines(text), opts...)
}

// Load reads and parses the script at path.
func Load(path string, opts ...Option) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return Parse(string(data), opts...), nil
}

// Lines returns a copy of the script's lines.
func (s *Script) Lines() []string {
	return slices.Clone(s.lines)
}

// Len returns the number of lines.
func (s *Script) Len() int {
	return len(s.lines)
}

// Text renders the script back to text; see JoinLines.
func (s *Script) Text() string {
	return JoinLines(s.lines)
}

// SplitLines splits text on "\n". A single trailing newline does not produce
// an empty final line. Carriage returns are kept verbatim.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// JoinLines is the inverse of SplitLines: lines joined by "\n" with a single
// terminating newline. No lines render as the empty string.
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
