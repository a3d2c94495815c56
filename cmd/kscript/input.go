// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kscriptgo/kscript/internal/app/preprocess"
	"github.com/kscriptgo/kscript/pkg/include"
)

const (
	// stdinArg selects standard input as the script source.
	stdinArg = "-"
	// stdinName names scripts read from standard input.
	stdinName = "stdin.kts"
	// inlineName names scripts given as code on the command line.
	inlineName = "inline.kts"
)

// inlineCode reports whether target is Kotlin code rather than a script
// location: not "-", not a URL and not an existing file. A missing single
// word ending in .kt or .kts stays a path so typos are reported as missing
// scripts.
func inlineCode(target string) bool {
	if target == stdinArg || include.IsURL(target) {
		return false
	}
	if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
		return false
	}
	if strings.ContainsAny(target, " \t\r\n") {
		return true
	}
	switch strings.ToLower(filepath.Ext(target)) {
	case ".kt", ".kts":
		return false
	}
	return true
}

// readStdin reads the whole script from the App's standard input.
func (a *App) readStdin() ([]byte, error) {
	content, err := io.ReadAll(a.stdin)
	if err != nil {
		return nil, fmt.Errorf("reading script from standard input: %w", err)
	}
	return content, nil
}

// source returns the name and content of a script given through standard
// input or inline. ok is false when target names a location to fetch.
func (a *App) source(target string) (name string, content []byte, ok bool, err error) {
	switch {
	case target == stdinArg:
		content, err = a.readStdin()
		return stdinName, content, true, err
	case inlineCode(target):
		return inlineName, []byte(target), true, nil
	default:
		return "", nil, false, nil
	}
}

// resolve expands the includes of target, which is a path, an absolute URL,
// "-" for standard input or Kotlin code. Relative includes of stdin and
// inline scripts resolve against the working directory.
func (a *App) resolve(ctx context.Context, s *session, target string) (*include.Merged, error) {
	name, content, ok, err := a.source(target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.resolver.Resolve(ctx, target)
	}
	return s.resolver.ResolveSource(ctx, name, content, nil)
}

// prepare runs the full preprocessing pipeline on target.
func (a *App) prepare(ctx context.Context, s *session, target string) (*preprocess.Result, error) {
	name, content, ok, err := a.source(target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.pipeline.Prepare(ctx, target)
	}
	return s.pipeline.PrepareSource(ctx, name, content, nil)
}
