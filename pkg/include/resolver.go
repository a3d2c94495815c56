// SPDX-License-Identifier: MPL-2.0

package include

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/kscriptgo/kscript/internal/ctxlog"
	"github.com/kscriptgo/kscript/pkg/script"
)

type (
	// Resolver expands include directives. It holds no state between calls
	// and is safe for concurrent use when its Fetcher is.
	Resolver struct {
		fetcher            Fetcher
		outputDir          string
		consolidateImports bool
	}

	// ResolverOption configures a Resolver during construction.
	ResolverOption func(*Resolver)

	// Merged is the in-memory result of include resolution.
	Merged struct {
		// Name is the root source's base name, used to name the output file.
		Name string
		// Lines is the merged script.
		Lines []string
		// Includes lists every spliced source in first-encounter order. The
		// root itself is not listed.
		Includes []Include
		// Origins holds, for every entry of Lines, the source and line it
		// was copied from.
		Origins []Origin
	}

	// Origin locates a merged line in the source it came from.
	Origin struct {
		// Source is a local path, a URI, or the name given to ResolveSource.
		Source string
		// Line is 1-based.
		Line int
	}

	// ResolvedScript is the merged script written to disk plus the includes
	// that were consumed to produce it.
	ResolvedScript struct {
		ScriptFile string
		Includes   []Include
	}

	// resolveState is the per-call bookkeeping threaded through the recursion.
	resolveState struct {
		seen     map[string]struct{}
		includes []Include
	}
)

// WithFetcher sets the Fetcher used to read the root and every include.
func WithFetcher(f Fetcher) ResolverOption {
	return func(r *Resolver) {
		if f != nil {
			r.fetcher = f
		}
	}
}

// WithOutputDir sets the directory ResolveIncludes writes merged scripts to.
func WithOutputDir(dir string) ResolverOption {
	return func(r *Resolver) {
		if dir != "" {
			r.outputDir = dir
		}
	}
}

// WithConsolidateImports moves file annotations and import statements of the
// merged script to its top, after any shebang line, dropping repeats. Off by
// default, so every line is copied verbatim and in place.
func WithConsolidateImports(enabled bool) ResolverOption {
	return func(r *Resolver) {
		r.consolidateImports = enabled
	}
}

// NewResolver creates a Resolver.
// Defaults: fetcher=DefaultFetcher(), outputDir=DefaultOutputDir().
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.fetcher == nil {
		r.fetcher = DefaultFetcher()
	}
	if r.outputDir == "" {
		r.outputDir = DefaultOutputDir()
	}
	return r
}

// OutputDir returns the directory merged scripts are written to.
func (r *Resolver) OutputDir() string {
	return r.outputDir
}

// Text renders the merged script, one "\n" after every line.
func (m *Merged) Text() string {
	return script.JoinLines(m.Lines)
}

// Origin returns where the 1-based merged line came from. ok is false when
// line is out of range or m carries no origins.
func (m *Merged) Origin(line int) (Origin, bool) {
	if line < 1 || line > len(m.Origins) {
		return Origin{}, false
	}
	return m.Origins[line-1], true
}

// Script returns the merged lines as a script.Script.
func (m *Merged) Script(opts ...script.Option) *script.Script {
	return script.New(m.Lines, opts...)
}

// Resolve fetches the root named by target (a local path or an absolute URL)
// and expands its includes in memory.
func (r *Resolver) Resolve(ctx context.Context, target string) (*Merged, error) {
	root, err := resolveTarget(nil, target)
	if err != nil {
		return nil, fmt.Errorf("resolving script location %q: %w", target, err)
	}
	content, err := r.fetcher.Fetch(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", target, err)
	}
	return r.expandRoot(ctx, baseName(root), displaySource(root), content, root)
}

// ResolveSource expands the includes of already loaded content. Relative
// includes resolve against base, or against the working directory when base
// is nil.
func (r *Resolver) ResolveSource(ctx context.Context, name string, content []byte, base *url.URL) (*Merged, error) {
	if base == nil {
		cwd, err := FileURI(".")
		if err != nil {
			return nil, err
		}
		// A trailing slash makes relative references land inside the directory.
		cwd.Path = strings.TrimSuffix(cwd.Path, "/") + "/"
		base = cwd
	}
	return r.expandRoot(ctx, name, name, content, base)
}

// ResolveIncludes resolves the root file's includes and writes the merged
// script to the output directory. Nothing is written when resolution fails.
func (r *Resolver) ResolveIncludes(ctx context.Context, rootFile string) (*ResolvedScript, error) {
	merged, err := r.Resolve(ctx, rootFile)
	if err != nil {
		return nil, err
	}
	scriptFile, err := r.Write(merged)
	if err != nil {
		return nil, err
	}
	return &ResolvedScript{ScriptFile: scriptFile, Includes: merged.Includes}, nil
}

// Write stores m in the output directory and returns the file path.
func (r *Resolver) Write(m *Merged) (string, error) {
	return WriteMerged(r.outputDir, m)
}

func (r *Resolver) expandRoot(ctx context.Context, name, source string, content []byte, root *url.URL) (*Merged, error) {
	state := &resolveState{seen: map[string]struct{}{root.String(): {}}}

	lines, origins, err := r.expand(ctx, state, root, source, script.SplitLines(string(content)))
	if err != nil {
		return nil, err
	}
	if r.consolidateImports {
		order := consolidationOrder(lines)
		lines, origins = permute(lines, order), permute(origins, order)
	}

	ctxlog.FromContext(ctx).Debug("resolved includes", "root", root.String(), "includes", len(state.includes))
	return &Merged{Name: name, Lines: lines, Includes: state.includes, Origins: origins}, nil
}

// expand returns lines with every include directive replaced by the fully
// expanded content it references. Directives whose target was already seen
// are dropped.
func (r *Resolver) expand(ctx context.Context, state *resolveState, base *url.URL, source string, lines []string) ([]string, []Origin, error) {
	out := make([]string, 0, len(lines))
	origins := make([]Origin, 0, len(lines))

	for i, line := range lines {
		target, ok, err := script.IncludeTarget(line)
		if !ok {
			out = append(out, line)
			origins = append(origins, Origin{Source: source, Line: i + 1})
			continue
		}
		if err != nil {
			return nil, nil, &UnresolvableIncludeError{Target: strings.TrimSpace(line), Including: base.String(), Line: i + 1, Err: err}
		}

		u, err := resolveTarget(base, target)
		if err != nil {
			return nil, nil, &UnresolvableIncludeError{Target: target, Including: base.String(), Line: i + 1, Err: err}
		}

		key := u.String()
		if _, dup := state.seen[key]; dup {
			ctxlog.FromContext(ctx).Debug("skipping repeated include", "uri", key, "including", base.String())
			continue
		}
		state.seen[key] = struct{}{}
		state.includes = append(state.includes, newInclude(u))

		content, err := r.fetcher.Fetch(ctx, u)
		if err != nil {
			return nil, nil, &UnresolvableIncludeError{Target: target, URI: key, Including: base.String(), Line: i + 1, Err: err}
		}
		ctxlog.FromContext(ctx).Debug("including", "uri", key, "bytes", len(content))

		nested, nestedOrigins, err := r.expand(ctx, state, u, displaySource(u), script.SplitLines(string(content)))
		if err != nil {
			return nil, nil, err
		}
		out = append(out, nested...)
		origins = append(origins, nestedOrigins...)
	}

	return out, origins, nil
}

// displaySource names u for messages: a local path for file URIs, the URI
// otherwise.
func displaySource(u *url.URL) string {
	if strings.EqualFold(u.Scheme, ProtocolFile) {
		return LocalPath(u)
	}
	return u.String()
}

// baseName returns the last path element of u, or "script" when u has none.
func baseName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "script"
	}
	return name
}
