// SPDX-License-Identifier: MPL-2.0

package preprocess

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/kscriptgo/kscript/internal/ctxlog"
	"github.com/kscriptgo/kscript/pkg/include"
	"github.com/kscriptgo/kscript/pkg/script"
)

var (
	// ErrMissingCollaborator is returned by Run when a collaborator is nil.
	ErrMissingCollaborator = errors.New("missing collaborator")

	// ErrWriteMerged is wrapped by errors from storing the merged script.
	ErrWriteMerged = errors.New("writing merged script")
)

type (
	// Pipeline resolves includes and extracts directives from the merged script.
	Pipeline struct {
		Resolver *include.Resolver
		// SupportLibrary overrides script.DefaultSupportLibrary when set.
		SupportLibrary script.Dependency
	}

	// Result is everything the collaborators need to build and run a script.
	Result struct {
		ScriptFile    string
		Includes      []include.Include
		Dependencies  []script.Dependency
		Repos         []script.MavenRepo
		Options       []script.RuntimeOption
		EntryPoint    string
		HasEntryPoint bool
	}

	// Classpath is the opaque output of a DependencyResolver.
	Classpath []string

	// DependencyResolver turns coordinates and repositories into a classpath.
	DependencyResolver interface {
		Resolve(ctx context.Context, deps []script.Dependency, repos []script.MavenRepo) (Classpath, error)
	}

	// CompileRequest is handed to the Compiler once per run.
	CompileRequest struct {
		ScriptFile string
		Classpath  Classpath
		Options    []script.RuntimeOption
		// EntryPoint is empty when the script declares none.
		EntryPoint string
	}

	// Compiler compiles or interprets a prepared script.
	Compiler interface {
		Compile(ctx context.Context, req CompileRequest) error
	}
)

// New creates a Pipeline over resolver.
func New(resolver *include.Resolver, supportLibrary script.Dependency) *Pipeline {
	return &Pipeline{Resolver: resolver, SupportLibrary: supportLibrary}
}

// Prepare resolves the includes of target, writes the merged script and
// extracts its directives.
func (p *Pipeline) Prepare(ctx context.Context, target string) (*Result, error) {
	merged, err := p.Resolver.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	return p.finish(ctx, merged)
}

// PrepareSource is Prepare for content that was already read, such as a
// script piped through standard input.
func (p *Pipeline) PrepareSource(ctx context.Context, name string, content []byte, base *url.URL) (*Result, error) {
	merged, err := p.Resolver.ResolveSource(ctx, name, content, base)
	if err != nil {
		return nil, err
	}
	return p.finish(ctx, merged)
}

func (p *Pipeline) finish(ctx context.Context, merged *include.Merged) (*Result, error) {
	scriptFile, err := p.Resolver.Write(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteMerged, err)
	}

	s, err := script.Load(scriptFile, script.WithSupportLibrary(p.SupportLibrary))
	if err != nil {
		return nil, err
	}

	res, err := Extract(s)
	if err != nil {
		return nil, locate(err, merged)
	}
	res.ScriptFile = scriptFile
	res.Includes = merged.Includes

	ctxlog.FromContext(ctx).Debug("prepared script",
		"file", scriptFile,
		"includes", len(res.Includes),
		"dependencies", len(res.Dependencies),
		"repositories", len(res.Repos),
		"options", len(res.Options))
	return res, nil
}

// locate rewrites the line of a malformed directive error from the merged
// script to the source the line was copied from.
func locate(err error, merged *include.Merged) error {
	var mde *script.MalformedDirectiveError
	if !errors.As(err, &mde) || mde.Line == 0 || mde.Source != "" {
		return err
	}
	if origin, ok := merged.Origin(mde.Line); ok {
		mde.Source, mde.Line = origin.Source, origin.Line
	}
	return err
}

// Extract runs every directive query over s. ScriptFile and Includes are left empty.
func Extract(s *script.Script) (*Result, error) {
	deps, err := s.CollectDependencies()
	if err != nil {
		return nil, err
	}
	repos, err := s.CollectRepos()
	if err != nil {
		return nil, err
	}
	opts, err := s.CollectRuntimeOptions()
	if err != nil {
		return nil, err
	}
	entry, hasEntry := s.FindEntryPoint()

	return &Result{
		Dependencies:  deps,
		Repos:         repos,
		Options:       opts,
		EntryPoint:    entry,
		HasEntryPoint: hasEntry,
	}, nil
}

// Run prepares target and hands the result to the collaborators: the
// dependency resolver first, then the compiler, each exactly once.
func (p *Pipeline) Run(ctx context.Context, target string, deps DependencyResolver, compiler Compiler) (*Result, error) {
	if deps == nil || compiler == nil {
		return nil, ErrMissingCollaborator
	}

	res, err := p.Prepare(ctx, target)
	if err != nil {
		return nil, err
	}

	classpath, err := deps.Resolve(ctx, res.Dependencies, res.Repos)
	if err != nil {
		return nil, fmt.Errorf("resolving dependencies: %w", err)
	}

	req := CompileRequest{
		ScriptFile: res.ScriptFile,
		Classpath:  classpath,
		Options:    res.Options,
		EntryPoint: res.EntryPoint,
	}
	if err := compiler.Compile(ctx, req); err != nil {
		return nil, fmt.Errorf("compiling %s: %w", res.ScriptFile, err)
	}
	return res, nil
}
