// SPDX-License-Identifier: MPL-2.0

package preprocess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kscriptgo/kscript/internal/testutil"
	"github.com/kscriptgo/kscript/pkg/include"
	"github.com/kscriptgo/kscript/pkg/script"
)

type (
	fakeResolver struct {
		calls int
		deps  []script.Dependency
		repos []script.MavenRepo
		err   error
	}

	fakeCompiler struct {
		calls int
		req   CompileRequest
		err   error
	}
)

func (f *fakeResolver) Resolve(_ context.Context, deps []script.Dependency, repos []script.MavenRepo) (Classpath, error) {
	f.calls++
	f.deps, f.repos = deps, repos
	if f.err != nil {
		return nil, f.err
	}
	cp := make(Classpath, 0, len(deps))
	for _, d := range deps {
		cp = append(cp, "/jars/"+strings.ReplaceAll(d.String(), ":", "-")+".jar")
	}
	return cp, nil
}

func (f *fakeCompiler) Compile(_ context.Context, req CompileRequest) error {
	f.calls++
	f.req = req
	return f.err
}

// writeProject creates a root script with one include in a temp directory.
func writeProject(t *testing.T) (root, outDir string) {
	t.Helper()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "lib", "repo.kt"), strings.Join([]string{
		`@file:MavenRepository("private", "https://repo.example.com", user="bob", password="pw")`,
		`@file:DependsOn("com.example:lib:1.0")`,
		"fun lib() = 1",
	}, "\n"))
	root = filepath.Join(dir, "hello.kts")
	testutil.MustWriteFile(t, root, strings.Join([]string{
		"//DEPS log4j:log4j:1.2.14",
		"//KOTLIN_OPTS -J-Xmx2g 'arg with space'",
		"//INCLUDE lib/repo.kt",
		"//ENTRY Hello",
		"object Hello { @JvmStatic fun main(args: Array<String>) = println(lib()) }",
	}, "\n")+"\n")
	return root, t.TempDir()
}

func TestPrepare(t *testing.T) {
	t.Parallel()

	root, outDir := writeProject(t)
	p := New(include.NewResolver(include.WithOutputDir(outDir)), "")

	res, err := p.Prepare(context.Background(), root)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	if filepath.Dir(res.ScriptFile) != outDir {
		t.Errorf("ScriptFile = %s, want it inside %s", res.ScriptFile, outDir)
	}
	data, err := os.ReadFile(res.ScriptFile)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "//INCLUDE") {
		t.Errorf("merged script still contains include directives:\n%s", data)
	}

	if len(res.Includes) != 1 || !strings.HasSuffix(res.Includes[0].String(), "/lib/repo.kt") {
		t.Errorf("Includes = %v", res.Includes)
	}

	wantDeps := []script.Dependency{"log4j:log4j:1.2.14", "com.example:lib:1.0", script.DefaultSupportLibrary}
	if len(res.Dependencies) != len(wantDeps) {
		t.Fatalf("Dependencies = %v, want %v", res.Dependencies, wantDeps)
	}
	for i := range wantDeps {
		if res.Dependencies[i] != wantDeps[i] {
			t.Errorf("dependency %d = %q, want %q", i, res.Dependencies[i], wantDeps[i])
		}
	}

	wantRepo := script.MavenRepo{ID: "private", URL: "https://repo.example.com", User: "bob", Password: "pw"}
	if len(res.Repos) != 1 || res.Repos[0] != wantRepo {
		t.Errorf("Repos = %+v", res.Repos)
	}

	if len(res.Options) != 2 || res.Options[0] != "-J-Xmx2g" || res.Options[1] != "arg with space" {
		t.Errorf("Options = %q", res.Options)
	}
	if !res.HasEntryPoint || res.EntryPoint != "Hello" {
		t.Errorf("entry point = (%q, %v)", res.EntryPoint, res.HasEntryPoint)
	}
}

func TestPrepareCustomSupportLibrary(t *testing.T) {
	t.Parallel()

	root, outDir := writeProject(t)
	p := New(include.NewResolver(include.WithOutputDir(outDir)), "org.example:annotations:2.0")

	res, err := p.Prepare(context.Background(), root)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if last := res.Dependencies[len(res.Dependencies)-1]; last != "org.example:annotations:2.0" {
		t.Errorf("last dependency = %q", last)
	}
}

func TestPrepareSource(t *testing.T) {
	t.Parallel()

	p := New(include.NewResolver(include.WithOutputDir(t.TempDir())), "")
	res, err := p.PrepareSource(context.Background(), "stdin.kts", []byte("@file:EntryPoint(\"Main\")\nprintln(1)\n"), nil)
	if err != nil {
		t.Fatalf("PrepareSource() error: %v", err)
	}
	if res.EntryPoint != "Main" || len(res.Includes) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.HasPrefix(filepath.Base(res.ScriptFile), "stdin-") {
		t.Errorf("ScriptFile = %s", res.ScriptFile)
	}
}

func TestPrepareMalformedDirective(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "bad.kts")
	testutil.MustWriteFile(t, root, `@file:MavenRepository("r", "https://repo", user="only")`+"\n")

	p := New(include.NewResolver(include.WithOutputDir(t.TempDir())), "")
	_, err := p.Prepare(context.Background(), root)
	if !errors.Is(err, script.ErrCredentialMismatch) {
		t.Errorf("Prepare() error = %v, want ErrCredentialMismatch", err)
	}
}

func TestPrepareMalformedDirectiveInInclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	lib := filepath.Join(dir, "repos.kt")
	testutil.MustWriteFile(t, lib, "// repositories\n"+`@file:MavenRepository("r", "https://repo", password="x")`+"\n")
	root := filepath.Join(dir, "main.kts")
	testutil.MustWriteFile(t, root, "println(1)\nprintln(2)\n//INCLUDE repos.kt\n")

	p := New(include.NewResolver(include.WithOutputDir(t.TempDir())), "")
	_, err := p.Prepare(context.Background(), root)

	var mde *script.MalformedDirectiveError
	if !errors.As(err, &mde) {
		t.Fatalf("Prepare() error = %v, want *script.MalformedDirectiveError", err)
	}
	// Line 4 of the merged script is line 2 of repos.kt.
	if mde.Source != lib || mde.Line != 2 {
		t.Errorf("error located at %s line %d, want %s line 2", mde.Source, mde.Line, lib)
	}
	if !strings.Contains(err.Error(), "repos.kt line 2") {
		t.Errorf("Error() = %q, want it to name repos.kt line 2", err)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	root, outDir := writeProject(t)
	p := New(include.NewResolver(include.WithOutputDir(outDir)), "")
	deps := &fakeResolver{}
	compiler := &fakeCompiler{}

	res, err := p.Run(context.Background(), root, deps, compiler)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if deps.calls != 1 || compiler.calls != 1 {
		t.Fatalf("collaborator calls = (%d, %d), want (1, 1)", deps.calls, compiler.calls)
	}
	if len(deps.deps) != 3 || len(deps.repos) != 1 {
		t.Errorf("resolver received %d deps and %d repos", len(deps.deps), len(deps.repos))
	}
	if compiler.req.ScriptFile != res.ScriptFile || compiler.req.EntryPoint != "Hello" {
		t.Errorf("unexpected compile request %+v", compiler.req)
	}
	if len(compiler.req.Classpath) != 3 || len(compiler.req.Options) != 2 {
		t.Errorf("compile request classpath/options = %v / %v", compiler.req.Classpath, compiler.req.Options)
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	tests := []struct {
		name         string
		resolver     DependencyResolver
		compiler     Compiler
		wantErr      error
		wantCompiles int
	}{
		{"missing resolver", nil, &fakeCompiler{}, ErrMissingCollaborator, 0},
		{"missing compiler", &fakeResolver{}, nil, ErrMissingCollaborator, 0},
		{"resolver fails", &fakeResolver{err: boom}, &fakeCompiler{}, boom, 0},
		{"compiler fails", &fakeResolver{}, &fakeCompiler{err: boom}, boom, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root, outDir := writeProject(t)
			p := New(include.NewResolver(include.WithOutputDir(outDir)), "")
			_, err := p.Run(context.Background(), root, tt.resolver, tt.compiler)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if fc, ok := tt.compiler.(*fakeCompiler); ok && fc.calls != tt.wantCompiles {
				t.Errorf("compiler called %d times, want %d", fc.calls, tt.wantCompiles)
			}
		})
	}
}

func TestPrepareWriteFailure(t *testing.T) {
	t.Parallel()

	root, _ := writeProject(t)
	// A regular file where the output directory should be.
	blocked := filepath.Join(t.TempDir(), "blocked")
	testutil.MustWriteFile(t, blocked, "")

	p := New(include.NewResolver(include.WithOutputDir(blocked)), "")
	_, err := p.Prepare(context.Background(), root)
	if !errors.Is(err, ErrWriteMerged) {
		t.Errorf("error = %v, want ErrWriteMerged", err)
	}
}
