// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/fang"
	"github.com/pelletier/go-toml/v2"

	"github.com/kscriptgo/kscript/internal/app/preprocess"
	"github.com/kscriptgo/kscript/internal/config"
	"github.com/kscriptgo/kscript/internal/issue"
	"github.com/kscriptgo/kscript/internal/testutil"
	"github.com/kscriptgo/kscript/pkg/include"
	"github.com/kscriptgo/kscript/pkg/script"
)

type (
	staticConfig struct {
		cfg *config.Config
		err error
	}

	cliResult struct {
		stdout string
		stderr string
		err    error
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg := *s.cfg
	return &cfg, nil
}

// testConfig returns the default configuration writing merged scripts to a
// per-test directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CacheDir = config.CacheDirPath(t.TempDir())
	return cfg
}

func runCLI(t *testing.T, cfg *config.Config, stdin string, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config: staticConfig{cfg: cfg},
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	root := NewRootCommand(app)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testutil.MustWriteFile(t, path, content)
	return path
}

func TestDepsCommand(t *testing.T) {
	t.Parallel()

	path := writeScript(t, "hello.kts", strings.Join([]string{
		`@file:DependsOn("org.example:annotated:1.0")`,
		"//DEPS log4j:log4j:1.2.14",
		`@file:MavenRepository("private", "https://repo.example.com", user="bob", password="secret")`,
		"println(1)",
	}, "\n")+"\n")

	res := runCLI(t, testConfig(t), "", "deps", path)
	if res.err != nil {
		t.Fatalf("deps failed: %v\nstderr: %s", res.err, res.stderr)
	}

	want := "log4j:log4j:1.2.14\norg.example:annotated:1.0\n" +
		script.DefaultSupportLibrary.String() + "\n" +
		"repository private https://repo.example.com (user bob)\n"
	if res.stdout != want {
		t.Errorf("stdout = %q, want %q", res.stdout, want)
	}
	if strings.Contains(res.stdout, "secret") {
		t.Error("password leaked to stdout")
	}
}

func TestDepsCommandCustomSupportLibrary(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Annotations.SupportLibrary = "org.example:support:2.0"
	path := writeScript(t, "hello.kts", `@file:DependsOn("a:b:1")`+"\n")

	res := runCLI(t, cfg, "", "deps", path)
	if res.err != nil {
		t.Fatalf("deps failed: %v", res.err)
	}
	if res.stdout != "a:b:1\norg.example:support:2.0\n" {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestInfoCommandJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "lib.kt"), "//DEPS com.example:lib:1.0\nfun lib() = 1\n")
	root := filepath.Join(dir, "main.kts")
	testutil.MustWriteFile(t, root, strings.Join([]string{
		"//KOTLIN_OPTS -foo 3 'some file.txt'",
		`@file:KotlinOpts("--bar")`,
		`@file:EntryPoint("Main")`,
		`@file:MavenRepository("private", "https://repo.example.com", user="bob", password="secret")`,
		"//INCLUDE lib.kt",
		"println(lib())",
	}, "\n")+"\n")

	cfg := testConfig(t)
	res := runCLI(t, cfg, "", "info", "--format", "json", root)
	if res.err != nil {
		t.Fatalf("info failed: %v\nstderr: %s", res.err, res.stderr)
	}

	var info scriptInfo
	if err := json.Unmarshal([]byte(res.stdout), &info); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, res.stdout)
	}

	if filepath.Dir(info.ScriptFile) != cfg.CacheDir.String() {
		t.Errorf("script_file = %q, want it inside %q", info.ScriptFile, cfg.CacheDir)
	}
	if info.EntryPoint != "Main" {
		t.Errorf("entry_point = %q", info.EntryPoint)
	}
	if strings.Join(info.Options, "|") != "-foo|3|some file.txt|--bar" {
		t.Errorf("kotlin_opts = %q", info.Options)
	}
	// No annotation dependencies, so no support library.
	if len(info.Dependencies) != 1 || info.Dependencies[0] != "com.example:lib:1.0" {
		t.Errorf("dependencies = %q", info.Dependencies)
	}
	if len(info.Includes) != 1 || info.Includes[0].Protocol != include.ProtocolFile {
		t.Errorf("includes = %+v", info.Includes)
	}
	if len(info.Repositories) != 1 || info.Repositories[0].Password != maskedPassword || info.Repositories[0].User != "bob" {
		t.Errorf("repositories = %+v", info.Repositories)
	}
}

func TestInfoCommandTOML(t *testing.T) {
	t.Parallel()

	path := writeScript(t, "hello.kts", "//DEPS a:b:1\n//ENTRY Hello\n")

	res := runCLI(t, testConfig(t), "", "info", "--format", "toml", path)
	if res.err != nil {
		t.Fatalf("info failed: %v", res.err)
	}

	var info scriptInfo
	if err := toml.Unmarshal([]byte(res.stdout), &info); err != nil {
		t.Fatalf("invalid TOML output: %v\n%s", err, res.stdout)
	}
	if info.EntryPoint != "Hello" || len(info.Dependencies) != 1 || info.Dependencies[0] != "a:b:1" {
		t.Errorf("info = %+v", info)
	}
	if len(info.Repositories) != 0 || len(info.Includes) != 0 {
		t.Errorf("expected no repositories or includes: %+v", info)
	}
}

func TestInfoCommandText(t *testing.T) {
	t.Parallel()

	path := writeScript(t, "hello.kts", "//DEPS a:b:1\n//KOTLIN_OPTS -J-Xmx1g 'some file.txt'\nprintln(1)\n")

	res := runCLI(t, testConfig(t), "", "info", path)
	if res.err != nil {
		t.Fatalf("info failed: %v", res.err)
	}
	for _, want := range []string{"Script file", "Entry point", "(none)", "a:b:1", "Repositories", "-J-Xmx1g 'some file.txt'"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("text output lacks %q:\n%s", want, res.stdout)
		}
	}
}

func TestInfoCommandUnknownFormat(t *testing.T) {
	t.Parallel()

	res := runCLI(t, testConfig(t), "", "info", "--format", "yaml", "does-not-matter.kts")
	if !errors.Is(res.err, ErrUnknownFormat) {
		t.Errorf("error = %v, want ErrUnknownFormat", res.err)
	}
}

func TestResolveCommandStdin(t *testing.T) {
	t.Parallel()

	lib := writeScript(t, "lib.kt", "fun lib() = 1\n")
	cfg := testConfig(t)

	res := runCLI(t, cfg, "//INCLUDE "+lib+"\nprintln(lib())\n", "resolve", "-")
	if res.err != nil {
		t.Fatalf("resolve failed: %v\nstderr: %s", res.err, res.stderr)
	}

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("stdout = %q, want path plus one include", res.stdout)
	}
	if !strings.HasPrefix(filepath.Base(lines[0]), "stdin-") {
		t.Errorf("merged script name = %q", lines[0])
	}
	if got := testutil.MustReadFile(t, lines[0]); got != "fun lib() = 1\nprintln(lib())\n" {
		t.Errorf("merged script = %q", got)
	}
	if !strings.HasPrefix(lines[1], "file file://") || !strings.HasSuffix(lines[1], "/lib.kt") {
		t.Errorf("include line = %q", lines[1])
	}
}

func TestInlineCode(t *testing.T) {
	t.Parallel()

	existing := writeScript(t, "exists.kts", "println(1)\n")

	tests := []struct {
		target string
		want   bool
	}{
		{`println("hi")`, true},
		{"//DEPS a:b:1", true},
		{"//INCLUDE lib.kt", true},
		{`println("https://example.com")`, true},
		{"-", false},
		{"https://example.com/a.kts", false},
		{existing, false},
		{"missing.kts", false},
		{filepath.Join("dir", "Missing.KT"), false},
	}

	for _, tt := range tests {
		if got := inlineCode(tt.target); got != tt.want {
			t.Errorf("inlineCode(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestPrepareInlineCode(t *testing.T) {
	t.Parallel()

	res := runCLI(t, testConfig(t), "", "deps", "//DEPS com.example:inline:1.0")
	if res.err != nil {
		t.Fatalf("deps failed: %v\nstderr: %s", res.err, res.stderr)
	}
	if res.stdout != "com.example:inline:1.0\n" {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestResolveCommandOutputFlag(t *testing.T) {
	t.Parallel()

	path := writeScript(t, "hello.kts", "println(1)\n")
	out := filepath.Join(t.TempDir(), "nested", "merged.kts")
	cfg := testConfig(t)

	res := runCLI(t, cfg, "", "resolve", "-o", out, path)
	if res.err != nil {
		t.Fatalf("resolve failed: %v", res.err)
	}
	if strings.TrimSpace(res.stdout) != out {
		t.Errorf("stdout = %q, want %q", res.stdout, out)
	}
	if got := testutil.MustReadFile(t, out); got != "println(1)\n" {
		t.Errorf("merged script = %q", got)
	}

	entries, err := os.ReadDir(cfg.CacheDir.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache directory should stay empty with -o, found %d entries", len(entries))
	}
}

func TestResolveCommandRemote(t *testing.T) {
	t.Parallel()

	var (
		mu        sync.Mutex
		userAgent string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		userAgent = r.UserAgent()
		mu.Unlock()
		switch r.URL.Path {
		case "/hello.kts":
			_, _ = fmt.Fprint(w, "//INCLUDE lib/util.kt\nprintln(util())\n")
		case "/lib/util.kt":
			_, _ = fmt.Fprint(w, "fun util() = 7\n")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t)
	cfg.Includes.UserAgent = "kscript-test"

	res := runCLI(t, cfg, "", "resolve", srv.URL+"/hello.kts")
	if res.err != nil {
		t.Fatalf("resolve failed: %v\nstderr: %s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "http "+srv.URL+"/lib/util.kt") {
		t.Errorf("stdout = %q", res.stdout)
	}
	mu.Lock()
	defer mu.Unlock()
	if userAgent != "kscript-test" {
		t.Errorf("User-Agent = %q, want kscript-test", userAgent)
	}
}

func TestResolveCommandMissingInclude(t *testing.T) {
	t.Parallel()

	path := writeScript(t, "broken.kts", "//INCLUDE nope.kt\n")
	cfg := testConfig(t)

	res := runCLI(t, cfg, "", "resolve", path)

	var exitErr *ExitError
	if !errors.As(res.err, &exitErr) || exitErr.Code != exitBadScript {
		t.Fatalf("error = %v, want ExitError with code %d", res.err, exitBadScript)
	}
	var ae *issue.ActionableError
	if !errors.As(res.err, &ae) || ae.Issue != issue.IncludeNotResolvedId {
		t.Errorf("error = %v, want IncludeNotResolvedId", res.err)
	}
	if !errors.Is(res.err, include.ErrUnresolvableInclude) {
		t.Error("error chain lost ErrUnresolvableInclude")
	}

	entries, err := os.ReadDir(cfg.CacheDir.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("nothing should be written, found %d entries", len(entries))
	}
}

func TestConfigLoadErrorIsReturned(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("boom")
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{Config: staticConfig{err: loadErr}, Stdout: &stdout, Stderr: &stderr})
	root := NewRootCommand(app)
	root.SetArgs([]string{"deps", "x.kts"})

	if err := root.ExecuteContext(context.Background()); !errors.Is(err, loadErr) {
		t.Errorf("error = %v, want the provider error", err)
	}
}

func TestConfigDumpCommand(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	res := runCLI(t, cfg, "", "config", "dump")
	if res.err != nil {
		t.Fatalf("config dump failed: %v", res.err)
	}
	if res.stdout != config.GenerateCUE(cfg) {
		t.Errorf("dump output differs from GenerateCUE:\n%s", res.stdout)
	}
}

func TestCacheCommands(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	dir := cfg.CacheDir.String()

	res := runCLI(t, cfg, "", "cache", "path")
	if res.err != nil || strings.TrimSpace(res.stdout) != dir {
		t.Fatalf("cache path = (%q, %v), want %q", res.stdout, res.err, dir)
	}

	for _, name := range []string{"a.kts", "b.kts"} {
		path := writeScript(t, name, "println(\""+name+"\")\n")
		if res := runCLI(t, cfg, "", "resolve", path); res.err != nil {
			t.Fatalf("resolve %s failed: %v", name, res.err)
		}
	}
	testutil.MustWriteFile(t, filepath.Join(dir, "notes.txt"), "keep me\n")

	res = runCLI(t, cfg, "", "cache", "clear")
	if res.err != nil {
		t.Fatalf("cache clear failed: %v", res.err)
	}
	if !strings.Contains(res.stdout, "Removed 2 merged script(s)") {
		t.Errorf("stdout = %q", res.stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Errorf("unrelated file removed: %v", err)
	}
}

func TestRemoteIncludeCachedAcrossRuns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		cacheEntries int
		wantFetches  int32
	}{
		{"cache enabled", 64, 1},
		{"cache disabled", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var fetches atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fetches.Add(1)
				_, _ = fmt.Fprint(w, "fun util() = 7\n")
			}))
			t.Cleanup(srv.Close)

			cfg := testConfig(t)
			cfg.Includes.CacheEntries = tt.cacheEntries
			path := writeScript(t, "main.kts", "//INCLUDE "+srv.URL+"/util.kt\n//INCLUDE "+srv.URL+"/util.kt\nprintln(util())\n")

			// Each run builds a fresh session, as separate processes would.
			for range 2 {
				if res := runCLI(t, cfg, "", "resolve", path); res.err != nil {
					t.Fatalf("resolve failed: %v\nstderr: %s", res.err, res.stderr)
				}
			}
			if got := fetches.Load(); got != tt.wantFetches {
				t.Errorf("remote include fetched %d times, want %d", got, tt.wantFetches)
			}
			if tt.cacheEntries == 0 {
				return
			}

			res := runCLI(t, cfg, "", "cache", "clear")
			if res.err != nil {
				t.Fatalf("cache clear failed: %v", res.err)
			}
			if !strings.Contains(res.stdout, "1 cached remote source(s)") {
				t.Errorf("stdout = %q", res.stdout)
			}
			if res := runCLI(t, cfg, "", "resolve", path); res.err != nil {
				t.Fatalf("resolve after clear failed: %v", res.err)
			}
			if got := fetches.Load(); got != 2 {
				t.Errorf("remote include fetched %d times after clear, want 2", got)
			}
		})
	}
}

func TestClearMergedScriptsMissingDir(t *testing.T) {
	t.Parallel()

	removed, err := clearMergedScripts(filepath.Join(t.TempDir(), "absent"))
	if err != nil || removed != 0 {
		t.Errorf("clearMergedScripts() = (%d, %v), want (0, nil)", removed, err)
	}
}

func TestWrapScriptError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantIssue issue.Id
		wantCode  int
	}{
		{
			name:      "unresolvable include",
			err:       &include.UnresolvableIncludeError{Target: "x.kt", Including: "file:///a.kts", Line: 3, Err: os.ErrNotExist},
			wantIssue: issue.IncludeNotResolvedId,
			wantCode:  exitBadScript,
		},
		{
			name:      "malformed directive",
			err:       &script.MalformedDirectiveError{Line: 1, Directive: "@file:DependsOn", Reason: "bad"},
			wantIssue: issue.MalformedDirectiveId,
			wantCode:  exitBadScript,
		},
		{
			name:      "write failure",
			err:       fmt.Errorf("%w: %w", preprocess.ErrWriteMerged, os.ErrPermission),
			wantIssue: issue.OutputWriteFailedId,
			wantCode:  exitFailure,
		},
		{
			name:      "remote status",
			err:       fmt.Errorf("reading script: %w", &include.HTTPStatusError{URL: "https://x/a.kts", StatusCode: 404}),
			wantIssue: issue.RemoteFetchFailedId,
			wantCode:  exitBadScript,
		},
		{
			name:      "missing script",
			err:       fmt.Errorf("reading script a.kts: %w", os.ErrNotExist),
			wantIssue: issue.ScriptNotFoundId,
			wantCode:  exitBadScript,
		},
		{
			name:     "anything else",
			err:      errors.New("boom"),
			wantCode: exitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := wrapScriptError(tt.err, "a.kts")

			var exitErr *ExitError
			if !errors.As(err, &exitErr) || exitErr.Code != tt.wantCode {
				t.Fatalf("error = %v, want ExitError code %d", err, tt.wantCode)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("expected *issue.ActionableError, got %T", exitErr.Err)
			}
			if ae.Issue != tt.wantIssue {
				t.Errorf("Issue = %d, want %d", ae.Issue, tt.wantIssue)
			}
			if ae.Resource != "a.kts" {
				t.Errorf("Resource = %q", ae.Resource)
			}
			if !errors.Is(err, tt.err) {
				t.Error("original error lost from chain")
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	err := wrapScriptError(&script.MalformedDirectiveError{Line: 2, Directive: "@file:DependsOn", Reason: "bad"}, "a.kts")

	var buf bytes.Buffer
	app := NewApp(Dependencies{})
	app.errorHandler()(&buf, fang.Styles{}, err)

	out := buf.String()
	for _, want := range []string{"failed to parse directives: a.kts", "line 2", "plain string literals", "--verbose"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestNewFetcher(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig().Includes
	cacheDir := filepath.Join(t.TempDir(), include.RemoteCacheDirName)

	fetcher, cache, err := newFetcher(cfg, cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if cache == nil || fetcher != include.Fetcher(cache) {
		t.Error("expected the caching fetcher to front the scheme fetcher")
	}
	if cache.Dir() != cacheDir {
		t.Errorf("cache dir = %q, want %q", cache.Dir(), cacheDir)
	}

	cfg.CacheEntries = 0
	fetcher, cache, err = newFetcher(cfg, cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if cache != nil {
		t.Error("cache_entries = 0 should disable the cache")
	}
	if _, ok := fetcher.(include.SchemeFetcher); !ok {
		t.Errorf("fetcher = %T, want include.SchemeFetcher", fetcher)
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	verboseCfg := config.DefaultConfig()
	verboseCfg.UI.Verbose = true

	tests := []struct {
		name  string
		flags rootFlags
		cfg   *config.Config
		want  slog.Level
	}{
		{"default", rootFlags{}, config.DefaultConfig(), slog.LevelInfo},
		{"verbose flag", rootFlags{verbose: true}, config.DefaultConfig(), slog.LevelDebug},
		{"verbose config", rootFlags{}, verboseCfg, slog.LevelDebug},
		{"silent beats config", rootFlags{silent: true}, verboseCfg, slog.LevelError},
	}

	for _, tt := range tests {
		app := &App{flags: tt.flags}
		if got := app.logLevel(tt.cfg); got != tt.want {
			t.Errorf("%s: logLevel() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
