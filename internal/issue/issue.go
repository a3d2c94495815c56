// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ScriptNotFoundId Id = iota + 1
	IncludeNotResolvedId
	MalformedDirectiveId
	RemoteFetchFailedId
	OutputWriteFailedId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue's Markdown with the given glamour style
// ("dark", "light", "notty" or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
		for _, link := range i.extLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	scriptNotFoundIssue = &Issue{
		id: ScriptNotFoundId,
		mdMsg: `
# Script not found!

The script you asked for could not be read.

## Things you can try:
- Check the path for typos; relative paths are resolved from the current directory
- Pass a URL to run a remote script:
~~~
$ kscript resolve https://example.com/hello.kts
~~~

- Pipe the script through standard input:
~~~
$ cat hello.kts | kscript resolve -
~~~`,
		docLinks: []HttpLink{"https://github.com/kscripting/kscript#script-input-modes"},
	}

	includeNotResolvedIssue = &Issue{
		id: IncludeNotResolvedId,
		mdMsg: `
# An include could not be resolved!

One of the files referenced by an include directive could not be read.
Nothing was written; the merged script is only produced when every include resolves.

## How include targets are resolved:
1. Absolute URLs (` + "`https://...`" + `) are fetched as given
2. Absolute paths are read from the local file system
3. Relative paths resolve against the file that contains the directive,
   so a relative include inside a remote include is fetched remotely too

## Both directive forms are supported:
~~~kotlin
//INCLUDE lib/util.kt
@file:Include("lib/util.kt")
~~~

## Things you can try:
- Check the path printed above; it names the failing include and the file that references it
- Run with verbose mode to see every include as it is resolved:
~~~
$ kscript --verbose resolve hello.kts
~~~`,
	}

	malformedDirectiveIssue = &Issue{
		id: MalformedDirectiveId,
		mdMsg: `
# Malformed directive!

A directive could not be parsed. Directives are recognized without compiling the script,
so their arguments must be plain string literals.

## Common issues:
- Unterminated string literal or missing closing parenthesis
- Several coordinates in one string: write one argument per coordinate
- A MavenRepository with only one of ` + "`user`/`password`" + `

## Valid forms:
~~~kotlin
//DEPS com.offbytwo:docopt:0.6.0.20150202, log4j:log4j:1.2.14
@file:DependsOn("com.offbytwo:docopt:0.6.0.20150202", "log4j:log4j:1.2.14")
@file:MavenRepository("private", "https://repo.example.com/maven", user="me", password="secret")
//KOTLIN_OPTS -J-Xmx5g 'arg with spaces'
@file:KotlinOpts("-J-Xmx5g")
//ENTRY Main
@file:EntryPoint("Main")
~~~

## Disabling a directive:
Comment it out once more; ` + "`// //DEPS ...`" + ` and ` + "`//@file:DependsOn(...)`" + ` are ignored.`,
	}

	remoteFetchFailedIssue = &Issue{
		id: RemoteFetchFailedId,
		mdMsg: `
# Failed to download a remote script!

A remote script or include could not be downloaded.

## Things you can try:
- Open the URL in a browser to check that it is reachable
- Raise the timeout in your configuration:
~~~cue
includes: {
	timeout: "2m"
}
~~~

- Or for a single run:
~~~
$ KSCRIPT_INCLUDES_TIMEOUT=2m kscript resolve https://example.com/hello.kts
~~~`,
	}

	outputWriteFailedIssue = &Issue{
		id: OutputWriteFailedId,
		mdMsg: `
# Failed to write the merged script!

The merged script is written to the kscript cache directory before it is handed on.

## Things you can try:
- Check where merged scripts are written:
~~~
$ kscript cache path
~~~

- Make sure the directory is writable, or point ` + "`cache_dir`" + ` somewhere else in your configuration
- Remove stale merged scripts:
~~~
$ kscript cache clear
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Things you can try:
- Print the effective configuration and where it was loaded from:
~~~
$ kscript config show
$ kscript config path
~~~

- Write a fresh configuration with every default spelled out:
~~~
$ kscript config init
~~~

## Example configuration:
~~~cue
annotations: {
	support_library: "com.github.holgerbrandl:kscript-annotations:1.4"
}
includes: {
	timeout:       "30s"
	max_size:      5242880
	cache_entries: 64
}
ui: {
	color_scheme: "auto"
	verbose:      false
}
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	issues = map[Id]*Issue{
		scriptNotFoundIssue.Id():     scriptNotFoundIssue,
		includeNotResolvedIssue.Id(): includeNotResolvedIssue,
		malformedDirectiveIssue.Id(): malformedDirectiveIssue,
		remoteFetchFailedIssue.Id():  remoteFetchFailedIssue,
		outputWriteFailedIssue.Id():  outputWriteFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		values = append(values, i)
	}
	slices.SortFunc(values, func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
