// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/kscriptgo/kscript/internal/app/preprocess"
	"github.com/kscriptgo/kscript/pkg/script"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatTOML = "toml"

	// maskedPassword replaces repository passwords in every output format.
	maskedPassword = "********"
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

type (
	// scriptInfo is the serializable view of a preprocess.Result.
	scriptInfo struct {
		ScriptFile   string        `json:"script_file" toml:"script_file"`
		EntryPoint   string        `json:"entry_point,omitempty" toml:"entry_point,omitempty"`
		Dependencies []string      `json:"dependencies" toml:"dependencies"`
		Options      []string      `json:"kotlin_opts" toml:"kotlin_opts"`
		Includes     []includeInfo `json:"includes" toml:"includes"`
		Repositories []repoInfo    `json:"repositories" toml:"repositories"`
	}

	includeInfo struct {
		URI      string `json:"uri" toml:"uri"`
		Protocol string `json:"protocol" toml:"protocol"`
	}

	repoInfo struct {
		ID       string `json:"id" toml:"id"`
		URL      string `json:"url" toml:"url"`
		User     string `json:"user,omitempty" toml:"user,omitempty"`
		Password string `json:"password,omitempty" toml:"password,omitempty"`
	}
)

// newInfoCommand creates the `kscript info` command.
func newInfoCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info <script>",
		Short: "Show everything extracted from a script",
		Long: `Resolve a script's includes and print the merged script path, the spliced
includes, dependencies, repositories, compiler options and entry point.

Use --format json or --format toml for machine-readable output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON && format != formatTOML {
				return fmt.Errorf("%w %q (valid: text, json, toml)", ErrUnknownFormat, format)
			}

			s, ctx, err := app.newSession(cmd.Context())
			if err != nil {
				return err
			}

			res, err := app.prepare(ctx, s, args[0])
			if err != nil {
				return wrapScriptError(err, args[0])
			}

			return writeInfo(app.stdout, newScriptInfo(res), format)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "output format: text, json or toml")

	return cmd
}

func newScriptInfo(res *preprocess.Result) scriptInfo {
	info := scriptInfo{
		ScriptFile:   res.ScriptFile,
		Dependencies: make([]string, 0, len(res.Dependencies)),
		Options:      make([]string, 0, len(res.Options)),
		Includes:     make([]includeInfo, 0, len(res.Includes)),
		Repositories: make([]repoInfo, 0, len(res.Repos)),
	}
	if res.HasEntryPoint {
		info.EntryPoint = res.EntryPoint
	}
	for _, dep := range res.Dependencies {
		info.Dependencies = append(info.Dependencies, dep.String())
	}
	for _, opt := range res.Options {
		info.Options = append(info.Options, opt.String())
	}
	for _, inc := range res.Includes {
		info.Includes = append(info.Includes, includeInfo{URI: inc.String(), Protocol: inc.Protocol})
	}
	for _, repo := range res.Repos {
		ri := repoInfo{ID: repo.ID, URL: repo.URL, User: repo.User}
		if repo.Password != "" {
			ri.Password = maskedPassword
		}
		info.Repositories = append(info.Repositories, ri)
	}
	return info
}

func writeInfo(w io.Writer, info scriptInfo, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case formatTOML:
		return toml.NewEncoder(w).Encode(info)
	default:
		writeInfoText(w, info)
		return nil
	}
}

func writeInfoText(w io.Writer, info scriptInfo) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	none := SubtitleStyle.Render("(none)")

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Script file"), valueStyle.Render(info.ScriptFile))

	entry := none
	if info.EntryPoint != "" {
		entry = valueStyle.Render(info.EntryPoint)
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Entry point"), entry)

	opts := none
	if len(info.Options) > 0 {
		quoted := make([]string, 0, len(info.Options))
		for _, opt := range info.Options {
			quoted = append(quoted, script.RuntimeOption(opt).ShellQuoted())
		}
		opts = valueStyle.Render(strings.Join(quoted, " "))
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Kotlin options"), opts)

	writeList(w, "Includes", len(info.Includes), func(i int) string {
		return info.Includes[i].URI + " " + SubtitleStyle.Render("("+info.Includes[i].Protocol+")")
	})
	writeList(w, "Dependencies", len(info.Dependencies), func(i int) string {
		return info.Dependencies[i]
	})
	writeList(w, "Repositories", len(info.Repositories), func(i int) string {
		r := info.Repositories[i]
		if r.User != "" {
			return fmt.Sprintf("%s %s %s", r.ID, r.URL, SubtitleStyle.Render("(user "+r.User+")"))
		}
		return r.ID + " " + r.URL
	})
}

func writeList(w io.Writer, title string, n int, item func(int) string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", TitleStyle.Render(title))
	if n == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none)"))
		return
	}
	for i := range n {
		fmt.Fprintf(w, "  - %s\n", item(i))
	}
}
