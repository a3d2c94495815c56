// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kscriptgo/kscript/pkg/include"
)

// newResolveCommand creates the `kscript resolve` command.
func newResolveCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resolve <script>",
		Short: "Splice includes and write the merged script",
		Long: `Resolve every include of a script and write the merged result.

The script may be a local path, an http(s) URL, '-' to read standard input,
or Kotlin code. Includes are resolved relative to the file that contains them
and each one is spliced in once, at its first occurrence. The merged script is
written to the cache directory under a content-addressed name unless --output
is given. With --consolidate-imports, file annotations and imports from all
sources are moved to the top of the merged script.

The first line of output is the path of the merged script, followed by one
line per spliced include.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, app, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the merged script to this file instead of the cache")

	return cmd
}

func runResolve(cmd *cobra.Command, app *App, target, output string) error {
	s, ctx, err := app.newSession(cmd.Context())
	if err != nil {
		return err
	}

	merged, err := app.resolve(ctx, s, target)
	if err != nil {
		return wrapScriptError(err, target)
	}

	var scriptFile string
	if output != "" {
		scriptFile, err = filepath.Abs(output)
		if err == nil {
			err = include.WriteFileAtomic(scriptFile, []byte(merged.Text()))
		}
	} else {
		scriptFile, err = s.resolver.Write(merged)
	}
	if err != nil {
		return wrapOutputError(err, scriptFile)
	}

	s.logger.Info("resolved script", "includes", len(merged.Includes), "lines", len(merged.Lines))
	if s.cache != nil {
		s.logger.Debug("remote cache", "entries", s.cache.Len())
	}

	fmt.Fprintln(app.stdout, scriptFile)
	for _, inc := range merged.Includes {
		fmt.Fprintf(app.stdout, "%s %s\n", inc.Protocol, inc)
	}
	return nil
}
