// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newDepsCommand creates the `kscript deps` command.
func newDepsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deps <script>",
		Short: "List the dependencies and repositories of a script",
		Long: `List the dependencies and repositories declared by a script and its includes.

Dependencies are printed one per line in declaration order, line directives
first. When the script uses @file annotations the annotation support library
is listed last. Repositories follow, prefixed with 'repository'; passwords
are never printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ctx, err := app.newSession(cmd.Context())
			if err != nil {
				return err
			}

			res, err := app.prepare(ctx, s, args[0])
			if err != nil {
				return wrapScriptError(err, args[0])
			}

			for _, dep := range res.Dependencies {
				fmt.Fprintln(app.stdout, dep)
			}
			for _, repo := range res.Repos {
				fmt.Fprintf(app.stdout, "repository %s\n", repo)
			}
			return nil
		},
	}
}
