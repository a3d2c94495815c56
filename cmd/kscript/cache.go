// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/kscriptgo/kscript/internal/issue"
	"github.com/kscriptgo/kscript/pkg/include"
)

// mergedScriptName matches the content-addressed names written by the resolver.
var mergedScriptName = regexp.MustCompile(`-[0-9a-f]{16}(\.[^.]+)?$`)

// newCacheCommand creates the `kscript cache` command tree.
func newCacheCommand(app *App) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage merged scripts and downloaded includes",
		Long: `Manage the directory merged scripts are written to.

The directory defaults to the per-user cache directory and can be changed
with the cache_dir configuration key. Remote scripts and includes are kept
in its 'urls' subdirectory until 'kscript cache clear' removes them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show where merged scripts are written",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := app.newSession(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, s.resolver.OutputDir())
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove merged scripts and downloaded includes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := app.newSession(cmd.Context())
			if err != nil {
				return err
			}

			dir := s.resolver.OutputDir()
			removed, err := clearMergedScripts(dir)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("clear cache").
					WithResource(dir).
					WithIssue(issue.OutputWriteFailedId).
					Wrap(err).
					BuildError()
			}

			remoteDir := filepath.Join(dir, include.RemoteCacheDirName)
			downloads, err := include.ClearDiskCache(remoteDir)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("clear cache").
					WithResource(remoteDir).
					WithIssue(issue.OutputWriteFailedId).
					Wrap(err).
					BuildError()
			}

			fmt.Fprintf(app.stdout, "%s Removed %d merged script(s) and %d cached remote source(s) from %s\n",
				SuccessStyle.Render("✓"), removed, downloads, dir)
			return nil
		},
	})

	return cacheCmd
}

// clearMergedScripts deletes the merged scripts in dir and returns how many
// were removed. Other files are left alone; a missing dir is empty.
func clearMergedScripts(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !mergedScriptName.MatchString(entry.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
