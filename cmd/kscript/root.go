// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the kscript command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kscript",
		Short: "Preprocess Kotlin scripts",
		Long: TitleStyle.Render("kscript") + SubtitleStyle.Render(" - Kotlin script preprocessor") + `

kscript reads a Kotlin script, splices in every file it includes and
extracts the directives a runner needs: dependencies, repositories,
compiler options and the entry point.

Both directive forms are understood:
  //DEPS org.example:lib:1.0        @file:DependsOn("org.example:lib:1.0")
  //INCLUDE util.kt                 @file:Include("util.kt")

` + SubtitleStyle.Render("Examples:") + `
  kscript resolve hello.kts            Write the merged script and print its path
  kscript deps hello.kts               List dependencies and repositories
  kscript info --format json hello.kts Print everything extracted from the script
  cat hello.kts | kscript info -       Read the script from standard input
  kscript deps '//DEPS a:b:1.0'        Pass Kotlin code instead of a file`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&app.flags.silent, "silent", "s", false, "only log errors")
	rootCmd.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/kscript/config.cue)")
	rootCmd.PersistentFlags().BoolVar(&app.flags.consolidateImports, "consolidate-imports", false, "move file annotations and imports of the merged script to its top")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "silent")

	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.AddCommand(newResolveCommand(app))
	rootCmd.AddCommand(newDepsCommand(app))
	rootCmd.AddCommand(newInfoCommand(app))
	rootCmd.AddCommand(newCacheCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithErrorHandler(app.errorHandler()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(exitFailure)
	}
}
