// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kscriptgo/kscript/internal/config"
	"github.com/kscriptgo/kscript/internal/issue"
)

// newConfigCommand creates the `kscript config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage kscript configuration",
		Long: `Manage kscript configuration.

Configuration is stored in:
  - Linux: ~/.config/kscript/config.cue
  - macOS: ~/Library/Application Support/kscript/config.cue
  - Windows: %APPDATA%\kscript\config.cue

Every key can be overridden with a KSCRIPT_ environment variable, for
example KSCRIPT_INCLUDES_TIMEOUT=2m.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig("")
			if err != nil {
				return issue.WrapWithContext(err, "create default config", path)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s Config file already exists at %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created default config at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), app.loadOptions())
			if err != nil {
				return err
			}

			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.Config.Load(ctx, app.loadOptions())
	if err != nil {
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := app.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path, pathErr := config.ResolvePath(app.loadOptions())
	if pathErr == nil && path != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	cacheDir := SubtitleStyle.Render("(user cache directory)")
	if cfg.CacheDir != "" {
		cacheDir = valueStyle.Render(cfg.CacheDir.String())
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("cache_dir"), cacheDir)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("annotations"))
	fmt.Fprintf(w, "  support_library: %s\n", valueStyle.Render(cfg.Annotations.SupportLibrary.String()))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("includes"))
	fmt.Fprintf(w, "  timeout: %s\n", valueStyle.Render(cfg.Includes.Timeout.String()))
	fmt.Fprintf(w, "  max_size: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Includes.MaxSize)))
	fmt.Fprintf(w, "  cache_entries: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Includes.CacheEntries)))
	userAgent := SubtitleStyle.Render("(kscript/" + Version + ")")
	if cfg.Includes.UserAgent != "" {
		userAgent = valueStyle.Render(cfg.Includes.UserAgent)
	}
	fmt.Fprintf(w, "  user_agent: %s\n", userAgent)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func showConfigPath(app *App) error {
	path, err := config.ResolvePath(app.loadOptions())
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintln(app.stdout, path)
		return nil
	}

	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt), SubtitleStyle.Render("(not found)"))
	return nil
}
