// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/kscript/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/kscript/config.cue on macOS, %APPDATA%\kscript\config.cue
// on Windows), falling back to ./config.cue. Files are validated against the embedded
// schema (config_schema.cue) before being merged over the built-in defaults, and every
// key can be overridden with a KSCRIPT_* environment variable (KSCRIPT_INCLUDES_TIMEOUT
// for includes.timeout).
package config
