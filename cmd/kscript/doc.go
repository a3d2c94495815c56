// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for kscript.
//
// The commands are thin: they load configuration, build the include resolver
// and preprocessing pipeline in App, and render what the pipeline returns.
package cmd
