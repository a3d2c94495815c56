// SPDX-License-Identifier: MPL-2.0

// Package preprocess turns a root script into a merged script file plus the
// build metadata its directives declare, and hands both to the dependency
// resolver and compiler collaborators. It keeps the CLI layer free of
// include and directive handling.
package preprocess
