// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The issue catalog holds longer Markdown guidance for the
// common failure classes (missing script, unresolvable include, malformed
// directive, broken configuration), rendered for the terminal with glamour.
package issue
