// SPDX-License-Identifier: MPL-2.0

// Package script models a kscript source file as an ordered sequence of text
// lines and extracts the build directives embedded in it.
//
// Two independent directive families are recognized:
//
//   - line directives: "//TAG value", e.g. "//DEPS log4j:log4j:1.2.14"
//   - annotation directives: "@file:Name(args...)", e.g. @file:DependsOn("log4j:log4j:1.2.14")
//
// A line directive must start (after leading whitespace) with exactly "//TAG"
// followed by whitespace, so doubling the comment marker ("// //DEPS ...") or
// commenting out an annotation ("//@file:DependsOn(...)") makes the line inert.
//
// Annotation arguments are split by a small quote-aware state machine: commas
// and escaped quotes inside double-quoted strings never terminate an argument.
//
// Queries (CollectDependencies, CollectRepos, CollectRuntimeOptions,
// FindEntryPoint) are read-only views over a Script; they never reorder or
// mutate its lines.
package script
