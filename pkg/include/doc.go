// SPDX-License-Identifier: MPL-2.0

// Package include resolves include directives transitively and splices the
// included sources into one merged script.
//
// Every include target is canonicalized into a URI: absolute URLs are kept as
// given, absolute paths become file:// URIs and relative references resolve
// against the URI of the source that contains them. The canonical URI string is
// the identity used to drop repeated includes, so diamonds are spliced once and
// cycles terminate.
//
// Content is obtained through a Fetcher. FileFetcher and HTTPFetcher cover the
// local and remote cases, SchemeFetcher dispatches between them and
// CachingFetcher keeps recently fetched remote content in memory.
package include
