// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/kscriptgo/kscript/internal/app/preprocess"
	"github.com/kscriptgo/kscript/internal/issue"
	"github.com/kscriptgo/kscript/pkg/include"
	"github.com/kscriptgo/kscript/pkg/script"
)

const (
	// exitFailure is the exit code for internal and environment failures.
	exitFailure = 1
	// exitBadScript is the exit code when the script or one of its includes
	// cannot be read or parsed.
	exitBadScript = 2
)

// wrapScriptError classifies an error returned while resolving or preparing
// target and attaches the matching issue id and suggestions.
func wrapScriptError(err error, target string) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return &ExitError{Code: exitFailure, Err: err}
	}

	ctx := issue.NewErrorContext().WithResource(target).Wrap(err)
	code := exitBadScript

	var uie *include.UnresolvableIncludeError
	var statusErr *include.HTTPStatusError
	var urlErr *url.Error
	switch {
	case errors.As(err, &uie):
		ctx.WithOperation("resolve includes").
			WithIssue(issue.IncludeNotResolvedId).
			WithSuggestionf("Check the include %q referenced from %s line %d", uie.Target, uie.Including, uie.Line)
	case errors.Is(err, script.ErrMalformedDirective):
		ctx.WithOperation("parse directives").
			WithIssue(issue.MalformedDirectiveId).
			WithSuggestion("Use plain string literals as directive arguments")
	case errors.Is(err, preprocess.ErrWriteMerged):
		code = exitFailure
		ctx.WithOperation("write merged script").
			WithIssue(issue.OutputWriteFailedId).
			WithSuggestion("Check that the cache directory is writable ('kscript cache path')")
	case errors.As(err, &statusErr), errors.As(err, &urlErr):
		ctx.WithOperation("download script").
			WithIssue(issue.RemoteFetchFailedId).
			WithSuggestion("Check the URL and your network connection")
	case errors.Is(err, os.ErrNotExist):
		ctx.WithOperation("read script").
			WithIssue(issue.ScriptNotFoundId).
			WithSuggestion("Check the path for typos")
	default:
		code = exitFailure
		ctx.WithOperation("prepare script")
	}

	return &ExitError{Code: code, Err: ctx.BuildError()}
}

// errorHandler returns the fang error handler. Actionable errors are printed
// with their suggestions, and in verbose mode with the issue catalog entry.
// Everything else, such as usage errors, goes to fang's default handler.
func (a *App) errorHandler() fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		var ae *issue.ActionableError
		if !errors.As(err, &ae) {
			fang.DefaultErrorHandler(w, styles, err)
			return
		}

		fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+ae.Format(a.flags.verbose))

		if !a.flags.verbose || ae.Issue == 0 {
			if ae.Issue != 0 {
				fmt.Fprintln(w, SubtitleStyle.Render("Run with --verbose for troubleshooting help."))
			}
			return
		}
		if entry := issue.Get(ae.Issue); entry != nil {
			rendered, renderErr := entry.Render(a.colorScheme)
			if renderErr != nil {
				slog.Warn("failed to render issue catalog entry", "issue", ae.Issue, "error", renderErr)
				return
			}
			fmt.Fprint(w, rendered)
		}
	}
}

// wrapOutputError reports a failure to store the merged script at path.
func wrapOutputError(err error, path string) error {
	return &ExitError{Code: exitFailure, Err: issue.NewErrorContext().
		WithOperation("write merged script").
		WithResource(path).
		WithIssue(issue.OutputWriteFailedId).
		WithSuggestion("Check that the target directory exists and is writable").
		Wrap(err).
		BuildError()}
}
