// SPDX-License-Identifier: MPL-2.0

package script

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedDirective is the sentinel error wrapped by MalformedDirectiveError.
	ErrMalformedDirective = errors.New("malformed directive")

	// ErrCredentialMismatch is returned (wrapped in a MalformedDirectiveError) when a
	// MavenRepository directive supplies only one of user/password.
	ErrCredentialMismatch = errors.New("user and password must be given together")
)

// MalformedDirectiveError describes a directive whose shape could not be parsed,
// e.g. an annotation with an unterminated string or an unparseable argument list.
// It wraps ErrMalformedDirective, and Cause when set, for errors.Is() compatibility.
type MalformedDirectiveError struct {
	// Line is the 1-based line number inside the script, or 0 when the
	// directive was checked outside of a Script (e.g. IncludeTarget).
	Line int
	// Source names the file Line belongs to when it differs from the
	// script being read, e.g. the include a merged line was copied from.
	Source string
	// Directive names the directive form, e.g. "@file:DependsOn" or "//KOTLIN_OPTS".
	Directive string
	// Reason is a short human readable description of the problem.
	Reason string
	// Cause is an optional more specific error (ErrCredentialMismatch, a shell parse error).
	Cause error
}

// Error implements the error interface.
func (e *MalformedDirectiveError) Error() string {
	if e.Line > 0 && e.Source != "" {
		return fmt.Sprintf("%s line %d: malformed %s directive: %s", e.Source, e.Line, e.Directive, e.Reason)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: malformed %s directive: %s", e.Line, e.Directive, e.Reason)
	}
	return fmt.Sprintf("malformed %s directive: %s", e.Directive, e.Reason)
}

// Unwrap returns ErrMalformedDirective and the optional cause.
func (e *MalformedDirectiveError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrMalformedDirective}
	}
	return []error{ErrMalformedDirective, e.Cause}
}

// withLine returns err with its line number set when it is a MalformedDirectiveError.
func withLine(err error, line int) error {
	var mde *MalformedDirectiveError
	if errors.As(err, &mde) && mde.Line == 0 {
		mde.Line = line
	}
	return err
}
