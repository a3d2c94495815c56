// SPDX-License-Identifier: MPL-2.0

package script

import (
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// RuntimeOption is one token passed to the compiler or runtime.
type RuntimeOption string

// String returns the token.
func (o RuntimeOption) String() string { return string(o) }

// ShellQuoted returns the token quoted so a POSIX shell reads it back as one
// word. Tokens without special characters are returned unchanged.
func (o RuntimeOption) ShellQuoted() string {
	quoted, err := syntax.Quote(string(o), syntax.LangPOSIX)
	if err != nil {
		// Non-printable characters have no POSIX quoting.
		return strconv.Quote(string(o))
	}
	return quoted
}

// CollectRuntimeOptions returns the option tokens declared by the script.
//
// All //KOTLIN_OPTS values (in encounter order) and then all @file:KotlinOpts
// values are joined with single spaces and split into tokens. Whitespace
// separates tokens; a single or double quoted run is part of one token and
// its quotes are removed. Every other character, backslashes and shell
// operators included, is literal.
func (s *Script) CollectRuntimeOptions() ([]RuntimeOption, error) {
	var lineValues, annotationValues []string

	for i, line := range s.lines {
		if value, ok := lineDirective(line, TagKotlinOpts); ok {
			if value != "" {
				lineValues = append(lineValues, value)
			}
			continue
		}

		a, ok, err := findAnnotation(line, AnnotationKotlinOpts)
		if !ok {
			continue
		}
		if err != nil {
			return nil, withLine(err, i+1)
		}
		values, err := a.positional()
		if err != nil {
			return nil, withLine(err, i+1)
		}
		annotationValues = append(annotationValues, values...)
	}

	joined := strings.Join(append(lineValues, annotationValues...), " ")
	if strings.TrimSpace(joined) == "" {
		return nil, nil
	}

	words, err := splitOptions(joined)
	if err != nil {
		return nil, &MalformedDirectiveError{
			Directive: "//" + TagKotlinOpts,
			Reason:    err.Error(),
		}
	}

	opts := make([]RuntimeOption, 0, len(words))
	for _, w := range words {
		opts = append(opts, RuntimeOption(w))
	}
	return opts, nil
}

// splitOptions splits src on blanks. Quoted runs group and lose their quotes.
func splitOptions(src string) ([]string, error) {
	var (
		words   []string
		current strings.Builder
		inWord  bool
		quote   rune
		opened  int
	)

	for i, r := range src {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote, opened, inWord = r, i, true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote at offset %d", quote, opened)
	}
	if inWord {
		words = append(words, current.String())
	}
	return words, nil
}
