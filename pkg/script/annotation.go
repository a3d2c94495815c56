// SPDX-License-Identifier: MPL-2.0

package script

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	stateOutside scanState = iota
	stateQuoted
	stateEscape
)

type (
	// argument is one entry of an annotation argument list.
	argument struct {
		// key is set for keyword arguments (key = "value").
		key    string
		value  string
		quoted bool
	}

	// annotation is a parsed "@file:Name(args...)" directive.
	annotation struct {
		name string
		args []argument
	}

	scanState int

	// argBuilder accumulates one argument while scanning.
	argBuilder struct {
		key    string
		hasKey bool
		bare   strings.Builder
		value  strings.Builder
		quotes int
	}
)

// escapes lists the escape sequences accepted inside quoted arguments.
var escapes = map[rune]rune{
	'"':  '"',
	'\\': '\\',
	'$':  '$',
	'\'': '\'',
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'b':  '\b',
}

// scanArguments splits the text following an annotation's opening parenthesis
// into arguments. Commas, parentheses and '=' only count outside double-quoted
// strings. Text after the closing parenthesis (a trailing comment, say) is ignored.
func scanArguments(rest string) ([]argument, error) {
	var (
		args  []argument
		cur   = &argBuilder{}
		state = stateOutside
	)

	for _, r := range rest {
		switch state {
		case stateQuoted:
			switch r {
			case '\\':
				state = stateEscape
			case '"':
				state = stateOutside
				cur.quotes++
			default:
				cur.value.WriteRune(r)
			}

		case stateEscape:
			decoded, ok := escapes[r]
			if !ok {
				return nil, fmt.Errorf("unsupported escape sequence \\%c", r)
			}
			cur.value.WriteRune(decoded)
			state = stateQuoted

		default:
			switch r {
			case '"':
				if cur.quotes > 0 || strings.TrimSpace(cur.bare.String()) != "" {
					return nil, errors.New("unexpected string literal; only plain string arguments are supported")
				}
				state = stateQuoted
			case '=':
				if cur.hasKey || cur.quotes > 0 {
					return nil, errors.New("unexpected '='")
				}
				key := strings.TrimSpace(cur.bare.String())
				if !isIdentifier(key) {
					return nil, fmt.Errorf("invalid argument name %q", key)
				}
				cur.key, cur.hasKey = key, true
				cur.bare.Reset()
			case ',':
				arg, empty, err := cur.finish()
				if err != nil {
					return nil, err
				}
				if empty {
					return nil, errors.New("empty argument")
				}
				args = append(args, arg)
				cur = &argBuilder{}
			case ')':
				arg, empty, err := cur.finish()
				if err != nil {
					return nil, err
				}
				// An empty final slot is either "()" or a trailing comma.
				if !empty {
					args = append(args, arg)
				}
				return args, nil
			case '(':
				return nil, errors.New("nested expressions are not supported")
			default:
				if cur.quotes > 0 && !unicode.IsSpace(r) {
					return nil, fmt.Errorf("unexpected %q after string literal", r)
				}
				cur.bare.WriteRune(r)
			}
		}
	}

	if state != stateOutside {
		return nil, errors.New("unterminated string literal")
	}
	return nil, errors.New("missing closing parenthesis")
}

// finish completes the argument under construction. empty reports that
// nothing but whitespace was seen.
func (b *argBuilder) finish() (arg argument, empty bool, err error) {
	bare := strings.TrimSpace(b.bare.String())
	switch {
	case b.quotes == 1:
		return argument{key: b.key, value: b.value.String(), quoted: true}, false, nil
	case bare != "":
		return argument{key: b.key, value: bare}, false, nil
	case b.hasKey:
		return argument{}, false, fmt.Errorf("missing value for argument %q", b.key)
	default:
		return argument{}, true, nil
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// malformed builds a MalformedDirectiveError for this annotation.
func (a annotation) malformed(format string, args ...any) *MalformedDirectiveError {
	return &MalformedDirectiveError{
		Directive: "@file:" + a.name,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// positional returns the values of the annotation's arguments, all of which
// must be positional string literals.
func (a annotation) positional() ([]string, error) {
	values := make([]string, 0, len(a.args))
	for _, arg := range a.args {
		if arg.key != "" {
			return nil, a.malformed("unexpected named argument %q", arg.key)
		}
		if !arg.quoted {
			return nil, a.malformed("argument %s must be a string literal", arg.value)
		}
		values = append(values, arg.value)
	}
	return values, nil
}

// single returns the only positional string argument.
func (a annotation) single() (string, error) {
	values, err := a.positional()
	if err != nil {
		return "", err
	}
	if len(values) != 1 {
		return "", a.malformed("expected exactly one argument, got %d", len(values))
	}
	return values[0], nil
}

// splitList splits a line directive value on commas outside double quotes,
// trimming every item and dropping empty ones.
func splitList(value string) ([]string, error) {
	var (
		items   []string
		cur     strings.Builder
		quoted  bool
		escaped bool
	)
	for _, r := range value {
		switch {
		case escaped:
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			items = appendTrimmed(items, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if quoted {
		return nil, errors.New("unterminated string literal")
	}
	return appendTrimmed(items, cur.String()), nil
}

func appendTrimmed(items []string, item string) []string {
	if item = strings.TrimSpace(item); item != "" {
		items = append(items, item)
	}
	return items
}
