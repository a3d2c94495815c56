// SPDX-License-Identifier: MPL-2.0

package script

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Line directive tags.
const (
	TagDeps       = "DEPS"
	TagKotlinOpts = "KOTLIN_OPTS"
	TagEntry      = "ENTRY"
	TagInclude    = "INCLUDE"
)

// File annotation names.
const (
	AnnotationDependsOn       = "DependsOn"
	AnnotationDependsOnMaven  = "DependsOnMaven"
	AnnotationMavenRepository = "MavenRepository"
	AnnotationKotlinOpts      = "KotlinOpts"
	AnnotationEntryPoint      = "EntryPoint"
	AnnotationInclude         = "Include"
)

// annotationHead matches the start of a file annotation up to its opening parenthesis.
var annotationHead = regexp.MustCompile(`^@file:([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// lineDirective returns the trimmed value of a "//TAG value" line.
// The tag must be followed by whitespace; "//DEPSX" and "// //DEPS" do not match.
func lineDirective(line, tag string) (string, bool) {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	rest, ok := strings.CutPrefix(trimmed, "//"+tag)
	if !ok || rest == "" {
		return "", false
	}
	if r, _ := utf8.DecodeRuneInString(rest); !unicode.IsSpace(r) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// annotationName returns the annotation name and the text after its opening
// parenthesis when line is a file annotation.
func annotationName(line string) (name, rest string, ok bool) {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	m := annotationHead.FindStringSubmatchIndex(trimmed)
	if m == nil {
		return "", "", false
	}
	return trimmed[m[2]:m[3]], trimmed[m[1]:], true
}

// findAnnotation parses line as one of the named annotations. ok is false when
// the line is not an annotation or carries another name; in that case the
// argument list is never inspected.
func findAnnotation(line string, names ...string) (annotation, bool, error) {
	name, rest, ok := annotationName(line)
	if !ok || !slices.Contains(names, name) {
		return annotation{}, false, nil
	}
	args, err := scanArguments(rest)
	if err != nil {
		return annotation{}, true, &MalformedDirectiveError{
			Directive: "@file:" + name,
			Reason:    err.Error(),
		}
	}
	return annotation{name: name, args: args}, true, nil
}

// IsIncludeDirective reports whether line is an include directive in either form.
func IsIncludeDirective(line string) bool {
	_, ok, err := IncludeTarget(line)
	return ok && err == nil
}

// IncludeTarget returns the path or URL referenced by an include directive.
// ok is false for any other line. A line that looks like @file:Include but
// cannot be parsed yields a MalformedDirectiveError.
func IncludeTarget(line string) (target string, ok bool, err error) {
	if v, found := lineDirective(line, TagInclude); found && v != "" {
		return v, true, nil
	}
	a, found, err := findAnnotation(line, AnnotationInclude)
	if !found {
		return "", false, nil
	}
	if err != nil {
		return "", true, err
	}
	target, err = a.single()
	if err != nil {
		return "", true, err
	}
	return target, true, nil
}
