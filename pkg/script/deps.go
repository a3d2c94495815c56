// SPDX-License-Identifier: MPL-2.0

package script

import (
	"strings"
)

// DefaultSupportLibrary is the coordinate of the library that provides the
// @file annotation types. It is appended to the dependency list whenever a
// script uses annotation-style dependency directives.
const DefaultSupportLibrary Dependency = "com.github.holgerbrandl:kscript-annotations:1.4"

// Dependency is an opaque library coordinate (group:artifact:version[:classifier]).
type Dependency string

// String returns the coordinate.
func (d Dependency) String() string { return string(d) }

// CollectDependencies returns every dependency declared by the script.
//
// Line-form coordinates ("//DEPS a, b") come first in encounter order,
// followed by annotation-form coordinates (@file:DependsOn / @file:DependsOnMaven).
// When at least one annotation-form coordinate was found, the support library
// coordinate is appended as the final entry.
func (s *Script) CollectDependencies() ([]Dependency, error) {
	var lineDeps, annotationDeps []Dependency

	for i, line := range s.lines {
		if value, ok := lineDirective(line, TagDeps); ok {
			items, err := splitList(value)
			if err != nil {
				return nil, &MalformedDirectiveError{Line: i + 1, Directive: "//" + TagDeps, Reason: err.Error()}
			}
			for _, item := range items {
				lineDeps = append(lineDeps, Dependency(item))
			}
			continue
		}

		a, ok, err := findAnnotation(line, AnnotationDependsOn, AnnotationDependsOnMaven)
		if !ok {
			continue
		}
		if err != nil {
			return nil, withLine(err, i+1)
		}
		coords, err := a.positional()
		if err != nil {
			return nil, withLine(err, i+1)
		}
		for _, coord := range coords {
			// One quoted argument is exactly one coordinate.
			if strings.Contains(coord, ",") {
				return nil, withLine(a.malformed("%q lists several coordinates in one argument; quote each one separately", coord), i+1)
			}
			annotationDeps = append(annotationDeps, Dependency(strings.TrimSpace(coord)))
		}
	}

	deps := append(lineDeps, annotationDeps...)
	if len(annotationDeps) > 0 {
		deps = append(deps, s.supportLibrary)
	}
	return deps, nil
}
