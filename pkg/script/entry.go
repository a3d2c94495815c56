// SPDX-License-Identifier: MPL-2.0

package script

import "strings"

// IsEntryPointDirective reports whether line declares an entry point in either
// form. "// //ENTRY Foo" and "//@file:EntryPoint(\"Foo\")" are not directives.
func IsEntryPointDirective(line string) bool {
	_, ok := entryPointName(line)
	return ok
}

// FindEntryPoint returns the name declared by the first entry point directive
// in file order, regardless of its form.
func (s *Script) FindEntryPoint() (string, bool) {
	for _, line := range s.lines {
		if name, ok := entryPointName(line); ok {
			return name, true
		}
	}
	return "", false
}

// entryPointName extracts the entry point name from line. A directive without
// a usable name does not count. The line form's name is its first field;
// anything after it is ignored.
func entryPointName(line string) (string, bool) {
	if value, ok := lineDirective(line, TagEntry); ok {
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return "", false
		}
		return fields[0], true
	}
	a, ok, err := findAnnotation(line, AnnotationEntryPoint)
	if !ok || err != nil {
		return "", false
	}
	name, err := a.single()
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}
