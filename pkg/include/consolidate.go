// SPDX-License-Identifier: MPL-2.0

package include

import (
	"strings"
	"unicode"
)

// ConsolidateImports returns lines with file annotations and import
// statements hoisted to the top, in first-encounter order and without
// repeats. A leading shebang line stays first. Every other line keeps its
// relative order.
func ConsolidateImports(lines []string) []string {
	return permute(lines, consolidationOrder(lines))
}

// consolidationOrder returns the indexes of lines in consolidated order.
// Repeated annotations and imports are left out.
func consolidationOrder(lines []string) []int {
	var head, annotations, imports, body []int
	seen := make(map[string]struct{})

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case i == 0 && strings.HasPrefix(line, "#!"):
			head = append(head, i)
		case strings.HasPrefix(trimmed, "@file:"), isImport(trimmed):
			if _, dup := seen[trimmed]; dup {
				continue
			}
			seen[trimmed] = struct{}{}
			if isImport(trimmed) {
				imports = append(imports, i)
			} else {
				annotations = append(annotations, i)
			}
		default:
			body = append(body, i)
		}
	}

	order := make([]int, 0, len(lines))
	order = append(order, head...)
	order = append(order, annotations...)
	order = append(order, imports...)
	return append(order, body...)
}

// isImport reports whether trimmed is a Kotlin import statement.
func isImport(trimmed string) bool {
	rest, ok := strings.CutPrefix(trimmed, "import")
	if !ok || rest == "" {
		return false
	}
	return unicode.IsSpace(rune(rest[0]))
}

func permute[T any](items []T, order []int) []T {
	out := make([]T, 0, len(order))
	for _, i := range order {
		if i < len(items) {
			out = append(out, items[i])
		}
	}
	return out
}
