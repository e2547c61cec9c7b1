// Package formatter renders a summary as a bullet list.
package formatter

import (
	"strings"

	"docassist/internal/textnorm"
)

const separator = ". "

// Bullets splits a summary on sentence boundaries and renders each distinct
// sentence as a "- " line, in first-occurrence order. Blank fragments are
// dropped. The period consumed by the split is put back.
func Bullets(summary string) string {
	parts := strings.Split(textnorm.Normalize(summary), separator)
	seen := make(map[string]struct{}, len(parts))
	lines := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i < len(parts)-1 {
			part += "."
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		lines = append(lines, "- "+part)
	}
	return strings.Join(lines, "\n")
}
