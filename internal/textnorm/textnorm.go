// Package textnorm canonicalizes extracted text and holds the shared
// English stopword list.
package textnorm

import "strings"

// Normalize collapses every maximal run of whitespace to a single space and
// trims leading and trailing whitespace. Empty input yields empty output.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
