// Package slug produces unique, URL-safe identifiers for named
// entities within an owner scope (all coach templates, one client's
// templates, or one template's sessions).
package slug

import (
	"fmt"
	"strings"
	"unicode"
)

// Make normalizes a name into its slug form: lowercase, with runs of
// whitespace and other non-alphanumeric characters collapsed into
// single hyphens, and leading/trailing hyphens trimmed.
func Make(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return b.String()
}

// Generate returns a slug for name that does not collide with any
// existing slug in the owner scope, as reported by the exists
// predicate. On collision it appends -N, walking N up from 1 until a
// free candidate is found. Existing suffixes cannot be assumed dense
// (an unrelated name may have independently claimed "foo-1"), so every
// candidate is checked.
//
// Generate is pure given the current set of slugs in scope; persisting
// the result is the caller's job.
func Generate(name string, exists func(string) bool) string {
	base := Make(name)
	if base == "" {
		base = "untitled"
	}
	if !exists(base) {
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !exists(candidate) {
			return candidate
		}
	}
}
