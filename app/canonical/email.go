// Package canonical produces the uniqueness keys used by the contact index.
package canonical

import "strings"

// Email normalizes an email address for uniqueness checks: surrounding
// whitespace is dropped and the whole address is lower-cased. Blank input
// yields an empty string.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
