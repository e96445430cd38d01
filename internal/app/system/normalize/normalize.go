// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and uppercases a role value ("comedian" -> "COMEDIAN").
func Role(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Status trims and uppercases an application status.
func Status(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// EventStatus trims and lowercases an event status ("Published" -> "published").
func EventStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
