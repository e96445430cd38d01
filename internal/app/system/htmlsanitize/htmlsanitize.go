// Package htmlsanitize strips markup from user-supplied free text (bios,
// application messages, organizer messages, absence reasons) before it is
// stored or copied into an outgoing email.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripTags removes every HTML element, drops the content of script/style
// elements, and returns the remaining text unescaped and trimmed.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
