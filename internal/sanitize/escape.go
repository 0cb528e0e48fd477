// Package sanitize neutralizes HTML metacharacters in free-text fields.
package sanitize

import "strings"

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape replaces & < > " ' with entity references.
// It is not idempotent: apply it once, when a value is first persisted.
func Escape(s string) string {
	return htmlReplacer.Replace(s)
}

// EscapeAll escapes each referenced string in place.
func EscapeAll(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = Escape(*f)
		}
	}
}
