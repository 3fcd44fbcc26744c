// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripAll removes every tag and returns unescaped, trimmed text. All stored
// free text (descriptions, messages, comments, report summaries) goes through
// here; html/template and encoding/json escape it once on output.
func StripAll(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
