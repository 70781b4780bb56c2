package http

import (
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText cleans a free-text name before it is stored. Markup and
// control characters are removed. Formula guarding belongs to the Sheets
// store, so the name is otherwise kept as typed.
func sanitizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	// StrictPolicy escapes what it keeps; names are stored as plain text.
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	return "req_" + uuid.NewString()
}
