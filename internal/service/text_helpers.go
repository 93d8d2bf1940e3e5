package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// sanitizeText strips markup and returns plain text with entities decoded.
func sanitizeText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(value)))
}
