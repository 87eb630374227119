package page

import (
	"net/url"
	"strings"
)

// BuildURL composes <prefix>/<page>[/<action>][?<query>]. The query string is
// only appended when params is non-empty.
func BuildURL(prefix, page, action string, params url.Values) string {
	parts := []string{prefix, page}
	if action != "" {
		parts = append(parts, action)
	}

	target := strings.Join(parts, "/")
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	return target
}
