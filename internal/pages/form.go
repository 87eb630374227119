package pages

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/page"
)

func wasPosted(r *page.Request) bool {
	return r.HTTP != nil && r.HTTP.Method == http.MethodPost
}

// postString reads a sanitized form field. Unacceptable input is reported
// back to the user.
func postString(r *page.Request, key string, limit int) (string, error) {
	v, err := Sanitize(r.HTTP.PostFormValue(key), limit)
	if err != nil {
		return "", domain.Violation("Invalid value for %s: %v", key, err)
	}
	return strings.TrimSpace(v), nil
}

// postBool reports whether a checkbox was ticked.
func postBool(r *page.Request, key string) bool {
	switch strings.ToLower(r.HTTP.PostFormValue(key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// queryID reads a positive numeric id from the query string.
func queryID(r *page.Request) (int64, error) {
	raw := r.HTTP.URL.Query().Get("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Violation("Invalid email template id %q", raw)
	}
	return id, nil
}
