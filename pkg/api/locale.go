package api

import (
	"net/http"
	"strings"
)

// LocaleCookie holds the language a user picked in the dashboard
const LocaleCookie = "lang"

// requestLocale returns the raw locale of a request. The cookie wins over Accept-Language;
// resolving the value to a supported language happens in the aggregator.
func requestLocale(r *http.Request) string {
	if c, err := r.Cookie(LocaleCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	return r.Header.Get("Accept-Language")
}
