package handlers

import (
	"net/http"
	"strings"
)

// getParam reads a route parameter. pat keeps them in the query under a
// leading colon; net/http path values are the fallback.
func getParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	if v := strings.TrimSpace(r.URL.Query().Get(":" + name)); v != "" {
		return v
	}
	return r.PathValue(name)
}
