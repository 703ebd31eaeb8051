// Package dashboard serves a live HTML view of recent analysis sessions.
package dashboard

import (
	"net/http"
)

// Handler returns the dashboard page. The page polls /api/stats and
// /api/sessions on the same server.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(dashboardHTML))
	})
}
