package middleware

import "net/http"

// NoStore disables response caching. The chat client polls /api/contacts and
// thread endpoints on a short interval and derives notifications from the
// returned state, so a cached contact list would hide new messages.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}
