// security.go - Response headers and the request-body cap.
package server

import (
	"net/http"
)

// securityHeadersMiddleware adds defensive headers to all responses.
// The surface is a JSON API, so only the headers that matter for one
// apply; there is no HTML to scope a CSP to.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}

// maxBytesMiddleware caps the request body below the handler, so an
// oversized upload fails in the HTTP layer rather than in handler logic.
func maxBytesMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
