// auth.go - Shared-secret header authentication for the upload API.
package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/http"
)

// authHeader is the custom header carrying the shared-secret token.
const authHeader = "X-ET-AUTH-TOKEN"

// requireToken rejects any request whose token header does not match the
// configured API key. The comparison hashes both sides and uses
// hmac.Equal so neither content nor length leaks through timing. Nothing
// downstream runs on a mismatch, so an unauthorized request never
// touches the filesystem.
func requireToken(apiKey string) func(http.Handler) http.Handler {
	keyHash := sha256.Sum256([]byte(apiKey))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotHash := sha256.Sum256([]byte(r.Header.Get(authHeader)))
			if !hmac.Equal(gotHash[:], keyHash[:]) {
				respondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
