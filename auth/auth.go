package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

var apiKey []byte

// Configure sets the shared API key guarding operational endpoints.
func Configure(key string) {
	apiKey = []byte(key)
}

// Middleware verifies the shared key from either a header or a query
// parameter (the query form is needed for WebSocket clients).
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if key == "" {
			key = r.Header.Get("X-Api-Key")
		}
		if key == "" {
			key = r.URL.Query().Get("apikey")
		}

		if len(apiKey) == 0 || subtle.ConstantTimeCompare([]byte(key), apiKey) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
