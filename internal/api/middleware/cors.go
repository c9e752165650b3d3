package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// CORS returns a middleware that admits browser requests from the listed
// origins or from any origin ending in one of suffixes. Requests without an
// Origin header pass through untouched. Disallowed origins get 403.
func CORS(origins, suffixes []string) func(http.Handler) http.Handler {
	allowed := func(origin string) bool {
		if slices.Contains(origins, origin) {
			return true
		}
		for _, s := range suffixes {
			if s != "" && strings.HasSuffix(origin, s) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			if !allowed(origin) {
				writeJSONError(w, http.StatusForbidden, "origin not allowed")
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-Id")
			w.Header().Set("Access-Control-Max-Age", "86400")

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
