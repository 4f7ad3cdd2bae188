package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// CORSConfig holds the cross-origin policy for the content API.
type CORSConfig struct {
	// AllowedOrigins is the exact-match origin allowlist, typically the
	// two frontend deployments.
	AllowedOrigins []string
	// AllowLocalhost additionally accepts any localhost or 127.0.0.1
	// origin on any port, for frontend development.
	AllowLocalhost bool
}

// DefaultCORSConfig allows only localhost origins; production origins come
// from configuration.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{AllowLocalhost: true}
}

var localhostOrigin = regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1)(:\d+)?$`)

func (c CORSConfig) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range c.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return c.AllowLocalhost && localhostOrigin.MatchString(origin)
}

// CORS returns middleware applying the origin allowlist. Preflight OPTIONS
// requests are answered immediately with 200. The pagination headers are
// exposed so browser clients can read them.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if config.originAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Expose-Headers", "X-WP-Total, X-WP-TotalPages")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
