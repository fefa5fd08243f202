package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds CORS configuration options.
type CORSConfig struct {
	// AllowAnyOrigin reflects whatever Origin the request carries.
	// AllowedOrigins is ignored when set.
	AllowAnyOrigin bool

	// AllowedOrigins is a list of origins allowed to make cross-origin requests.
	// Entries like "*.example.com" match any subdomain.
	AllowedOrigins []string

	// AllowedMethods specifies the allowed HTTP methods.
	AllowedMethods []string

	// AllowedHeaders specifies the allowed request headers. When empty the
	// preflight's Access-Control-Request-Headers are echoed back.
	AllowedHeaders []string

	// ExposedHeaders specifies which headers the browser can access.
	ExposedHeaders []string

	// AllowCredentials indicates whether credentials (cookies, auth) are allowed.
	AllowCredentials bool

	// MaxAge is the value for Access-Control-Max-Age header (in seconds).
	MaxAge int
}

// DefaultCORSConfig reflects any origin and allows credentials, which is
// what a local mock backend for browser clients needs.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowAnyOrigin:   true,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE"},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

// CORS returns a middleware that handles Cross-Origin Resource Sharing,
// including preflight OPTIONS requests.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	methodsStr := strings.Join(cfg.AllowedMethods, ", ")
	headersStr := strings.Join(cfg.AllowedHeaders, ", ")
	exposedStr := strings.Join(cfg.ExposedHeaders, ", ")
	maxAgeStr := ""
	if cfg.MaxAge > 0 {
		maxAgeStr = strconv.Itoa(cfg.MaxAge)
	}

	originMap := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		originMap[strings.ToLower(origin)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// No Origin header = same-origin request, skip CORS
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			// Check if origin is allowed
			if !cfg.AllowAnyOrigin && !isOriginAllowed(origin, originMap, cfg.AllowedOrigins) {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				// Browser will block the response
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)

			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if exposedStr != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposedStr)
			}

			// Handle preflight request
			if preflight {
				w.Header().Set("Access-Control-Allow-Methods", methodsStr)

				if headersStr != "" {
					w.Header().Set("Access-Control-Allow-Headers", headersStr)
				} else if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
					w.Header().Add("Vary", "Access-Control-Request-Headers")
					w.Header().Set("Access-Control-Allow-Headers", requested)
				}

				if maxAgeStr != "" {
					w.Header().Set("Access-Control-Max-Age", maxAgeStr)
				}

				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isOriginAllowed checks if the given origin is in the allowed list.
func isOriginAllowed(origin string, originMap map[string]bool, allowedOrigins []string) bool {
	if len(allowedOrigins) == 0 {
		return false
	}

	normalizedOrigin := strings.ToLower(origin)
	if originMap[normalizedOrigin] {
		return true
	}

	// Wildcard subdomain patterns like "*.example.com"
	for _, allowed := range allowedOrigins {
		if !strings.HasPrefix(allowed, "*.") {
			continue
		}
		suffix := strings.ToLower(strings.TrimPrefix(allowed, "*"))
		if !strings.HasSuffix(normalizedOrigin, suffix) {
			continue
		}
		// "*.example.com" matches "https://sub.example.com" but not "https://notexample.com"
		prefix := strings.TrimSuffix(normalizedOrigin, suffix)
		if strings.Contains(prefix, "://") && !strings.HasSuffix(prefix, "://") {
			return true
		}
	}

	return false
}
