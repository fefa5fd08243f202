package middleware

import (
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"
)

// SecurityConfig holds configuration for security headers.
type SecurityConfig struct {
	// IsDevelopment disables HSTS in dev environments.
	IsDevelopment bool
}

// Security returns a middleware that applies security headers to all responses.
// This middleware should be applied early in the chain.
//
// Headers applied:
//   - Cache-Control: no-store
//   - X-Content-Type-Options: nosniff
//   - X-Frame-Options: DENY
//   - Referrer-Policy: no-referrer
//   - Strict-Transport-Security, outside development only
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			// === Mock data is never cached ===
			h.Set("Cache-Control", "no-store")

			// === Prevent MIME sniffing and framing ===
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")

			// === HSTS (only outside development) ===
			if !cfg.IsDevelopment {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodySize returns a middleware that limits request body size.
//
// Requests declaring a larger Content-Length are rejected up front with 413.
// Otherwise the body is wrapped in http.MaxBytesReader, and handlers detect
// overflow with IsBodyTooLarge.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Reject declared oversize bodies before reading anything
			if r.ContentLength > maxBytes {
				writeJSONError(w, http.StatusRequestEntityTooLarge, bodyTooLargeMessage(maxBytes))
				return
			}

			// Wrap body with MaxBytesReader for chunked bodies
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IsBodyTooLarge reports whether err came from exceeding a MaxBodySize limit.
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// TooLargeMessage returns the 413 error text for a MaxBodySize overflow,
// naming the limit that was hit.
func TooLargeMessage(err error) string {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return bodyTooLargeMessage(maxErr.Limit)
	}
	return "request body too large"
}

func bodyTooLargeMessage(limit int64) string {
	return "request body exceeds " + humanize.IBytes(uint64(limit))
}
