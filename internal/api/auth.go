package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/santapalabra/scripture/internal/logging"
)

// MinAPIKeyLength is the shortest accepted API key.
const MinAPIKeyLength = 16

// AuthMiddleware requires the X-API-Key header on every request except the
// public endpoints. An empty key disables authentication.
func AuthMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get("X-API-Key")
		if key == "" {
			logging.SecurityEvent("unauthorized_request", "auth",
				"path", r.URL.Path,
				"reason", "missing API key",
				"client_ip", getClientIP(r))
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing X-API-Key header")
			return
		}
		if !constantTimeCompare(key, apiKey) {
			logging.SecurityEvent("unauthorized_request", "auth",
				"path", r.URL.Path,
				"reason", "invalid API key",
				"client_ip", getClientIP(r))
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isPublicEndpoint reports whether path is reachable without a key.
func isPublicEndpoint(path string) bool {
	switch path {
	case "/", "/health", "/metrics":
		return true
	}
	return false
}

// ValidateAPIKey rejects keys too short to resist guessing.
func ValidateAPIKey(key string) error {
	if key != "" && len(key) < MinAPIKeyLength {
		return fmt.Errorf("API key must be at least %d characters (got %d)", MinAPIKeyLength, len(key))
	}
	return nil
}

func constantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
