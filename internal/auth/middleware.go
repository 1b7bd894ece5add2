// middleware.go - HTTP authentication middleware for the MCP server.
//
// This file provides bearer-token middleware for securing the Flowise MCP
// server when running in streamable HTTP mode. The middleware validates
// Bearer tokens in the Authorization header against a configured token value.
//
// Key Features:
// - Simple bearer token validation using string comparison
// - Authentication bypass for health check endpoints
// - Logging of authentication attempts
// - Standards-compliant HTTP responses for authentication failures
//
// Security Considerations:
// - Bearer tokens should be transmitted over HTTPS only in production
// - Authentication is only applied to HTTP mode, not stdio mode
//
// Usage:
//   middleware := auth.BearerTokenMiddleware("your-secret-token")
//   handler := middleware(httpHandler)

package auth

import (
	"net/http"
	"strings"

	"github.com/gebl/flowise-mcp-server/internal/logging"
)

// BearerTokenMiddleware creates HTTP middleware that validates Bearer tokens
// against the provided expectedToken. Returns 401 Unauthorized for invalid
// or missing tokens.
func BearerTokenMiddleware(expectedToken string) func(http.Handler) http.Handler {
	logger := logging.AuthLogger

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health checks stay reachable without a token
			if r.URL.Path == "/health" || r.URL.Path == "/ping" {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Authentication failed: missing Authorization header",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method)
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			// Accept both "Bearer token" and raw "token" formats for
			// compatibility with some MCP clients.
			token := strings.TrimPrefix(authHeader, "Bearer ")

			if token == "" {
				logger.Warn("Authentication failed: empty token",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method)
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Token cannot be empty", http.StatusUnauthorized)
				return
			}

			if token != expectedToken {
				logger.Warn("Authentication failed: invalid Bearer token",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
					"token_length", len(token))
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			logger.Debug("Authentication successful",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
				"method", r.Method)

			next.ServeHTTP(w, r)
		})
	}
}
