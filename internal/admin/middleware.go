package admin

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// nonceHeader carries the anti-forgery nonce on mutating requests.
const nonceHeader = "X-Admin-Nonce"

// requestLogger attaches a request id and logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.Must(uuid.NewV7()).String()
		w.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String())
	})
}

// bearerToken extracts the bearer token from the Authorization
// header, or "" when absent.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// requireCapability rejects requests whose bearer token does not hold
// the capability. The token itself is never logged.
func (s *Server) requireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" || !s.auth.Can(token, capability) {
				writeUnauthorized(w, "insufficient capability")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireNonce rejects mutating requests without a valid anti-forgery
// nonce bound to the same bearer token.
func (s *Server) requireNonce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce := r.Header.Get(nonceHeader)
		if nonce == "" || !s.auth.CheckNonce(bearerToken(r), nonce) {
			writeUnauthorized(w, "invalid or expired nonce")
			return
		}
		next.ServeHTTP(w, r)
	})
}
