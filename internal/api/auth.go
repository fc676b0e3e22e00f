package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// BearerAuth rejects requests whose Authorization header does not carry token.
func BearerAuth(token string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) || subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(token)) != 1 {
				logger.Warn("Rejected unauthenticated request", zap.String("path", r.URL.Path))
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
