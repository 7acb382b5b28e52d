package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"inkfold/internal/httputil"
)

// APIKeyHeader carries the shared secret of the ingestion API
const APIKeyHeader = "x-api-key"

// RequireAPIKey admits requests whose x-api-key header equals secret. An
// empty secret rejects everything.
func RequireAPIKey(secret string, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !secretMatches(secret, r.Header.Get(APIKeyHeader)) {
				logger.Warn("rejected ingestion request", "path", r.URL.Path, "remote", r.RemoteAddr)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			next(w, r)
		}
	}
}

// RequireBearerSecret admits requests whose bearer token equals secret.
// Used by the scheduled keep-alive caller.
func RequireBearerSecret(secret string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !secretMatches(secret, bearerToken(r)) {
				httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next(w, r)
		}
	}
}

func secretMatches(secret, got string) bool {
	if secret == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(got)) == 1
}
