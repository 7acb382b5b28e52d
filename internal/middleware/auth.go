package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"inkfold/internal/auth"
	"inkfold/internal/httputil"
)

// AuthConfig configures the JWT middleware
type AuthConfig struct {
	Verifier auth.JWTVerifier

	// DefaultAdminEmail is always treated as an admin
	DefaultAdminEmail string

	// PublicPaths skip authentication. An entry ending in "/" matches
	// the whole subtree.
	PublicPaths []string

	Logger *slog.Logger
}

// AuthMiddleware verifies the Supabase access token and stores the user in
// the request context. Browsers cannot set headers on WebSocket upgrades,
// so the token is also accepted as the access_token query parameter.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isPublic(r.URL.Path, cfg.PublicPaths) {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("access_token")
			}
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing access token")
				return
			}

			claims, err := cfg.Verifier.VerifyToken(token)
			if err != nil {
				cfg.Logger.Debug("authentication failed",
					"path", r.URL.Path,
					"error", err,
				)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			user := claims.ToUser(cfg.DefaultAdminEmail)
			next.ServeHTTP(w, r.WithContext(httputil.WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin rejects requests whose user is not an admin
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := httputil.GetUser(r)
		if user == nil {
			httputil.RespondError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		if !user.IsAdmin() {
			httputil.RespondError(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func isPublic(path string, public []string) bool {
	for _, p := range public {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}
