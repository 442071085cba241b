package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const profileKey contextKey = "profile"

// AuthMiddleware validates Bearer tokens against the identity provider's
// signing key and injects the resolved profile into the request context. The
// profile is created on first sign-in, so every authenticated request has
// one.
func AuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Debes iniciar sesión", Redirect: "/login"})
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Formato de token inválido", Redirect: "/login"})
				return
			}

			profile, err := authSvc.ResolveProfile(r.Context(), parts[1])
			if err != nil {
				logger.Warn("auth: token rejected",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), profileKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProfileFromContext extracts the authenticated profile from context.
func ProfileFromContext(ctx context.Context) *domain.UserProfile {
	p, _ := ctx.Value(profileKey).(*domain.UserProfile)
	return p
}

// RequireRole gates a route group behind a role. The check is the pure
// superset rule: admin passes every gate. The rejection carries the caller's
// own landing page so the frontend can send them somewhere useful.
func RequireRole(required domain.Role, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := ProfileFromContext(r.Context())
			if profile == nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Debes iniciar sesión", Redirect: "/login"})
				return
			}
			if !profile.Role.Allows(required) {
				logger.Warn("role gate rejected",
					zap.String("user_id", profile.ID),
					zap.String("role", string(profile.Role)),
					zap.String("required", string(required)),
					zap.String("path", r.URL.Path),
				)
				handleServiceError(w, &domain.ErrForbidden{
					Required: required,
					Redirect: profile.Role.LandingPath(),
				}, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
