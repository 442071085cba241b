package handler

import (
	"encoding/json"
	"net/http"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Perfil — GET /v1/auth/profile & administración de usuarios
// ============================================================

// GET /v1/auth/profile — the middleware already resolved (or created) the
// profile, the handler just returns it.
func getProfileHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/auth/profile")
		defer span.End()

		profile := ProfileFromContext(r.Context())
		if profile == nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Debes iniciar sesión", Redirect: "/login"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"profile":      profile,
			"landing_path": profile.Role.LandingPath(),
		})
	}
}

// PATCH /v1/auth/profile — self-service fields only.
func updateProfileHandler(svc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/auth/profile")
		defer span.End()

		profile := ProfileFromContext(r.Context())
		if profile == nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Debes iniciar sesión", Redirect: "/login"})
			return
		}

		var updates map[string]any
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		if err := svc.UpdateProfile(ctx, profile.ID, updates); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true})
	}
}

// GET /v1/admin/users[?role=] — admin user listing.
func listUsersHandler(svc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/users")
		defer span.End()

		users, err := svc.ListUsers(ctx, r.URL.Query().Get("role"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users, "count": len(users)})
	}
}

// PATCH /v1/admin/users/{userId}/role — role assignment.
func updateRoleHandler(svc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/users/{userId}/role")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		span.SetAttributes(attribute.String("user.id", userID))

		var req struct {
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		role, err := domain.ParseRole(req.Role)
		if err != nil {
			writeError(w, http.StatusBadRequest, "rol desconocido")
			return
		}
		if err := svc.SetRole(ctx, userID, role); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true, "role": role})
	}
}

// POST /v1/admin/users/{userId}/credits — grant ad credits.
func grantCreditsHandler(svc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/users/{userId}/credits")
		defer span.End()

		userID := chi.URLParam(r, "userId")
		var req struct {
			Amount int `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		if err := svc.GrantCredits(ctx, userID, req.Amount); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"granted": req.Amount})
	}
}
