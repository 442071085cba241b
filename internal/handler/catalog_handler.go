package handler

import (
	"net/http"

	"github.com/colespa/colespa-api/internal/catalog"

	"go.uber.org/zap"
)

// ============================================================
// Catálogo — GET /v1/catalog/packages, GET /v1/catalog/services
// ============================================================

func listPackagesHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/catalog/packages")
		defer span.End()

		writeJSON(w, http.StatusOK, map[string]any{"packages": catalog.Packages()})
	}
}

func listServicesHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/catalog/services")
		defer span.End()

		writeJSON(w, http.StatusOK, map[string]any{"services": catalog.Services()})
	}
}
