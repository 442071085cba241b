package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/colespa/colespa-api/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error    string             `json:"error"`
	Fields   domain.FieldErrors `json:"fields,omitempty"`
	Redirect string             `json:"redirect,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func parseLimit(r *http.Request, fallback int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > 100 {
		return fallback
	}
	return n
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var validation *domain.ErrValidation
	var formValidation *domain.ErrFormValidation
	var unauthorized *domain.ErrUnauthorized
	var forbidden *domain.ErrForbidden
	var paymentFailed *domain.ErrPaymentFailed
	var insufficientCredits *domain.ErrInsufficientCredits
	var conflict *domain.ErrConflict
	var generationFailed *domain.ErrGenerationFailed
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Servicio temporalmente no disponible")
	case errors.As(err, &formValidation):
		logger.Debug("form validation error", zap.String("section", formValidation.Section))
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "Hay errores en el formulario",
			Fields: formValidation.Fields,
		})
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Redirect: "/login"})
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error(), Redirect: forbidden.Redirect})
	case errors.As(err, &paymentFailed):
		logger.Warn("payment failed",
			zap.String("intent_id", paymentFailed.IntentID),
			zap.String("reason", paymentFailed.Reason),
		)
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.As(err, &insufficientCredits):
		logger.Warn("insufficient credits",
			zap.Int("available", insufficientCredits.Available),
			zap.Int("required", insufficientCredits.Required),
		)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &generationFailed):
		logger.Error("content generation failed", zap.String("stage", generationFailed.Stage), zap.Error(err))
		writeError(w, http.StatusBadGateway, "No se pudo generar el contenido. Inténtalo de nuevo.")
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, "Servicio externo no disponible")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
