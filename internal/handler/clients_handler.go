package handler

import (
	"encoding/json"
	"net/http"

	"github.com/colespa/colespa-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// CRM de clientes — rutas /v1/admin/clients
// ============================================================

// GET /v1/admin/clients[?status=|service_type=|agent=|email=]
func listClientsHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/clients")
		defer span.End()

		q := r.URL.Query()
		filter, value := "", ""
		for _, name := range []string{"email", "status", "service_type", "agent"} {
			if v := q.Get(name); v != "" {
				filter, value = name, v
				break
			}
		}
		span.SetAttributes(attribute.String("filter", filter))

		records, err := svc.ListClients(ctx, filter, value, parseLimit(r, 20))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"clients": records, "count": len(records)})
	}
}

// GET /v1/admin/clients/recent
func recentClientsHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/clients/recent")
		defer span.End()

		records, err := svc.ListClients(ctx, "", "", parseLimit(r, 20))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"clients": records, "count": len(records)})
	}
}

// GET /v1/admin/clients/search?email=
func searchClientsHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/clients/search")
		defer span.End()

		prefix := r.URL.Query().Get("email")
		records, err := svc.SearchClients(ctx, prefix)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"clients": records, "count": len(records)})
	}
}

// GET /v1/admin/clients/{clientId}
func getClientHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/clients/{clientId}")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		span.SetAttributes(attribute.String("client.id", clientID))

		record, err := svc.GetClient(ctx, clientID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

// PATCH /v1/admin/clients/{clientId}/status
func updateClientStatusHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/clients/{clientId}/status")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		if err := svc.UpdateStatus(ctx, clientID, req.Status); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true, "status": req.Status})
	}
}

// PATCH /v1/admin/clients/{clientId}/priority
func updateClientPriorityHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/clients/{clientId}/priority")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		var req struct {
			Priority string `json:"priority"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		if err := svc.UpdatePriority(ctx, clientID, req.Priority); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true, "priority": req.Priority})
	}
}

// PATCH /v1/admin/clients/{clientId}/agent
func assignAgentHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/clients/{clientId}/agent")
		defer span.End()

		clientID := chi.URLParam(r, "clientId")
		var req struct {
			AgentID string `json:"agent_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		if err := svc.AssignAgent(ctx, clientID, req.AgentID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true, "agent_id": req.AgentID})
	}
}

// GET /v1/admin/clients/stats
func clientStatsHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/clients/stats")
		defer span.End()

		stats, err := svc.GetPaymentStats(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
