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
// Anuncios — rutas /v1/advertiser, /v1/admin/ads y contadores públicos
// ============================================================

// POST /v1/advertiser/ads — creation charges credits server-side.
func createAdHandler(svc *service.AdService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/advertiser/ads")
		defer span.End()

		profile := ProfileFromContext(r.Context())
		var draft service.AdDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		span.SetAttributes(attribute.String("business.id", profile.ID))

		ad, err := svc.CreateAd(ctx, profile.ID, &draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, ad)
	}
}

// GET /v1/advertiser/ads — advertiser's own ads.
func listOwnAdsHandler(svc *service.AdService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/advertiser/ads")
		defer span.End()

		profile := ProfileFromContext(r.Context())
		ads, err := svc.ListByBusiness(ctx, profile.ID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ads": ads, "count": len(ads)})
	}
}

// GET /v1/advertiser/dashboard
func advertiserDashboardHandler(svc *service.AdService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/advertiser/dashboard")
		defer span.End()

		profile := ProfileFromContext(r.Context())
		dash, err := svc.GetDashboard(ctx, profile.ID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}

// GET /v1/ads — approved ads for the public site.
func listPublicAdsHandler(svc *service.AdService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ads")
		defer span.End()

		ads, err := svc.ListApproved(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ads": ads, "count": len(ads)})
	}
}

// GET /v1/admin/ads/pending — moderation queue.
func pendingAdsHandler(svc *service.AdService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/ads/pending")
		defer span.End()

		ads, err := svc.ListByStatus(ctx, domain.AdStatusPending)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ads": ads, "count": len(ads)})
	}
}

// PATCH /v1/admin/ads/{adId}/status — approve/reject/pause/expire.
func moderateAdHandler(svc *service.AdService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/ads/{adId}/status")
		defer span.End()

		adID := chi.URLParam(r, "adId")
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		if err := svc.Moderate(ctx, adID, req.Status); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": true, "status": req.Status})
	}
}

// POST /v1/ads/{adId}/impression and /v1/ads/{adId}/click — public counters.
func trackAdHandler(svc *service.AdService, counter string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ads/{adId}/"+counter)
		defer span.End()

		adID := chi.URLParam(r, "adId")
		span.SetAttributes(attribute.String("ad.id", adID))

		if err := svc.TrackEngagement(ctx, adID, counter+"s"); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tracked": true})
	}
}
