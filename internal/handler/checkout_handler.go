package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/infra/stripe"
	"github.com/colespa/colespa-api/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Checkout — validación, intents de pago y confirmación
// ============================================================

type validateRequest struct {
	Section string                 `json:"section"`
	Form    *domain.ClientFormData `json:"form"`
}

// POST /v1/checkout/validate — pure per-section validation for the form
// steps. Never touches a vendor.
func checkoutValidateHandler(svc *service.CheckoutService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/checkout/validate")
		defer span.End()

		var req validateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Form == nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		span.SetAttributes(attribute.String("section", req.Section))

		if err := svc.ValidateSection(req.Section, req.Form); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"valid": true})
	}
}

type intentRequest struct {
	ItemType     string `json:"item_type"` // package | service
	CatalogID    string `json:"catalog_id"`
	ReceiptEmail string `json:"receipt_email,omitempty"`
}

// POST /v1/payment-intents (+ legacy aliases). The amount comes from the
// catalog table; a client-sent price is never read.
func createPaymentIntentHandler(svc *service.CheckoutService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/payment-intents")
		defer span.End()

		var req intentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		span.SetAttributes(attribute.String("catalog.id", req.CatalogID))

		intent, err := svc.CreatePaymentIntent(ctx, req.ItemType, req.CatalogID, req.ReceiptEmail)
		if err != nil {
			var notFound *domain.ErrNotFound
			if errors.As(err, &notFound) {
				handleServiceError(w, err, logger)
				return
			}
			logger.Error("payment intent creation failed", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":     "No se pudo preparar el pago",
				"retryable": true,
			})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"payment_intent_id": intent.ID,
			"client_secret":     intent.ClientSecret,
			"amount":            intent.Amount,
			"currency":          intent.Currency,
		})
	}
}

type confirmRequest struct {
	PaymentIntentID string                 `json:"payment_intent_id"`
	ItemType        string                 `json:"item_type"`
	CatalogID       string                 `json:"catalog_id"`
	Form            *domain.ClientFormData `json:"form"`
}

// POST /v1/checkout/confirm (alias POST /v1/clients) — the end of the
// pipeline: confirm the charge, then persist the record.
func checkoutConfirmHandler(svc *service.CheckoutService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/checkout/confirm")
		defer span.End()

		var req confirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Form == nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}
		if req.PaymentIntentID == "" {
			writeError(w, http.StatusBadRequest, "payment_intent_id es obligatorio")
			return
		}
		span.SetAttributes(attribute.String("intent_id", req.PaymentIntentID))

		result, err := svc.ConfirmAndRecord(ctx, req.PaymentIntentID, req.Form, req.ItemType, req.CatalogID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

// POST /v1/webhooks/stripe — signature-checked processor callbacks.
func stripeWebhookHandler(svc *service.CheckoutService, webhookSecret string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/webhooks/stripe")
		defer span.End()

		// An empty key would verify anyone's HMAC. Without the secret the
		// endpoint does not accept events at all.
		if webhookSecret == "" {
			writeError(w, http.StatusServiceUnavailable, "webhook no disponible: secreto no configurado")
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			writeError(w, http.StatusBadRequest, "cuerpo de la petición inválido")
			return
		}

		event, err := stripe.ParseEvent(payload, r.Header.Get("Stripe-Signature"), webhookSecret, time.Now())
		if err != nil {
			logger.Warn("webhook signature rejected", zap.Error(err))
			writeError(w, http.StatusBadRequest, "firma inválida")
			return
		}
		span.SetAttributes(attribute.String("event.type", event.Type))

		if event.Type == "payment_intent.succeeded" {
			var obj struct {
				ID             string `json:"id"`
				AmountReceived int64  `json:"amount_received"`
				Currency       string `json:"currency"`
				Customer       string `json:"customer"`
			}
			if err := json.Unmarshal(event.Data.Object, &obj); err != nil || obj.ID == "" {
				writeError(w, http.StatusBadRequest, "evento inválido")
				return
			}
			intent := &domain.PaymentIntent{
				ID:         obj.ID,
				Amount:     obj.AmountReceived,
				Currency:   obj.Currency,
				CustomerID: obj.Customer,
			}
			if err := svc.HandlePaymentSucceeded(ctx, intent); err != nil {
				handleServiceError(w, err, logger)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
	}
}

// GET /v1/admin/clients/reconcile — read-only orphan report.
func reconcileHandler(svc *service.CheckoutService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/clients/reconcile")
		defer span.End()

		since := time.Now().Add(-30 * 24 * time.Hour)
		if v := r.URL.Query().Get("since"); v != "" {
			parsed, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "since debe ser RFC3339")
				return
			}
			since = parsed
		}

		report, err := svc.ReconcilePayments(ctx, since)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
