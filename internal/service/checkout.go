package service

import (
	"context"
	"time"

	"github.com/colespa/colespa-api/internal/catalog"
	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/infra/observability"
	"github.com/colespa/colespa-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var checkoutTracer = otel.Tracer("service/checkout")

// CheckoutService drives the purchase pipeline: validate the form, open a
// payment intent with a server-derived amount, confirm the outcome and only
// then persist the client record.
type CheckoutService struct {
	payments port.PaymentProvider
	clients  port.ClientStore
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewCheckoutService(payments port.PaymentProvider, clients port.ClientStore, metrics *observability.Metrics, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{payments: payments, clients: clients, metrics: metrics, logger: logger}
}

// ValidateSection validates one step of the checkout form without touching
// the network. Section is personal_info, contact_info or consent.
func (s *CheckoutService) ValidateSection(section string, form *domain.ClientFormData) error {
	var errs domain.FieldErrors
	switch section {
	case "personal_info":
		errs = form.ValidatePersonalInfo()
	case "contact_info":
		errs = form.ValidateContactInfo()
	case "consent":
		errs = form.ValidateConsent()
	default:
		return &domain.ErrValidation{Field: "section", Message: "sección desconocida"}
	}
	if len(errs) > 0 {
		return &domain.ErrFormValidation{Section: section, Fields: errs}
	}
	return nil
}

// validateAll runs every section gate in form order and stops at the first
// failing one, mirroring how the form advances.
func (s *CheckoutService) validateAll(form *domain.ClientFormData) error {
	for _, section := range []string{"personal_info", "contact_info", "consent"} {
		if err := s.ValidateSection(section, form); err != nil {
			return err
		}
	}
	return nil
}

// CreatePaymentIntent opens an intent for a catalog item. The amount is read
// from the catalog table; whatever the client sent for price is ignored.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, itemType, catalogID, receiptEmail string) (*domain.PaymentIntent, error) {
	ctx, span := checkoutTracer.Start(ctx, "CheckoutService.CreatePaymentIntent")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.id", catalogID), attribute.String("catalog.type", itemType))

	price, currency, ok := catalog.PriceOf(itemType, catalogID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "catalog_item", ID: catalogID}
	}

	intent, err := s.payments.CreateIntent(ctx, price, currency, receiptEmail, catalogID)
	if err != nil {
		s.metrics.IncrExternalError("stripe")
		return nil, err
	}
	s.metrics.IncrPaymentEvent("intent_created")
	return intent, nil
}

// ConfirmResult is the outcome of a confirmed purchase.
type ConfirmResult struct {
	ClientID    string `json:"client_id"`
	IntentID    string `json:"payment_intent_id"`
	RecordSaved bool   `json:"record_saved"`
}

// ConfirmAndRecord checks the intent's terminal status and, on success,
// persists the client record. The order is strict: no record exists before
// the payment succeeded. If persistence fails after a successful charge the
// money has still moved, so the failure is logged loudly and the purchase is
// reported as successful with RecordSaved=false; the reconciliation scan
// surfaces the orphan later.
func (s *CheckoutService) ConfirmAndRecord(ctx context.Context, intentID string, form *domain.ClientFormData, itemType, catalogID string) (*ConfirmResult, error) {
	ctx, span := checkoutTracer.Start(ctx, "CheckoutService.ConfirmAndRecord")
	defer span.End()
	span.SetAttributes(attribute.String("intent_id", intentID))

	if err := s.validateAll(form); err != nil {
		return nil, err
	}
	item, ok := catalog.Find(itemType, catalogID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "catalog_item", ID: catalogID}
	}

	intent, err := s.payments.GetIntent(ctx, intentID)
	if err != nil {
		s.metrics.IncrExternalError("stripe")
		return nil, err
	}

	// The intent must be the one opened for this catalog item: a succeeded
	// charge for a cheaper item must not confirm a pricier one. The intent
	// carries the catalog id in its metadata and the amount it was opened
	// with, both set server-side at creation.
	if intent.CatalogID != item.ID || intent.Amount != item.Price*100 {
		s.metrics.IncrPaymentEvent("item_mismatch")
		s.logger.Warn("intent does not match the claimed catalog item",
			zap.String("intent_id", intent.ID),
			zap.String("intent_catalog_id", intent.CatalogID),
			zap.String("claimed_catalog_id", item.ID),
			zap.Int64("intent_amount", intent.Amount),
			zap.Int64("expected_amount", item.Price*100),
		)
		return nil, &domain.ErrValidation{Field: "payment_intent_id", Message: "El pago no corresponde al servicio seleccionado."}
	}

	switch intent.Outcome() {
	case domain.PaymentSucceeded:
		s.metrics.IncrPaymentEvent("succeeded")
	case domain.PaymentRequiresAction:
		s.metrics.IncrPaymentEvent("requires_action")
		return nil, &domain.ErrPaymentFailed{IntentID: intentID, Reason: "El pago requiere un paso adicional de verificación. Inténtalo de nuevo."}
	default:
		s.metrics.IncrPaymentEvent("failed")
		return nil, &domain.ErrPaymentFailed{IntentID: intentID, Reason: intent.FailureReason}
	}

	// A replayed confirm for an already-recorded intent returns the existing
	// record instead of creating a duplicate.
	if existing, err := s.clients.GetAllClients(ctx); err == nil {
		for _, r := range existing {
			if r.StripeData != nil && r.StripeData.PaymentIntentID == intent.ID {
				s.metrics.IncrRecordOutcome("duplicate_confirm")
				return &ConfirmResult{ClientID: r.ID, IntentID: intent.ID, RecordSaved: true}, nil
			}
		}
	}

	now := time.Now().UTC()
	record := &domain.ClientRecord{
		ID:            uuid.NewString(),
		PersonalInfo:  form.PersonalInfo,
		ContactInfo:   form.ContactInfo,
		MigrationInfo: form.MigrationInfo,
		ServiceInfo: domain.ServiceInfo{
			Type:      item.Type,
			CatalogID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Currency:  item.Currency,
		},
		StripeData: &domain.StripeData{
			CustomerID:      intent.CustomerID,
			PaymentIntentID: intent.ID,
			PaymentStatus:   "paid",
			AmountPaid:      intent.Amount,
			Currency:        intent.Currency,
			PaidAt:          now,
		},
		Metadata: domain.ClientMetadata{
			CreatedAt: now,
			UpdatedAt: now,
			Source:    "web",
			Status:    domain.ClientStatusCompleted,
			Priority:  domain.PriorityNormal,
		},
	}

	result := &ConfirmResult{ClientID: record.ID, IntentID: intent.ID, RecordSaved: true}
	if err := s.clients.CreateClient(ctx, record); err != nil {
		// Money moved but the record did not land. Never fail the purchase
		// at this point; the orphan shows up in reconciliation.
		s.metrics.IncrRecordOutcome("persist_failed")
		s.logger.Error("client record lost after successful payment",
			zap.String("intent_id", intent.ID),
			zap.String("client_id", record.ID),
			zap.String("email", form.PersonalInfo.Email),
			zap.Error(err),
		)
		result.RecordSaved = false
		return result, nil
	}

	s.metrics.IncrRecordOutcome("persisted")
	s.logger.Info("purchase recorded",
		zap.String("intent_id", intent.ID),
		zap.String("client_id", record.ID),
		zap.String("catalog_id", item.ID),
	)
	return result, nil
}

// HandlePaymentSucceeded processes a payment_intent.succeeded webhook event.
// The event is the processor's authoritative view of the charge, so the
// matched record's stripe data is refreshed from it before the record moves
// to completed. No matching record is not an error, the confirm call usually
// wins the race with the webhook.
func (s *CheckoutService) HandlePaymentSucceeded(ctx context.Context, intent *domain.PaymentIntent) error {
	ctx, span := checkoutTracer.Start(ctx, "CheckoutService.HandlePaymentSucceeded")
	defer span.End()
	span.SetAttributes(attribute.String("intent_id", intent.ID))

	records, err := s.clients.GetAllClients(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.StripeData == nil || r.StripeData.PaymentIntentID != intent.ID {
			continue
		}

		confirmed := *r.StripeData
		if intent.Amount > 0 {
			confirmed.AmountPaid = intent.Amount
		}
		if intent.Currency != "" {
			confirmed.Currency = intent.Currency
		}
		if intent.CustomerID != "" {
			confirmed.CustomerID = intent.CustomerID
		}
		if confirmed != *r.StripeData {
			if err := s.clients.UpdateClientStripeData(ctx, r.ID, &confirmed); err != nil {
				return err
			}
		}

		if !domain.CanTransitionTo(r.Metadata.Status, domain.ClientStatusCompleted) {
			return nil
		}
		if err := s.clients.UpdateClientStatus(ctx, r.ID, domain.ClientStatusCompleted); err != nil {
			return err
		}
		s.logger.Info("record completed via webhook",
			zap.String("intent_id", intent.ID),
			zap.String("client_id", r.ID),
		)
		return nil
	}
	s.logger.Info("webhook for unknown intent", zap.String("intent_id", intent.ID))
	return nil
}

// ReconcilePayments lists recent succeeded charges at the processor and
// reports those with no matching client record. Read-only: fixing an orphan
// is a human decision.
func (s *CheckoutService) ReconcilePayments(ctx context.Context, since time.Time) (*domain.ReconciliationReport, error) {
	ctx, span := checkoutTracer.Start(ctx, "CheckoutService.ReconcilePayments")
	defer span.End()

	intents, err := s.payments.ListRecentIntents(ctx, since, 100)
	if err != nil {
		s.metrics.IncrExternalError("stripe")
		return nil, err
	}
	records, err := s.clients.GetAllClients(ctx)
	if err != nil {
		return nil, err
	}

	recorded := make(map[string]bool, len(records))
	for _, r := range records {
		if r.StripeData != nil {
			recorded[r.StripeData.PaymentIntentID] = true
		}
	}

	report := &domain.ReconciliationReport{GeneratedAt: time.Now().UTC()}
	for _, intent := range intents {
		if intent.Outcome() != domain.PaymentSucceeded {
			continue
		}
		report.CheckedIntents++
		if !recorded[intent.ID] {
			report.Orphaned = append(report.Orphaned, intent)
		}
	}
	if len(report.Orphaned) > 0 {
		s.logger.Warn("reconciliation found orphaned payments", zap.Int("count", len(report.Orphaned)))
	}
	return report, nil
}
