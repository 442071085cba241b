package service

import (
	"context"
	"fmt"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var clientsTracer = otel.Tracer("service/clients")

// ClientService is the CRM over persisted client records: listings, filters,
// the status workflow and the payment-stats scan.
type ClientService struct {
	store  port.ClientStore
	logger *zap.Logger
}

func NewClientService(store port.ClientStore, logger *zap.Logger) *ClientService {
	return &ClientService{store: store, logger: logger}
}

func (s *ClientService) GetClient(ctx context.Context, id string) (*domain.ClientRecord, error) {
	ctx, span := clientsTracer.Start(ctx, "ClientService.GetClient")
	defer span.End()

	return s.store.GetClient(ctx, id)
}

// ListClients dispatches to the filter the query names. Exactly one filter
// applies per call; with none, the most recent records are returned.
func (s *ClientService) ListClients(ctx context.Context, filter, value string, limit int) ([]domain.ClientRecord, error) {
	ctx, span := clientsTracer.Start(ctx, "ClientService.ListClients")
	defer span.End()
	span.SetAttributes(attribute.String("filter", filter))

	switch filter {
	case "":
		return s.store.GetRecentClients(ctx, limit)
	case "email":
		return s.store.GetClientsByEmail(ctx, value)
	case "status":
		if !domain.ValidClientStatus(value) {
			return nil, &domain.ErrValidation{Field: "status", Message: "estado desconocido"}
		}
		return s.store.GetClientsByStatus(ctx, value)
	case "service_type":
		return s.store.GetClientsByServiceType(ctx, value)
	case "agent":
		return s.store.GetClientsByAgent(ctx, value)
	default:
		return nil, &domain.ErrValidation{Field: "filter", Message: "filtro desconocido"}
	}
}

// SearchClients performs an email prefix search.
func (s *ClientService) SearchClients(ctx context.Context, prefix string) ([]domain.ClientRecord, error) {
	ctx, span := clientsTracer.Start(ctx, "ClientService.SearchClients")
	defer span.End()

	return s.store.SearchClients(ctx, prefix)
}

// UpdateStatus moves a record through the workflow. Illegal transitions
// (backwards moves, leaving a terminal state) are rejected with a conflict.
func (s *ClientService) UpdateStatus(ctx context.Context, id, status string) error {
	ctx, span := clientsTracer.Start(ctx, "ClientService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id), attribute.String("status", status))

	if !domain.ValidClientStatus(status) {
		return &domain.ErrValidation{Field: "status", Message: "estado desconocido"}
	}
	current, err := s.store.GetClient(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanTransitionTo(current.Metadata.Status, status) {
		return &domain.ErrConflict{
			Message: fmt.Sprintf("transición de estado no permitida: %s → %s", current.Metadata.Status, status),
		}
	}
	if err := s.store.UpdateClientStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("client status updated",
		zap.String("client_id", id),
		zap.String("from", current.Metadata.Status),
		zap.String("to", status),
	)
	return nil
}

// UpdatePriority sets the triage priority of a record.
func (s *ClientService) UpdatePriority(ctx context.Context, id, priority string) error {
	ctx, span := clientsTracer.Start(ctx, "ClientService.UpdatePriority")
	defer span.End()

	switch priority {
	case domain.PriorityLow, domain.PriorityNormal, domain.PriorityHigh, domain.PriorityUrgent:
	default:
		return &domain.ErrValidation{Field: "priority", Message: "prioridad desconocida"}
	}
	return s.store.UpdateClientPriority(ctx, id, priority)
}

// AssignAgent assigns a record to an agent for follow-up.
func (s *ClientService) AssignAgent(ctx context.Context, id, agentID string) error {
	ctx, span := clientsTracer.Start(ctx, "ClientService.AssignAgent")
	defer span.End()

	if agentID == "" {
		return &domain.ErrValidation{Field: "agent_id", Message: "agente es obligatorio"}
	}
	return s.store.AssignAgent(ctx, id, agentID)
}

// GetPaymentStats aggregates every record client-side: totals, revenue and
// the per-status, per-service and per-month breakdowns the admin dashboard
// charts.
func (s *ClientService) GetPaymentStats(ctx context.Context) (*domain.PaymentStats, error) {
	ctx, span := clientsTracer.Start(ctx, "ClientService.GetPaymentStats")
	defer span.End()

	records, err := s.store.GetAllClients(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.PaymentStats{
		Currency:       "EUR",
		ByStatus:       make(map[string]int),
		ByServiceType:  make(map[string]int),
		RevenueByMonth: make(map[string]int64),
	}
	for _, r := range records {
		stats.TotalClients++
		stats.ByStatus[r.Metadata.Status]++
		stats.ByServiceType[r.ServiceInfo.Type]++
		if r.StripeData == nil {
			continue
		}
		stats.PaidClients++
		// AmountPaid is in cents as the processor reports it.
		stats.TotalRevenue += r.StripeData.AmountPaid / 100
		month := r.StripeData.PaidAt.Format("2006-01")
		stats.RevenueByMonth[month] += r.StripeData.AmountPaid / 100
	}
	return stats, nil
}
