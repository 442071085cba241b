package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colespa/colespa-api/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const clientsCollection = "clients"

// High private-use codepoint used for prefix range queries: everything with
// the given prefix sorts below prefix+"\uf8ff".
const prefixUpperBound = "\uf8ff"

// --- Client record store (implements port.ClientStore) ---

// CreateClient persists a full client record. The record is validated first;
// a validation failure aborts the write.
func (c *Client) CreateClient(ctx context.Context, rec *domain.ClientRecord) error {
	ctx, span := tracer.Start(ctx, "Firestore.CreateClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", rec.ID))

	if err := rec.Validate(); err != nil {
		return err
	}
	if err := c.createDoc(ctx, clientsCollection, rec.ID, rec); err != nil {
		return &domain.ErrExternalService{Service: "firestore/clients", Err: err}
	}
	return nil
}

// GetClient fetches a record by id, validating it on the way out.
func (c *Client) GetClient(ctx context.Context, id string) (*domain.ClientRecord, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	var rec domain.ClientRecord
	found, err := c.getDoc(ctx, clientsCollection, id, &rec)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "firestore/clients", Err: err}
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "client", ID: id}
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("stored client %s is invalid: %w", id, err)
	}
	return &rec, nil
}

// UpdateClientStripeData attaches a payment outcome to an existing record.
func (c *Client) UpdateClientStripeData(ctx context.Context, id string, data *domain.StripeData) error {
	ctx, span := tracer.Start(ctx, "Firestore.UpdateClientStripeData")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	if data == nil || data.PaymentIntentID == "" {
		return &domain.ErrValidation{Field: "stripe_data", Message: "datos de pago incompletos"}
	}
	if err := c.patchDoc(ctx, clientsCollection, id, map[string]any{"stripe_data": data}); err != nil {
		return &domain.ErrExternalService{Service: "firestore/clients", Err: err}
	}
	return c.touchMetadata(ctx, id, nil)
}

// UpdateClientStatus sets metadata.status. The service layer enforces
// transition direction before calling here.
func (c *Client) UpdateClientStatus(ctx context.Context, id, status string) error {
	if !domain.ValidClientStatus(status) {
		return &domain.ErrValidation{Field: "status", Message: "estado desconocido"}
	}
	return c.touchMetadata(ctx, id, func(m *domain.ClientMetadata) { m.Status = status })
}

// UpdateClientPriority sets metadata.priority.
func (c *Client) UpdateClientPriority(ctx context.Context, id, priority string) error {
	return c.touchMetadata(ctx, id, func(m *domain.ClientMetadata) { m.Priority = priority })
}

// AssignAgent sets metadata.assigned_agent.
func (c *Client) AssignAgent(ctx context.Context, id, agentID string) error {
	return c.touchMetadata(ctx, id, func(m *domain.ClientMetadata) { m.AssignedAgent = agentID })
}

// touchMetadata rewrites the whole metadata map after applying mutate.
// Read-modify-write on a single document: last write wins, which is the
// database's own guarantee and all this flow relies on.
func (c *Client) touchMetadata(ctx context.Context, id string, mutate func(*domain.ClientMetadata)) error {
	rec, err := c.GetClient(ctx, id)
	if err != nil {
		return err
	}
	if mutate != nil {
		mutate(&rec.Metadata)
	}
	rec.Metadata.UpdatedAt = time.Now().UTC()
	if err := c.patchDoc(ctx, clientsCollection, id, map[string]any{"metadata": rec.Metadata}); err != nil {
		return &domain.ErrExternalService{Service: "firestore/clients", Err: err}
	}
	return nil
}

// GetClientsByEmail lists records whose personal email matches exactly.
func (c *Client) GetClientsByEmail(ctx context.Context, email string) ([]domain.ClientRecord, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetClientsByEmail")
	defer span.End()

	return c.queryClients(ctx, []queryFilter{
		{Field: "personal_info.email", Op: "EQUAL", Value: email},
	}, "", 0)
}

// GetRecentClients lists the most recently created records.
func (c *Client) GetRecentClients(ctx context.Context, limit int) ([]domain.ClientRecord, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetRecentClients")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	return c.queryClients(ctx, nil, "metadata.created_at", limit)
}

// GetClientsByStatus lists records in the given workflow status.
func (c *Client) GetClientsByStatus(ctx context.Context, status string) ([]domain.ClientRecord, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetClientsByStatus")
	defer span.End()
	span.SetAttributes(attribute.String("status", status))

	return c.queryClients(ctx, []queryFilter{
		{Field: "metadata.status", Op: "EQUAL", Value: status},
	}, "", 0)
}

// GetClientsByServiceType lists records by purchased item type (package or
// service).
func (c *Client) GetClientsByServiceType(ctx context.Context, serviceType string) ([]domain.ClientRecord, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetClientsByServiceType")
	defer span.End()

	return c.queryClients(ctx, []queryFilter{
		{Field: "service_info.type", Op: "EQUAL", Value: serviceType},
	}, "", 0)
}

// GetClientsByAgent lists records assigned to an agent.
func (c *Client) GetClientsByAgent(ctx context.Context, agentID string) ([]domain.ClientRecord, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetClientsByAgent")
	defer span.End()

	return c.queryClients(ctx, []queryFilter{
		{Field: "metadata.assigned_agent", Op: "EQUAL", Value: agentID},
	}, "", 0)
}

// SearchClients performs a prefix match on the personal email. This is the
// only search the store offers — no full-text.
func (c *Client) SearchClients(ctx context.Context, emailPrefix string) ([]domain.ClientRecord, error) {
	ctx, span := tracer.Start(ctx, "Firestore.SearchClients")
	defer span.End()

	if emailPrefix == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "el prefijo de búsqueda es obligatorio"}
	}
	return c.queryClients(ctx, []queryFilter{
		{Field: "personal_info.email", Op: "GREATER_THAN_OR_EQUAL", Value: emailPrefix},
		{Field: "personal_info.email", Op: "LESS_THAN", Value: emailPrefix + prefixUpperBound},
	}, "", 0)
}

// GetAllClients returns every record. Used by the payment-stats scan; the
// document database offers no server-side aggregation.
func (c *Client) GetAllClients(ctx context.Context) ([]domain.ClientRecord, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetAllClients")
	defer span.End()

	return c.queryClients(ctx, nil, "", 0)
}

func (c *Client) queryClients(ctx context.Context, filters []queryFilter, orderBy string, limit int) ([]domain.ClientRecord, error) {
	direction := ""
	if orderBy != "" {
		direction = "DESCENDING"
	}

	var records []domain.ClientRecord
	err := c.runQuery(ctx, clientsCollection, filters, orderBy, direction, limit, func(fields map[string]json.RawMessage) error {
		var rec domain.ClientRecord
		if err := decodeStruct(fields, &rec); err != nil {
			return fmt.Errorf("decode client: %w", err)
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("stored client %s is invalid: %w", rec.ID, err)
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "firestore/clients", Err: err}
	}
	return records, nil
}
