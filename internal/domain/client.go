package domain

import (
	"strings"
	"time"
)

// Client record status values. Transitions are one-directional:
// pending → processing → completed, or any non-terminal state → cancelled.
const (
	ClientStatusPending    = "pending"
	ClientStatusProcessing = "processing"
	ClientStatusCompleted  = "completed"
	ClientStatusCancelled  = "cancelled"
)

// Client priority values.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// PersonalInfo is the first section of the checkout form.
type PersonalInfo struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DocumentType   string `json:"document_type,omitempty"` // cedula | passport | nie
	DocumentNumber string `json:"document_number,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	BirthDate      string `json:"birth_date,omitempty"` // YYYY-MM-DD
}

// ContactInfo is the second section of the checkout form.
type ContactInfo struct {
	Address          string `json:"address"`
	City             string `json:"city"`
	Province         string `json:"province,omitempty"`
	PostalCode       string `json:"postal_code,omitempty"`
	Country          string `json:"country"`
	PreferredChannel string `json:"preferred_channel,omitempty"` // email | phone | whatsapp
}

// ServiceInfo records which catalog item the client is purchasing. Price and
// currency are always re-derived from the catalog server-side; a
// client-supplied amount is never trusted.
type ServiceInfo struct {
	Type      string `json:"type"` // package | service
	CatalogID string `json:"catalog_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"` // whole EUR
	Currency  string `json:"currency"`
	Urgency   string `json:"urgency,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// MigrationInfo is the optional questionnaire plus the two consent flags.
type MigrationInfo struct {
	CurrentStatus   string `json:"current_status,omitempty"` // in_colombia | in_spain | other
	TargetCity      string `json:"target_city,omitempty"`
	FamilySize      int    `json:"family_size,omitempty"`
	Timeframe       string `json:"timeframe,omitempty"`
	HasVisa         bool   `json:"has_visa,omitempty"`
	AcceptedTerms   bool   `json:"accepted_terms"`
	AcceptedPrivacy bool   `json:"accepted_privacy"`
}

// StripeData holds the payment outcome attached to a record. It is absent
// until a payment-confirmation call has returned success; a record must never
// be persisted with StripeData and no prior successful confirmation.
type StripeData struct {
	CustomerID      string    `json:"customer_id,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	PaymentIntentID string    `json:"payment_intent_id"`
	PaymentStatus   string    `json:"payment_status"` // paid
	AmountPaid      int64     `json:"amount_paid"`
	Currency        string    `json:"currency"`
	PaidAt          time.Time `json:"paid_at"`
}

// ClientMetadata carries bookkeeping fields for the CRM views.
type ClientMetadata struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Source        string    `json:"source,omitempty"` // web | referral | campaign
	Status        string    `json:"status"`
	Priority      string    `json:"priority"`
	AssignedAgent string    `json:"assigned_agent,omitempty"`
}

// ClientRecord is a persisted prospective-customer submission. It exists in
// memory as a draft during the checkout form steps and is only written to the
// store after payment confirmation succeeds — abandoned checkouts leave no
// record.
type ClientRecord struct {
	ID            string         `json:"id"`
	PersonalInfo  PersonalInfo   `json:"personal_info"`
	ContactInfo   ContactInfo    `json:"contact_info"`
	ServiceInfo   ServiceInfo    `json:"service_info"`
	MigrationInfo *MigrationInfo `json:"migration_info,omitempty"`
	StripeData    *StripeData    `json:"stripe_data,omitempty"`
	Metadata      ClientMetadata `json:"metadata"`
}

// ClientFormData is the in-memory draft collected by the checkout form,
// before an id, payment outcome or metadata exist.
type ClientFormData struct {
	PersonalInfo  PersonalInfo   `json:"personal_info"`
	ContactInfo   ContactInfo    `json:"contact_info"`
	MigrationInfo *MigrationInfo `json:"migration_info,omitempty"`
}

// FieldErrors maps form field names to human-readable (Spanish) messages.
type FieldErrors map[string]string

// ValidatePersonalInfo checks the required fields of the first form section.
// It performs no network calls; an empty map means the section may advance.
func (f *ClientFormData) ValidatePersonalInfo() FieldErrors {
	errs := FieldErrors{}
	p := f.PersonalInfo
	if strings.TrimSpace(p.FirstName) == "" {
		errs["first_name"] = "El nombre es obligatorio"
	}
	if strings.TrimSpace(p.LastName) == "" {
		errs["last_name"] = "El apellido es obligatorio"
	}
	if strings.TrimSpace(p.Email) == "" {
		errs["email"] = "El email es obligatorio"
	} else if !strings.Contains(p.Email, "@") {
		errs["email"] = "El email no es válido"
	}
	if strings.TrimSpace(p.Phone) == "" {
		errs["phone"] = "El teléfono es obligatorio"
	}
	return errs
}

// ValidateContactInfo checks the required fields of the second form section.
func (f *ClientFormData) ValidateContactInfo() FieldErrors {
	errs := FieldErrors{}
	c := f.ContactInfo
	if strings.TrimSpace(c.Address) == "" {
		errs["address"] = "La dirección es obligatoria"
	}
	if strings.TrimSpace(c.City) == "" {
		errs["city"] = "La ciudad es obligatoria"
	}
	if strings.TrimSpace(c.Country) == "" {
		errs["country"] = "El país es obligatorio"
	}
	return errs
}

// ValidateConsent checks the terminal gate: both consent boxes must be true
// before a submission is accepted.
func (f *ClientFormData) ValidateConsent() FieldErrors {
	errs := FieldErrors{}
	if f.MigrationInfo == nil || !f.MigrationInfo.AcceptedTerms {
		errs["accepted_terms"] = "Debes aceptar los términos y condiciones"
	}
	if f.MigrationInfo == nil || !f.MigrationInfo.AcceptedPrivacy {
		errs["accepted_privacy"] = "Debes aceptar la política de privacidad"
	}
	return errs
}

// Validate checks the full record schema before persistence. A validation
// failure aborts the write.
func (r *ClientRecord) Validate() error {
	if r.ID == "" {
		return &ErrValidation{Field: "id", Message: "id es obligatorio"}
	}
	form := ClientFormData{PersonalInfo: r.PersonalInfo, ContactInfo: r.ContactInfo, MigrationInfo: r.MigrationInfo}
	if errs := form.ValidatePersonalInfo(); len(errs) > 0 {
		return &ErrFormValidation{Section: "personal_info", Fields: errs}
	}
	if errs := form.ValidateContactInfo(); len(errs) > 0 {
		return &ErrFormValidation{Section: "contact_info", Fields: errs}
	}
	if r.ServiceInfo.Type != "package" && r.ServiceInfo.Type != "service" {
		return &ErrValidation{Field: "service_info.type", Message: "tipo de servicio desconocido"}
	}
	if r.ServiceInfo.CatalogID == "" {
		return &ErrValidation{Field: "service_info.catalog_id", Message: "catálogo es obligatorio"}
	}
	if r.ServiceInfo.Price <= 0 {
		return &ErrValidation{Field: "service_info.price", Message: "el precio debe ser positivo"}
	}
	if !ValidClientStatus(r.Metadata.Status) {
		return &ErrValidation{Field: "metadata.status", Message: "estado desconocido"}
	}
	if r.StripeData != nil {
		if r.StripeData.PaymentIntentID == "" {
			return &ErrValidation{Field: "stripe_data.payment_intent_id", Message: "payment intent es obligatorio"}
		}
		if r.StripeData.PaymentStatus != "paid" {
			return &ErrValidation{Field: "stripe_data.payment_status", Message: "estado de pago inválido"}
		}
	}
	return nil
}

// ValidClientStatus reports whether s is one of the known record statuses.
func ValidClientStatus(s string) bool {
	switch s {
	case ClientStatusPending, ClientStatusProcessing, ClientStatusCompleted, ClientStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a status move is allowed. The flow is
// one-directional: pending → processing → completed; cancelled is reachable
// from any non-terminal state and is terminal, as is completed.
func CanTransitionTo(from, to string) bool {
	if from == to {
		return false
	}
	switch from {
	case ClientStatusPending:
		return to == ClientStatusProcessing || to == ClientStatusCompleted || to == ClientStatusCancelled
	case ClientStatusProcessing:
		return to == ClientStatusCompleted || to == ClientStatusCancelled
	default:
		return false
	}
}

// PaymentStats is the aggregate the admin dashboard shows. It is computed by
// scanning records client-side; the document database offers no server-side
// aggregation.
type PaymentStats struct {
	TotalClients   int              `json:"total_clients"`
	PaidClients    int              `json:"paid_clients"`
	TotalRevenue   int64            `json:"total_revenue"`
	Currency       string           `json:"currency"`
	ByStatus       map[string]int   `json:"by_status"`
	ByServiceType  map[string]int   `json:"by_service_type"`
	RevenueByMonth map[string]int64 `json:"revenue_by_month"`
}
