package domain_test

import (
	"testing"
	"time"

	"github.com/colespa/colespa-api/internal/domain"
)

func validForm() *domain.ClientFormData {
	return &domain.ClientFormData{
		PersonalInfo: domain.PersonalInfo{
			FirstName: "María",
			LastName:  "Rodríguez",
			Email:     "maria@example.com",
			Phone:     "+57 300 123 4567",
		},
		ContactInfo: domain.ContactInfo{
			Address: "Calle 72 #10-34",
			City:    "Bogotá",
			Country: "Colombia",
		},
		MigrationInfo: &domain.MigrationInfo{
			AcceptedTerms:   true,
			AcceptedPrivacy: true,
		},
	}
}

func TestValidatePersonalInfo_RequiredFields(t *testing.T) {
	form := validForm()
	if errs := form.ValidatePersonalInfo(); len(errs) != 0 {
		t.Fatalf("valid form rejected: %v", errs)
	}

	form.PersonalInfo.FirstName = "  "
	form.PersonalInfo.Email = "sin-arroba"
	errs := form.ValidatePersonalInfo()
	if _, ok := errs["first_name"]; !ok {
		t.Error("missing first_name error")
	}
	if _, ok := errs["email"]; !ok {
		t.Error("missing email format error")
	}
	if _, ok := errs["phone"]; ok {
		t.Error("phone was present, should not error")
	}
}

func TestValidateContactInfo_RequiredFields(t *testing.T) {
	form := validForm()
	form.ContactInfo.City = ""
	form.ContactInfo.Country = ""
	errs := form.ValidateContactInfo()
	if len(errs) != 2 {
		t.Fatalf("expected 2 field errors, got %d: %v", len(errs), errs)
	}
}

func TestValidateConsent_BothFlagsRequired(t *testing.T) {
	form := validForm()
	if errs := form.ValidateConsent(); len(errs) != 0 {
		t.Fatalf("consent given but rejected: %v", errs)
	}

	form.MigrationInfo.AcceptedPrivacy = false
	errs := form.ValidateConsent()
	if _, ok := errs["accepted_privacy"]; !ok {
		t.Error("missing accepted_privacy error")
	}
	if _, ok := errs["accepted_terms"]; ok {
		t.Error("accepted_terms was true, should not error")
	}

	form.MigrationInfo = nil
	errs = form.ValidateConsent()
	if len(errs) != 2 {
		t.Fatalf("nil questionnaire should fail both consent gates, got %v", errs)
	}
}

func validRecord() *domain.ClientRecord {
	form := validForm()
	now := time.Now().UTC()
	return &domain.ClientRecord{
		ID:            "rec-1",
		PersonalInfo:  form.PersonalInfo,
		ContactInfo:   form.ContactInfo,
		MigrationInfo: form.MigrationInfo,
		ServiceInfo: domain.ServiceInfo{
			Type:      "package",
			CatalogID: "integral",
			Name:      "Paquete Integral",
			Price:     1500,
			Currency:  "EUR",
		},
		StripeData: &domain.StripeData{
			PaymentIntentID: "pi_123",
			PaymentStatus:   "paid",
			AmountPaid:      150000,
			Currency:        "eur",
			PaidAt:          now,
		},
		Metadata: domain.ClientMetadata{
			CreatedAt: now,
			UpdatedAt: now,
			Status:    domain.ClientStatusCompleted,
			Priority:  domain.PriorityNormal,
		},
	}
}

func TestClientRecordValidate(t *testing.T) {
	if err := validRecord().Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	rec := validRecord()
	rec.ServiceInfo.Price = 0
	if err := rec.Validate(); err == nil {
		t.Error("zero price accepted")
	}

	rec = validRecord()
	rec.StripeData.PaymentStatus = "pending"
	if err := rec.Validate(); err == nil {
		t.Error("non-paid stripe data accepted")
	}

	rec = validRecord()
	rec.Metadata.Status = "done"
	if err := rec.Validate(); err == nil {
		t.Error("unknown status accepted")
	}
}

func TestCanTransitionTo(t *testing.T) {
	allowed := [][2]string{
		{domain.ClientStatusPending, domain.ClientStatusProcessing},
		{domain.ClientStatusPending, domain.ClientStatusCompleted},
		{domain.ClientStatusPending, domain.ClientStatusCancelled},
		{domain.ClientStatusProcessing, domain.ClientStatusCompleted},
		{domain.ClientStatusProcessing, domain.ClientStatusCancelled},
	}
	for _, tr := range allowed {
		if !domain.CanTransitionTo(tr[0], tr[1]) {
			t.Errorf("transition %s → %s should be allowed", tr[0], tr[1])
		}
	}

	forbidden := [][2]string{
		{domain.ClientStatusProcessing, domain.ClientStatusPending},
		{domain.ClientStatusCompleted, domain.ClientStatusProcessing},
		{domain.ClientStatusCompleted, domain.ClientStatusCancelled},
		{domain.ClientStatusCancelled, domain.ClientStatusPending},
		{domain.ClientStatusCancelled, domain.ClientStatusCompleted},
		{domain.ClientStatusPending, domain.ClientStatusPending},
	}
	for _, tr := range forbidden {
		if domain.CanTransitionTo(tr[0], tr[1]) {
			t.Errorf("transition %s → %s should be rejected", tr[0], tr[1])
		}
	}
}

func TestPaymentIntentOutcome(t *testing.T) {
	cases := map[string]string{
		"succeeded":              domain.PaymentSucceeded,
		"requires_action":        domain.PaymentRequiresAction,
		"processing":             domain.PaymentRequiresAction,
		"requires_confirmation":  domain.PaymentRequiresAction,
		"requires_payment_method": domain.PaymentFailed,
		"canceled":               domain.PaymentFailed,
	}
	for status, want := range cases {
		pi := &domain.PaymentIntent{Status: status}
		if got := pi.Outcome(); got != want {
			t.Errorf("Outcome(%q) = %q, want %q", status, got, want)
		}
	}
}
