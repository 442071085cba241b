// Package domain defines the core business entities of the Colespa platform:
// user profiles, client records, catalog items, advertisements and blog posts.
// These models are independent of the vendor services that persist them.
package domain

import "time"

// UserProfile represents an authenticated account. The ID is the subject of
// the identity token issued by the external auth provider; the profile is
// created on first successful sign-in with role guest and zero credits.
type UserProfile struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	DisplayName        string    `json:"display_name,omitempty"`
	Role               Role      `json:"role"`
	Credits            int       `json:"credits"`
	MonthlyCredits     int       `json:"monthly_credits"`
	SubscriptionPlan   string    `json:"subscription_plan,omitempty"`
	SubscriptionStatus string    `json:"subscription_status,omitempty"`
	BusinessName       string    `json:"business_name,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Validate checks the profile against its schema. It is called before every
// write and after every read, so a malformed document never crosses the
// store boundary in either direction.
func (p *UserProfile) Validate() error {
	if p.ID == "" {
		return &ErrValidation{Field: "id", Message: "id es obligatorio"}
	}
	if p.Email == "" {
		return &ErrValidation{Field: "email", Message: "email es obligatorio"}
	}
	if !p.Role.IsValid() {
		return &ErrValidation{Field: "role", Message: "rol desconocido"}
	}
	if p.Credits < 0 {
		return &ErrValidation{Field: "credits", Message: "los créditos no pueden ser negativos"}
	}
	if p.MonthlyCredits < 0 {
		return &ErrValidation{Field: "monthly_credits", Message: "la asignación mensual no puede ser negativa"}
	}
	return nil
}
