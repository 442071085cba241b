package domain

import "time"

// Advertisement status values.
const (
	AdStatusDraft    = "draft"
	AdStatusPending  = "pending"
	AdStatusApproved = "approved"
	AdStatusRejected = "rejected"
	AdStatusPaused   = "paused"
	AdStatusExpired  = "expired"
)

// Ad types and their credit cost. Creating an ad consumes this many credits
// from the advertiser's profile.
const (
	AdTypeBasic    = "basic"
	AdTypeFeatured = "featured"
	AdTypePremium  = "premium"
)

// AdCreditCost returns the credits consumed when creating an ad of the given
// type, or 0 for an unknown type.
func AdCreditCost(adType string) int {
	switch adType {
	case AdTypeBasic:
		return 5
	case AdTypeFeatured:
		return 10
	case AdTypePremium:
		return 20
	default:
		return 0
	}
}

// Advertisement is a paid promotional unit created by an advertiser and
// moderated by an admin.
type Advertisement struct {
	ID           string    `json:"id"`
	BusinessID   string    `json:"business_id"` // owning profile id
	AdType       string    `json:"ad_type"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	CTAURL       string    `json:"cta_url,omitempty"`
	CTALabel     string    `json:"cta_label,omitempty"`
	TargetCity   string    `json:"target_city,omitempty"`
	Category     string    `json:"category,omitempty"`
	DailyBudget  int       `json:"daily_budget,omitempty"`
	StartsAt     time.Time `json:"starts_at,omitempty"`
	EndsAt       time.Time `json:"ends_at,omitempty"`
	Impressions  int64     `json:"impressions"`
	Clicks       int64     `json:"clicks"`
	Conversions  int64     `json:"conversions"`
	CreditsSpent int       `json:"credits_spent"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValidAdStatus reports whether s is a known advertisement status.
func ValidAdStatus(s string) bool {
	switch s {
	case AdStatusDraft, AdStatusPending, AdStatusApproved, AdStatusRejected, AdStatusPaused, AdStatusExpired:
		return true
	}
	return false
}

// Validate checks the ad against its schema before any write.
func (a *Advertisement) Validate() error {
	if a.ID == "" {
		return &ErrValidation{Field: "id", Message: "id es obligatorio"}
	}
	if a.BusinessID == "" {
		return &ErrValidation{Field: "business_id", Message: "anunciante es obligatorio"}
	}
	if a.Title == "" {
		return &ErrValidation{Field: "title", Message: "el título es obligatorio"}
	}
	if AdCreditCost(a.AdType) == 0 {
		return &ErrValidation{Field: "ad_type", Message: "tipo de anuncio desconocido"}
	}
	if !ValidAdStatus(a.Status) {
		return &ErrValidation{Field: "status", Message: "estado desconocido"}
	}
	if !a.EndsAt.IsZero() && !a.StartsAt.IsZero() && a.EndsAt.Before(a.StartsAt) {
		return &ErrValidation{Field: "ends_at", Message: "la fecha de fin es anterior al inicio"}
	}
	return nil
}

// AdvertiserDashboard is the aggregate view for the advertiser landing page.
type AdvertiserDashboard struct {
	BusinessID       string          `json:"business_id"`
	RemainingCredits int             `json:"remaining_credits"`
	MonthlyCredits   int             `json:"monthly_credits"`
	TotalAds         int             `json:"total_ads"`
	ActiveAds        int             `json:"active_ads"`
	TotalImpressions int64           `json:"total_impressions"`
	TotalClicks      int64           `json:"total_clicks"`
	Ads              []Advertisement `json:"ads"`
}
