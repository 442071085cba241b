package service

import (
	"context"
	"time"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var adsTracer = otel.Tracer("service/ads")

// AdService manages advertisements and the credit economy behind them. It
// shares the profile cache with ProfileService so credit writes invalidate
// the cached balance.
type AdService struct {
	ads      port.AdStore
	profiles port.ProfileStore
	cache    port.Cache[*domain.UserProfile]
	logger   *zap.Logger
}

func NewAdService(ads port.AdStore, profiles port.ProfileStore, cache port.Cache[*domain.UserProfile], logger *zap.Logger) *AdService {
	return &AdService{ads: ads, profiles: profiles, cache: cache, logger: logger}
}

// AdDraft is the advertiser's creation request; id, counters and status are
// assigned server-side.
type AdDraft struct {
	AdType      string    `json:"ad_type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CTAURL      string    `json:"cta_url,omitempty"`
	CTALabel    string    `json:"cta_label,omitempty"`
	TargetCity  string    `json:"target_city,omitempty"`
	Category    string    `json:"category,omitempty"`
	DailyBudget int       `json:"daily_budget,omitempty"`
	StartsAt    time.Time `json:"starts_at,omitempty"`
	EndsAt      time.Time `json:"ends_at,omitempty"`
}

// CreateAd charges the ad's credit cost against the advertiser profile and
// creates the ad in pending (awaiting moderation). The check and the
// decrement both happen here, server-side; the client never reports its own
// balance. Two simultaneous creations can still interleave between read and
// write, an accepted residual race on a single advertiser's own account.
func (s *AdService) CreateAd(ctx context.Context, businessID string, draft *AdDraft) (*domain.Advertisement, error) {
	ctx, span := adsTracer.Start(ctx, "AdService.CreateAd")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID), attribute.String("ad_type", draft.AdType))

	cost := domain.AdCreditCost(draft.AdType)
	if cost == 0 {
		return nil, &domain.ErrValidation{Field: "ad_type", Message: "tipo de anuncio desconocido"}
	}

	profile, err := s.profiles.GetProfile(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if profile.Credits < cost {
		return nil, &domain.ErrInsufficientCredits{Available: profile.Credits, Required: cost}
	}

	now := time.Now().UTC()
	ad := &domain.Advertisement{
		ID:           uuid.NewString(),
		BusinessID:   businessID,
		AdType:       draft.AdType,
		Title:        draft.Title,
		Description:  draft.Description,
		ImageURL:     draft.ImageURL,
		CTAURL:       draft.CTAURL,
		CTALabel:     draft.CTALabel,
		TargetCity:   draft.TargetCity,
		Category:     draft.Category,
		DailyBudget:  draft.DailyBudget,
		StartsAt:     draft.StartsAt,
		EndsAt:       draft.EndsAt,
		CreditsSpent: cost,
		Status:       domain.AdStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := ad.Validate(); err != nil {
		return nil, err
	}

	if err := s.profiles.UpdateProfile(ctx, businessID, map[string]any{
		"credits": profile.Credits - cost,
	}); err != nil {
		return nil, err
	}
	s.cache.Delete(businessID)
	if err := s.ads.CreateAd(ctx, ad); err != nil {
		// Refund the charge so the advertiser is not debited for nothing.
		if refundErr := s.profiles.UpdateProfile(ctx, businessID, map[string]any{
			"credits": profile.Credits,
		}); refundErr != nil {
			s.logger.Error("credit refund failed after ad creation error",
				zap.String("business_id", businessID),
				zap.Int("credits", cost),
				zap.Error(refundErr),
			)
		}
		s.cache.Delete(businessID)
		return nil, err
	}

	s.logger.Info("ad created",
		zap.String("ad_id", ad.ID),
		zap.String("business_id", businessID),
		zap.Int("credits_spent", cost),
	)
	return ad, nil
}

// ListByBusiness returns an advertiser's own ads.
func (s *AdService) ListByBusiness(ctx context.Context, businessID string) ([]domain.Advertisement, error) {
	ctx, span := adsTracer.Start(ctx, "AdService.ListByBusiness")
	defer span.End()

	return s.ads.GetAdsByBusiness(ctx, businessID)
}

// ListByStatus returns ads in a moderation state. Admin view.
func (s *AdService) ListByStatus(ctx context.Context, status string) ([]domain.Advertisement, error) {
	ctx, span := adsTracer.Start(ctx, "AdService.ListByStatus")
	defer span.End()

	if !domain.ValidAdStatus(status) {
		return nil, &domain.ErrValidation{Field: "status", Message: "estado desconocido"}
	}
	return s.ads.GetAdsByStatus(ctx, status)
}

// ListApproved returns the ads eligible to show on the public site.
func (s *AdService) ListApproved(ctx context.Context) ([]domain.Advertisement, error) {
	ctx, span := adsTracer.Start(ctx, "AdService.ListApproved")
	defer span.End()

	return s.ads.GetAdsByStatus(ctx, domain.AdStatusApproved)
}

// Moderate sets an ad's status: approve, reject, pause, expire. Admin-only
// at the handler layer, except that an advertiser may pause their own ad.
func (s *AdService) Moderate(ctx context.Context, adID, status string) error {
	ctx, span := adsTracer.Start(ctx, "AdService.Moderate")
	defer span.End()
	span.SetAttributes(attribute.String("ad.id", adID), attribute.String("status", status))

	if !domain.ValidAdStatus(status) {
		return &domain.ErrValidation{Field: "status", Message: "estado desconocido"}
	}
	if err := s.ads.UpdateAdStatus(ctx, adID, status); err != nil {
		return err
	}
	s.logger.Info("ad moderated", zap.String("ad_id", adID), zap.String("status", status))
	return nil
}

// TrackEngagement records an impression, click or conversion on an ad.
func (s *AdService) TrackEngagement(ctx context.Context, adID, counter string) error {
	ctx, span := adsTracer.Start(ctx, "AdService.TrackEngagement")
	defer span.End()

	return s.ads.IncrementAdCounter(ctx, adID, counter)
}

// GetDashboard composes the advertiser landing page: the profile's credit
// balance and the ad list with aggregate engagement, fetched concurrently.
func (s *AdService) GetDashboard(ctx context.Context, businessID string) (*domain.AdvertiserDashboard, error) {
	ctx, span := adsTracer.Start(ctx, "AdService.GetDashboard")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", businessID))

	var (
		profile *domain.UserProfile
		ads     []domain.Advertisement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.profiles.GetProfile(gctx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		ads, err = s.ads.GetAdsByBusiness(gctx, businessID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dash := &domain.AdvertiserDashboard{
		BusinessID:       businessID,
		RemainingCredits: profile.Credits,
		MonthlyCredits:   profile.MonthlyCredits,
		TotalAds:         len(ads),
		Ads:              ads,
	}
	for _, ad := range ads {
		if ad.Status == domain.AdStatusApproved {
			dash.ActiveAds++
		}
		dash.TotalImpressions += ad.Impressions
		dash.TotalClicks += ad.Clicks
	}
	return dash, nil
}
