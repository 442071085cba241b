// Package service provides the business logic layer (use cases) for the
// Colespa platform: profiles and roles, checkout and payments, the client
// CRM, advertising and the blog.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/infra/observability"
	"github.com/colespa/colespa-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var profileTracer = otel.Tracer("service/profile")

// ProfileService manages user profiles and role assignments. Reads go
// through the cache; every write invalidates the cached entry.
type ProfileService struct {
	store   port.ProfileStore
	cache   port.Cache[*domain.UserProfile]
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewProfileService(store port.ProfileStore, cache port.Cache[*domain.UserProfile], metrics *observability.Metrics, logger *zap.Logger) *ProfileService {
	return &ProfileService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// GetOrCreateProfile resolves the profile for a verified identity. On first
// sign-in no profile exists yet; one is created with role guest and zero
// credits.
func (s *ProfileService) GetOrCreateProfile(ctx context.Context, userID, email, displayName string) (*domain.UserProfile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.GetOrCreateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if cached, ok := s.cache.Get(userID); ok {
		s.metrics.IncrCacheHit("profiles")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("profiles")

	profile, err := s.store.GetProfile(ctx, userID)
	if err == nil {
		s.cache.Set(userID, profile)
		return profile, nil
	}
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		return nil, err
	}

	now := time.Now().UTC()
	profile = &domain.UserProfile{
		ID:          userID,
		Email:       email,
		DisplayName: displayName,
		Role:        domain.RoleGuest,
		Credits:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.cache.Set(userID, profile)
	s.logger.Info("profile created on first sign-in",
		zap.String("user_id", userID),
		zap.String("role", string(profile.Role)),
	)
	return profile, nil
}

// GetProfile fetches a profile by id.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.GetProfile")
	defer span.End()

	return s.store.GetProfile(ctx, userID)
}

// UpdateProfile applies a restricted set of self-service fields. Role,
// credits and subscription fields are not in the allowed set; those change
// only through their dedicated admin flows.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, updates map[string]any) error {
	ctx, span := profileTracer.Start(ctx, "ProfileService.UpdateProfile")
	defer span.End()

	allowed := map[string]bool{"display_name": true, "business_name": true}
	filtered := make(map[string]any, len(updates))
	for k, v := range updates {
		if allowed[k] {
			filtered[k] = v
		}
	}
	if len(filtered) == 0 {
		return &domain.ErrValidation{Field: "updates", Message: "no hay campos actualizables"}
	}
	if err := s.store.UpdateProfile(ctx, userID, filtered); err != nil {
		return err
	}
	s.cache.Delete(userID)
	return nil
}

// SetRole changes a user's role. Admin-only at the handler layer.
func (s *ProfileService) SetRole(ctx context.Context, userID string, role domain.Role) error {
	ctx, span := profileTracer.Start(ctx, "ProfileService.SetRole")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("role", string(role)))

	if !role.IsValid() {
		return &domain.ErrValidation{Field: "role", Message: "rol desconocido"}
	}
	if err := s.store.UpdateRole(ctx, userID, role); err != nil {
		return err
	}
	s.cache.Delete(userID)
	s.logger.Info("role updated", zap.String("user_id", userID), zap.String("role", string(role)))
	return nil
}

// GrantCredits adds ad credits to an advertiser profile. Admin-only.
func (s *ProfileService) GrantCredits(ctx context.Context, userID string, amount int) error {
	ctx, span := profileTracer.Start(ctx, "ProfileService.GrantCredits")
	defer span.End()

	if amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "la cantidad debe ser positiva"}
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateProfile(ctx, userID, map[string]any{
		"credits": profile.Credits + amount,
	}); err != nil {
		return err
	}
	s.cache.Delete(userID)
	return nil
}

// ListUsers returns all users, or only those in a role when one is given.
func (s *ProfileService) ListUsers(ctx context.Context, role string) ([]domain.UserProfile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.ListUsers")
	defer span.End()

	if role == "" {
		return s.store.GetAllUsers(ctx)
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "role", Message: "rol desconocido"}
	}
	return s.store.GetUsersByRole(ctx, parsed)
}
