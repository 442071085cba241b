package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/infra/cache"
	"github.com/colespa/colespa-api/internal/infra/observability"
	"github.com/colespa/colespa-api/internal/service"

	"go.uber.org/zap"
)

func newProfiles(store *fakeProfileStore) *service.ProfileService {
	return service.NewProfileService(store, cache.New[*domain.UserProfile](time.Minute), observability.NewMetrics(), zap.NewNop())
}

func TestGetOrCreateProfile_FirstSignIn(t *testing.T) {
	store := newFakeProfileStore()
	svc := newProfiles(store)

	profile, err := svc.GetOrCreateProfile(context.Background(), "user-1", "ana@example.com", "Ana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Role != domain.RoleGuest {
		t.Errorf("first sign-in role = %q, want guest", profile.Role)
	}
	if profile.Credits != 0 {
		t.Errorf("first sign-in credits = %d, want 0", profile.Credits)
	}
	if profile.Email != "ana@example.com" || profile.DisplayName != "Ana" {
		t.Errorf("identity not carried over: %q %q", profile.Email, profile.DisplayName)
	}
}

func TestGetOrCreateProfile_Idempotent(t *testing.T) {
	store := newFakeProfileStore()
	svc := newProfiles(store)

	first, err := svc.GetOrCreateProfile(context.Background(), "user-1", "ana@example.com", "Ana")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := svc.SetRole(context.Background(), "user-1", domain.RoleAdmin); err != nil {
		t.Fatalf("promoting: %v", err)
	}

	second, err := svc.GetOrCreateProfile(context.Background(), "user-1", "ana@example.com", "Ana")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second sign-in created a new profile %q", second.ID)
	}
	if second.Role != domain.RoleAdmin {
		t.Errorf("stale role %q served after role change", second.Role)
	}
	if len(store.profiles) != 1 {
		t.Errorf("store holds %d profiles, want 1", len(store.profiles))
	}
}

func TestUpdateProfile_FiltersFields(t *testing.T) {
	store := newFakeProfileStore()
	svc := newProfiles(store)
	if _, err := svc.GetOrCreateProfile(context.Background(), "user-1", "ana@example.com", "Ana"); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	err := svc.UpdateProfile(context.Background(), "user-1", map[string]any{
		"display_name": "Ana María",
		"credits":      1000,
		"role":         "admin",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	profile, _ := store.GetProfile(context.Background(), "user-1")
	if profile.DisplayName != "Ana María" {
		t.Errorf("display name not applied: %q", profile.DisplayName)
	}
	if profile.Credits != 0 {
		t.Errorf("credits changed through self-service update: %d", profile.Credits)
	}
	if profile.Role != domain.RoleGuest {
		t.Errorf("role changed through self-service update: %q", profile.Role)
	}
}

func TestUpdateProfile_NoAllowedFields(t *testing.T) {
	svc := newProfiles(newFakeProfileStore())

	err := svc.UpdateProfile(context.Background(), "user-1", map[string]any{"credits": 50})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSetRole_InvalidRole(t *testing.T) {
	svc := newProfiles(newFakeProfileStore())

	err := svc.SetRole(context.Background(), "user-1", domain.Role("superuser"))
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGrantCredits(t *testing.T) {
	store := newFakeProfileStore()
	svc := newProfiles(store)
	seedAdvertiser(t, store, "biz-1", 5)

	if err := svc.GrantCredits(context.Background(), "biz-1", 15); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	profile, _ := store.GetProfile(context.Background(), "biz-1")
	if profile.Credits != 20 {
		t.Errorf("credits = %d, want 20", profile.Credits)
	}

	err := svc.GrantCredits(context.Background(), "biz-1", -3)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("negative grant accepted: %v", err)
	}
}

func TestListUsers_UnknownRole(t *testing.T) {
	svc := newProfiles(newFakeProfileStore())

	_, err := svc.ListUsers(context.Background(), "superuser")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
