package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colespa/colespa-api/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const profilesCollection = "user_profiles"

// --- Profile/Role store (implements port.ProfileStore) ---

// CreateProfile writes a new user profile document keyed by the identity
// subject. The profile is validated before the write; a malformed profile
// never reaches the database.
func (c *Client) CreateProfile(ctx context.Context, p *domain.UserProfile) error {
	ctx, span := tracer.Start(ctx, "Firestore.CreateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", p.ID))

	if err := p.Validate(); err != nil {
		return err
	}
	if err := c.createDoc(ctx, profilesCollection, p.ID, p); err != nil {
		return &domain.ErrExternalService{Service: "firestore/profiles", Err: err}
	}
	return nil
}

// GetProfile fetches a profile by identity subject, validating the document
// on the way out.
func (c *Client) GetProfile(ctx context.Context, id string) (*domain.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", id))

	var p domain.UserProfile
	found, err := c.getDoc(ctx, profilesCollection, id, &p)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "firestore/profiles", Err: err}
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: id}
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("stored profile %s is invalid: %w", id, err)
	}
	return &p, nil
}

// UpdateProfile patches the named fields of a profile document.
func (c *Client) UpdateProfile(ctx context.Context, id string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Firestore.UpdateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("profile.id", id))

	updates["updated_at"] = time.Now().UTC()
	if err := c.patchDoc(ctx, profilesCollection, id, updates); err != nil {
		return &domain.ErrExternalService{Service: "firestore/profiles", Err: err}
	}
	return nil
}

// UpdateRole sets a profile's role. Authorization (admin-only) is enforced by
// the request-level role gate, not here.
func (c *Client) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	if !role.IsValid() {
		return &domain.ErrValidation{Field: "role", Message: "rol desconocido"}
	}
	return c.UpdateProfile(ctx, id, map[string]any{"role": string(role)})
}

// GetAllUsers lists every profile, most recently created first.
func (c *Client) GetAllUsers(ctx context.Context) ([]domain.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetAllUsers")
	defer span.End()

	return c.queryProfiles(ctx, nil)
}

// GetUsersByRole lists profiles holding the given role.
func (c *Client) GetUsersByRole(ctx context.Context, role domain.Role) ([]domain.UserProfile, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetUsersByRole")
	defer span.End()
	span.SetAttributes(attribute.String("role", string(role)))

	return c.queryProfiles(ctx, []queryFilter{
		{Field: "role", Op: "EQUAL", Value: string(role)},
	})
}

func (c *Client) queryProfiles(ctx context.Context, filters []queryFilter) ([]domain.UserProfile, error) {
	var profiles []domain.UserProfile
	err := c.runQuery(ctx, profilesCollection, filters, "created_at", "DESCENDING", 0, func(fields map[string]json.RawMessage) error {
		var p domain.UserProfile
		if err := decodeStruct(fields, &p); err != nil {
			return fmt.Errorf("decode profile: %w", err)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("stored profile %s is invalid: %w", p.ID, err)
		}
		profiles = append(profiles, p)
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "firestore/profiles", Err: err}
	}
	return profiles, nil
}
