package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colespa/colespa-api/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const adsCollection = "advertisements"

// --- Advertisement store (implements port.AdStore) ---

func (c *Client) CreateAd(ctx context.Context, ad *domain.Advertisement) error {
	ctx, span := tracer.Start(ctx, "Firestore.CreateAd")
	defer span.End()
	span.SetAttributes(attribute.String("ad.id", ad.ID))

	if err := ad.Validate(); err != nil {
		return err
	}
	if err := c.createDoc(ctx, adsCollection, ad.ID, ad); err != nil {
		return &domain.ErrExternalService{Service: "firestore/ads", Err: err}
	}
	return nil
}

func (c *Client) GetAd(ctx context.Context, id string) (*domain.Advertisement, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetAd")
	defer span.End()
	span.SetAttributes(attribute.String("ad.id", id))

	var ad domain.Advertisement
	found, err := c.getDoc(ctx, adsCollection, id, &ad)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "firestore/ads", Err: err}
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "advertisement", ID: id}
	}
	return &ad, nil
}

func (c *Client) GetAdsByBusiness(ctx context.Context, businessID string) ([]domain.Advertisement, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetAdsByBusiness")
	defer span.End()

	return c.queryAds(ctx, []queryFilter{
		{Field: "business_id", Op: "EQUAL", Value: businessID},
	})
}

func (c *Client) GetAdsByStatus(ctx context.Context, status string) ([]domain.Advertisement, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetAdsByStatus")
	defer span.End()
	span.SetAttributes(attribute.String("status", status))

	return c.queryAds(ctx, []queryFilter{
		{Field: "status", Op: "EQUAL", Value: status},
	})
}

func (c *Client) UpdateAdStatus(ctx context.Context, id, status string) error {
	ctx, span := tracer.Start(ctx, "Firestore.UpdateAdStatus")
	defer span.End()
	span.SetAttributes(attribute.String("ad.id", id))

	if !domain.ValidAdStatus(status) {
		return &domain.ErrValidation{Field: "status", Message: "estado desconocido"}
	}
	err := c.patchDoc(ctx, adsCollection, id, map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "firestore/ads", Err: err}
	}
	return nil
}

// IncrementAdCounter bumps one of the engagement counters (impressions,
// clicks, conversions) by one. Read-modify-write; lost updates under heavy
// concurrency are an accepted margin of error for ad counters.
func (c *Client) IncrementAdCounter(ctx context.Context, id, counter string) error {
	ctx, span := tracer.Start(ctx, "Firestore.IncrementAdCounter")
	defer span.End()
	span.SetAttributes(attribute.String("ad.id", id), attribute.String("counter", counter))

	ad, err := c.GetAd(ctx, id)
	if err != nil {
		return err
	}
	var value int64
	switch counter {
	case "impressions":
		value = ad.Impressions + 1
	case "clicks":
		value = ad.Clicks + 1
	case "conversions":
		value = ad.Conversions + 1
	default:
		return &domain.ErrValidation{Field: "counter", Message: "contador desconocido"}
	}
	err = c.patchDoc(ctx, adsCollection, id, map[string]any{
		counter:      value,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "firestore/ads", Err: err}
	}
	return nil
}

func (c *Client) queryAds(ctx context.Context, filters []queryFilter) ([]domain.Advertisement, error) {
	var ads []domain.Advertisement
	err := c.runQuery(ctx, adsCollection, filters, "created_at", "DESCENDING", 0, func(fields map[string]json.RawMessage) error {
		var ad domain.Advertisement
		if err := decodeStruct(fields, &ad); err != nil {
			return fmt.Errorf("decode advertisement: %w", err)
		}
		ads = append(ads, ad)
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "firestore/ads", Err: err}
	}
	return ads, nil
}
