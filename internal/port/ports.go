// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the vendor SDK clients so tests can substitute fakes.
package port

import (
	"context"
	"time"

	"github.com/colespa/colespa-api/internal/domain"
)

// ProfileStore persists user profiles keyed by the identity token subject.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p *domain.UserProfile) error
	GetProfile(ctx context.Context, id string) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, id string, updates map[string]any) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	GetAllUsers(ctx context.Context) ([]domain.UserProfile, error)
	GetUsersByRole(ctx context.Context, role domain.Role) ([]domain.UserProfile, error)
}

// ClientStore persists prospective-customer records.
type ClientStore interface {
	CreateClient(ctx context.Context, rec *domain.ClientRecord) error
	GetClient(ctx context.Context, id string) (*domain.ClientRecord, error)
	UpdateClientStripeData(ctx context.Context, id string, data *domain.StripeData) error
	UpdateClientStatus(ctx context.Context, id, status string) error
	UpdateClientPriority(ctx context.Context, id, priority string) error
	AssignAgent(ctx context.Context, id, agentID string) error
	GetClientsByEmail(ctx context.Context, email string) ([]domain.ClientRecord, error)
	GetRecentClients(ctx context.Context, limit int) ([]domain.ClientRecord, error)
	GetClientsByStatus(ctx context.Context, status string) ([]domain.ClientRecord, error)
	GetClientsByServiceType(ctx context.Context, serviceType string) ([]domain.ClientRecord, error)
	GetClientsByAgent(ctx context.Context, agentID string) ([]domain.ClientRecord, error)
	SearchClients(ctx context.Context, emailPrefix string) ([]domain.ClientRecord, error)
	GetAllClients(ctx context.Context) ([]domain.ClientRecord, error)
}

// AdStore persists advertisements.
type AdStore interface {
	CreateAd(ctx context.Context, ad *domain.Advertisement) error
	GetAd(ctx context.Context, id string) (*domain.Advertisement, error)
	GetAdsByBusiness(ctx context.Context, businessID string) ([]domain.Advertisement, error)
	GetAdsByStatus(ctx context.Context, status string) ([]domain.Advertisement, error)
	UpdateAdStatus(ctx context.Context, id, status string) error
	IncrementAdCounter(ctx context.Context, id, counter string) error
}

// BlogStore persists blog posts.
type BlogStore interface {
	CreatePost(ctx context.Context, post *domain.BlogPost) error
	GetPost(ctx context.Context, id string) (*domain.BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error)
	ListPosts(ctx context.Context, status string) ([]domain.BlogPost, error)
	UpdatePostStatus(ctx context.Context, id, status string) error
	DeletePost(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

// PaymentProvider is the payment processor's server-side surface as this
// flow uses it: open an intent, read it back, list recent succeeded charges
// for reconciliation.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, amount int64, currency, receiptEmail, catalogID string) (*domain.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
	ListRecentIntents(ctx context.Context, since time.Time, limit int) ([]domain.PaymentIntent, error)
}

// ContentGenerator produces a structured blog draft from prompt parameters.
type ContentGenerator interface {
	Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GeneratedPost, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
