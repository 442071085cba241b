package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/colespa/colespa-api/internal/domain"
)

// In-memory fakes implementing the ports, shared by the service tests.

type fakePayments struct {
	intents       map[string]*domain.PaymentIntent
	createdAmount int64
	createdCcy    string
	getCalls      int
}

func newFakePayments() *fakePayments {
	return &fakePayments{intents: make(map[string]*domain.PaymentIntent)}
}

func (f *fakePayments) CreateIntent(ctx context.Context, amount int64, currency, receiptEmail, catalogID string) (*domain.PaymentIntent, error) {
	f.createdAmount = amount
	f.createdCcy = currency
	intent := &domain.PaymentIntent{
		ID:           "pi_test_1",
		ClientSecret: "pi_test_1_secret",
		Amount:       amount * 100,
		Currency:     currency,
		Status:       "requires_payment_method",
		ReceiptEmail: receiptEmail,
		CatalogID:    catalogID,
		CreatedAt:    time.Now().UTC(),
	}
	f.intents[intent.ID] = intent
	return intent, nil
}

func (f *fakePayments) GetIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	f.getCalls++
	intent, ok := f.intents[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "payment_intent", ID: id}
	}
	return intent, nil
}

func (f *fakePayments) ListRecentIntents(ctx context.Context, since time.Time, limit int) ([]domain.PaymentIntent, error) {
	var out []domain.PaymentIntent
	for _, intent := range f.intents {
		out = append(out, *intent)
	}
	return out, nil
}

type fakeClientStore struct {
	records    map[string]*domain.ClientRecord
	failCreate bool
}

func newFakeClientStore() *fakeClientStore {
	return &fakeClientStore{records: make(map[string]*domain.ClientRecord)}
}

func (f *fakeClientStore) CreateClient(ctx context.Context, rec *domain.ClientRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if f.failCreate {
		return &domain.ErrExternalService{Service: "firestore/clients", Err: errors.New("write failed")}
	}
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *fakeClientStore) GetClient(ctx context.Context, id string) (*domain.ClientRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "client", ID: id}
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeClientStore) UpdateClientStripeData(ctx context.Context, id string, data *domain.StripeData) error {
	rec, err := f.GetClient(ctx, id)
	if err != nil {
		return err
	}
	rec.StripeData = data
	f.records[id] = rec
	return nil
}

func (f *fakeClientStore) UpdateClientStatus(ctx context.Context, id, status string) error {
	rec, err := f.GetClient(ctx, id)
	if err != nil {
		return err
	}
	rec.Metadata.Status = status
	f.records[id] = rec
	return nil
}

func (f *fakeClientStore) UpdateClientPriority(ctx context.Context, id, priority string) error {
	rec, err := f.GetClient(ctx, id)
	if err != nil {
		return err
	}
	rec.Metadata.Priority = priority
	f.records[id] = rec
	return nil
}

func (f *fakeClientStore) AssignAgent(ctx context.Context, id, agentID string) error {
	rec, err := f.GetClient(ctx, id)
	if err != nil {
		return err
	}
	rec.Metadata.AssignedAgent = agentID
	f.records[id] = rec
	return nil
}

func (f *fakeClientStore) GetClientsByEmail(ctx context.Context, email string) ([]domain.ClientRecord, error) {
	var out []domain.ClientRecord
	for _, rec := range f.records {
		if rec.PersonalInfo.Email == email {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeClientStore) GetRecentClients(ctx context.Context, limit int) ([]domain.ClientRecord, error) {
	return f.GetAllClients(ctx)
}

func (f *fakeClientStore) GetClientsByStatus(ctx context.Context, status string) ([]domain.ClientRecord, error) {
	var out []domain.ClientRecord
	for _, rec := range f.records {
		if rec.Metadata.Status == status {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeClientStore) GetClientsByServiceType(ctx context.Context, serviceType string) ([]domain.ClientRecord, error) {
	var out []domain.ClientRecord
	for _, rec := range f.records {
		if rec.ServiceInfo.Type == serviceType {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeClientStore) GetClientsByAgent(ctx context.Context, agentID string) ([]domain.ClientRecord, error) {
	var out []domain.ClientRecord
	for _, rec := range f.records {
		if rec.Metadata.AssignedAgent == agentID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeClientStore) SearchClients(ctx context.Context, emailPrefix string) ([]domain.ClientRecord, error) {
	var out []domain.ClientRecord
	for _, rec := range f.records {
		if len(rec.PersonalInfo.Email) >= len(emailPrefix) && rec.PersonalInfo.Email[:len(emailPrefix)] == emailPrefix {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeClientStore) GetAllClients(ctx context.Context) ([]domain.ClientRecord, error) {
	var out []domain.ClientRecord
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	return out, nil
}

type fakeProfileStore struct {
	profiles map[string]*domain.UserProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*domain.UserProfile)}
}

func (f *fakeProfileStore) CreateProfile(ctx context.Context, p *domain.UserProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	cp := *p
	f.profiles[p.ID] = &cp
	return nil
}

func (f *fakeProfileStore) GetProfile(ctx context.Context, id string) (*domain.UserProfile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: id}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) UpdateProfile(ctx context.Context, id string, updates map[string]any) error {
	p, ok := f.profiles[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "profile", ID: id}
	}
	for k, v := range updates {
		switch k {
		case "credits":
			p.Credits = v.(int)
		case "display_name":
			p.DisplayName = v.(string)
		case "business_name":
			p.BusinessName = v.(string)
		case "role":
			p.Role = domain.Role(v.(string))
		}
	}
	return nil
}

func (f *fakeProfileStore) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	return f.UpdateProfile(ctx, id, map[string]any{"role": string(role)})
}

func (f *fakeProfileStore) GetAllUsers(ctx context.Context) ([]domain.UserProfile, error) {
	var out []domain.UserProfile
	for _, p := range f.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProfileStore) GetUsersByRole(ctx context.Context, role domain.Role) ([]domain.UserProfile, error) {
	var out []domain.UserProfile
	for _, p := range f.profiles {
		if p.Role == role {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeAdStore struct {
	ads        map[string]*domain.Advertisement
	failCreate bool
}

func newFakeAdStore() *fakeAdStore {
	return &fakeAdStore{ads: make(map[string]*domain.Advertisement)}
}

func (f *fakeAdStore) CreateAd(ctx context.Context, ad *domain.Advertisement) error {
	if err := ad.Validate(); err != nil {
		return err
	}
	if f.failCreate {
		return &domain.ErrExternalService{Service: "firestore/ads", Err: errors.New("write failed")}
	}
	cp := *ad
	f.ads[ad.ID] = &cp
	return nil
}

func (f *fakeAdStore) GetAd(ctx context.Context, id string) (*domain.Advertisement, error) {
	ad, ok := f.ads[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "advertisement", ID: id}
	}
	cp := *ad
	return &cp, nil
}

func (f *fakeAdStore) GetAdsByBusiness(ctx context.Context, businessID string) ([]domain.Advertisement, error) {
	var out []domain.Advertisement
	for _, ad := range f.ads {
		if ad.BusinessID == businessID {
			out = append(out, *ad)
		}
	}
	return out, nil
}

func (f *fakeAdStore) GetAdsByStatus(ctx context.Context, status string) ([]domain.Advertisement, error) {
	var out []domain.Advertisement
	for _, ad := range f.ads {
		if ad.Status == status {
			out = append(out, *ad)
		}
	}
	return out, nil
}

func (f *fakeAdStore) UpdateAdStatus(ctx context.Context, id, status string) error {
	ad, ok := f.ads[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "advertisement", ID: id}
	}
	ad.Status = status
	return nil
}

func (f *fakeAdStore) IncrementAdCounter(ctx context.Context, id, counter string) error {
	ad, ok := f.ads[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "advertisement", ID: id}
	}
	switch counter {
	case "impressions":
		ad.Impressions++
	case "clicks":
		ad.Clicks++
	case "conversions":
		ad.Conversions++
	}
	return nil
}

type fakeBlogStore struct {
	posts map[string]*domain.BlogPost
}

func newFakeBlogStore() *fakeBlogStore {
	return &fakeBlogStore{posts: make(map[string]*domain.BlogPost)}
}

func (f *fakeBlogStore) CreatePost(ctx context.Context, post *domain.BlogPost) error {
	if err := post.Validate(); err != nil {
		return err
	}
	cp := *post
	f.posts[post.ID] = &cp
	return nil
}

func (f *fakeBlogStore) GetPost(ctx context.Context, id string) (*domain.BlogPost, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "post", ID: id}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeBlogStore) GetPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	for _, p := range f.posts {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "post", ID: slug}
}

func (f *fakeBlogStore) ListPosts(ctx context.Context, status string) ([]domain.BlogPost, error) {
	var out []domain.BlogPost
	for _, p := range f.posts {
		if status == "" || p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeBlogStore) UpdatePostStatus(ctx context.Context, id, status string) error {
	p, ok := f.posts[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "post", ID: id}
	}
	p.Status = status
	return nil
}

func (f *fakeBlogStore) DeletePost(ctx context.Context, id string) error {
	delete(f.posts, id)
	return nil
}

func (f *fakeBlogStore) IncrementViews(ctx context.Context, id string) error {
	p, ok := f.posts[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "post", ID: id}
	}
	p.Views++
	return nil
}

type fakeGenerator struct {
	post *domain.GeneratedPost
	err  error
}

func (f *fakeGenerator) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GeneratedPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.post, nil
}

type noopCache[T any] struct{}

func (noopCache[T]) Get(key string) (T, bool) { var zero T; return zero, false }
func (noopCache[T]) Set(key string, value T)  {}
func (noopCache[T]) Delete(key string)        {}
