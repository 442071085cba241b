package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/service"

	"go.uber.org/zap"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Cómo Obtener el NIE!", "como-obtener-el-nie"},
		{"Visado de Nómada Digital: Guía 2026", "visado-de-nomada-digital-guia-2026"},
		{"  España   te   espera  ", "espana-te-espera"},
		{"¿Qué es el empadronamiento?", "que-es-el-empadronamiento"},
		{"---", ""},
	}
	for _, tc := range cases {
		got := service.Slugify(tc.title)
		if got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
		}
		if again := service.Slugify(tc.title); again != got {
			t.Errorf("Slugify(%q) not deterministic: %q then %q", tc.title, got, again)
		}
	}
}

func TestCreatePost_DerivesSlugAndDraft(t *testing.T) {
	store := newFakeBlogStore()
	svc := service.NewBlogService(store, nil, zap.NewNop())

	post, err := svc.CreatePost(context.Background(), &domain.BlogPost{
		Title:   "Homologación de títulos en España",
		Content: "<p>...</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.Slug != "homologacion-de-titulos-en-espana" {
		t.Errorf("derived slug = %q", post.Slug)
	}
	if post.Status != domain.PostStatusDraft {
		t.Errorf("default status = %q, want draft", post.Status)
	}
	if post.ID == "" {
		t.Error("id not assigned")
	}
}

func TestGeneratePost_StoresDraft(t *testing.T) {
	store := newFakeBlogStore()
	gen := &fakeGenerator{post: &domain.GeneratedPost{
		Title:   "Cómo Obtener el NIE!",
		Excerpt: "Los pasos para solicitar el NIE.",
		Content: "<p>Primero pide cita previa.</p>",
	}}
	svc := service.NewBlogService(store, gen, zap.NewNop())

	post, err := svc.GeneratePost(context.Background(), &domain.GenerateRequest{
		Topic:    "trámites del NIE",
		Category: "legal",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.Status != domain.PostStatusDraft {
		t.Errorf("generated post status = %q, generated drafts must wait for review", post.Status)
	}
	if post.Slug != "como-obtener-el-nie" {
		t.Errorf("slug = %q, want derived from title", post.Slug)
	}
	if post.Category != "legal" {
		t.Errorf("category = %q", post.Category)
	}
	if post.Author != "colespa" {
		t.Errorf("author = %q", post.Author)
	}

	stored, err := store.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("post not persisted: %v", err)
	}
	if stored.Status != domain.PostStatusDraft {
		t.Errorf("stored status = %q", stored.Status)
	}
}

func TestGeneratePost_GeneratorFailure(t *testing.T) {
	store := newFakeBlogStore()
	gen := &fakeGenerator{err: &domain.ErrGenerationFailed{Stage: "parse", Err: errors.New("respuesta no es JSON")}}
	svc := service.NewBlogService(store, gen, zap.NewNop())

	_, err := svc.GeneratePost(context.Background(), &domain.GenerateRequest{Topic: "NIE"})
	var genErr *domain.ErrGenerationFailed
	if !errors.As(err, &genErr) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if genErr.Stage != "parse" {
		t.Errorf("stage = %q", genErr.Stage)
	}
	if len(store.posts) != 0 {
		t.Error("failed generation must not persist a post")
	}
}

func TestGeneratePost_NoGeneratorConfigured(t *testing.T) {
	svc := service.NewBlogService(newFakeBlogStore(), nil, zap.NewNop())

	_, err := svc.GeneratePost(context.Background(), &domain.GenerateRequest{Topic: "NIE"})
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if external.Service != "perplexity" {
		t.Errorf("service = %q", external.Service)
	}
}

func TestGetPublishedPost(t *testing.T) {
	store := newFakeBlogStore()
	svc := service.NewBlogService(store, nil, zap.NewNop())

	draft, err := svc.CreatePost(context.Background(), &domain.BlogPost{
		Title:   "Alquilar piso en Madrid",
		Content: "<p>...</p>",
	})
	if err != nil {
		t.Fatalf("creating draft: %v", err)
	}

	// Drafts stay invisible on the public surface.
	_, err = svc.GetPublishedPost(context.Background(), draft.Slug)
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("draft visible publicly: %v", err)
	}

	if err := svc.SetStatus(context.Background(), draft.ID, domain.PostStatusPublished); err != nil {
		t.Fatalf("publishing: %v", err)
	}

	got, err := svc.GetPublishedPost(context.Background(), draft.Slug)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != draft.ID {
		t.Errorf("resolved wrong post %q", got.ID)
	}

	stored, _ := store.GetPost(context.Background(), draft.ID)
	if stored.Views != 1 {
		t.Errorf("views = %d, want 1", stored.Views)
	}
}

func TestSetStatus_UnknownStatus(t *testing.T) {
	svc := service.NewBlogService(newFakeBlogStore(), nil, zap.NewNop())

	err := svc.SetStatus(context.Background(), "post-1", "viral")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
